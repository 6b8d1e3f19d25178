package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

var now = time.Date(2024, 12, 30, 15, 0, 0, 0, time.UTC)

func cxRecord() manifest.Record {
	return manifest.Record{
		OrderID:      "#2001",
		Date:         "31/12/2024",
		Address1:     "5 Chapel St",
		Address2:     "Windsor",
		PostalCode:   "3181",
		State:        "Victoria",
		DeliverTo:    "Sam",
		Labels:       manifest.CountOf(2),
		LineItems:    manifest.CountOf(33),
		Instructions: "side gate",
	}
}

func TestCXReady(t *testing.T) {
	missingDate := cxRecord()
	missingDate.Date = ""

	tbl := CXReady([]manifest.Record{cxRecord(), missingDate})
	require.Equal(t, 2, tbl.Len())
	assert.Len(t, tbl.Header, 15)

	row := tbl.Rows[0]
	require.Len(t, row, 15)
	assert.Equal(t, []any{
		"#2001", "01/01/2025", "", "Sam", "5 Chapel St", "Windsor", "Victoria", "3181",
		"2", "", "13.2", "", "", "chilled", "side gate",
	}, row)

	assert.Equal(t, "", tbl.Rows[1][1], "unparseable date is left blank")
}

func TestWeightRounding(t *testing.T) {
	assert.Equal(t, "0.4", weight(manifest.CountOf(1)))
	assert.Equal(t, "1.2", weight(manifest.CountOf(3)))
	assert.Equal(t, "0", weight(manifest.CountOf(0)))
	assert.Equal(t, "", weight(manifest.BlankCount()))
}

func TestPolarParcel(t *testing.T) {
	all := []manifest.Record{
		{OrderID: "#1", State: "Victoria", Labels: manifest.CountOf(1)},
		{OrderID: "#2", State: "New South Wales", DeliverTo: "Alex", Address2: "Sydney", PostalCode: "2000", Phone: "0412345678", Labels: manifest.CountOf(3)},
		{OrderID: "#3", State: "Australian Capital Territory", Labels: manifest.CountOf(1)},
		{OrderID: "#4", State: "NSW", Labels: manifest.CountOf(1)},
	}
	doc := NewPolarParcel(all, policy.CleanEats(), now)

	assert.Equal(t, "01/01/2025", doc.DeliveryDate)
	assert.Equal(t, PolarParcelHeader, doc.Header)
	require.Equal(t, 2, doc.Len(), "only mapped NSW and ACT states qualify")
	assert.Equal(t, []any{"Clean Eats Australia", "#2", "Alex", "", "Sydney", "2000", "0412345678", "", "", 3}, doc.Rows[0])
	assert.Equal(t, "#3", doc.Rows[1][1])
	assert.Equal(t, "Phone", doc.Header[PolarPhoneColumn-1])
}

func TestDKDistribution(t *testing.T) {
	dk := []manifest.Record{
		{
			OrderID: "#9", Address1: "1 Pitt St", Address2: "Sydney", PostalCode: "2000",
			State: "New South Wales", Province: "NSW", Location: "Acme Cafe",
			Phone: "0298765432", Instructions: "dock", Email: "a@b.co",
			Tags: "DK CEW", Labels: manifest.CountOf(4),
		},
		{OrderID: "#10", Tags: "DK", Labels: manifest.CountOf(1)},
	}
	tbl := DKDistribution(dk, now)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []any{
		"#9", "01/01/2025", "7am - 6pm", "dock", "1 Pitt St", "Sydney", "2000", "NSW", "Australia",
		"Acme Cafe", "0298765432", "dock", "a@b.co", "Commercial", "4",
	}, tbl.Rows[0])
	assert.Equal(t, "Residential", tbl.Rows[1][13])
}

func TestProjectionsDoNotMutateInput(t *testing.T) {
	in := []manifest.Record{cxRecord()}
	_ = CXReady(in)
	_ = DKDistribution(in, now)
	assert.Equal(t, cxRecord(), in[0])
}
