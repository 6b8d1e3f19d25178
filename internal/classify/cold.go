package classify

import (
	"time"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// Cold Express pickup identity and warehouse address.
const (
	ColdExpressOrderID   = "CXMANIFEST"
	ColdExpressRecipient = "Cold Xpress"
	ColdExpressStreet    = "830 Wellington Rd"
	ColdExpressSuburb    = "Rowville"
	ColdExpressPostcode  = "3178"
)

// DateLayout is the dd/mm/yyyy format used on every manifest.
const DateLayout = "02/01/2006"

// ColdExpressRecord builds the synthetic pickup row appended to the MC
// manifest. Its label count is the sum over the CX bucket, or blank when the
// bucket is empty.
func ColdExpressRecord(cx []manifest.Record, p policy.GroupPolicy, now time.Time) manifest.Record {
	labels := manifest.BlankCount()
	if len(cx) > 0 {
		total := 0
		for _, r := range cx {
			total += r.Labels.Int()
		}
		labels = manifest.CountOf(total)
	}
	return manifest.Record{
		OrderID:    ColdExpressOrderID,
		Date:       now.Format(DateLayout),
		Address1:   ColdExpressStreet,
		Address2:   ColdExpressSuburb,
		PostalCode: ColdExpressPostcode,
		State:      normalize.StateVictoria,
		Country:    "Australia",
		City:       normalize.CityForState(normalize.StateVictoria),
		DeliverTo:  ColdExpressRecipient,
		TimeWindow: manifest.TimeWindow,
		Group:      p.Label,
		Labels:     labels,
		LineItems:  manifest.BlankCount(),
	}
}
