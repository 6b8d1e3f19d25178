package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

func rec(id, tags string, labels int) manifest.Record {
	return manifest.Record{
		OrderID:   id,
		Tags:      tags,
		DeliverTo: "Name " + id,
		Location:  "Co " + id,
		Labels:    manifest.CountOf(labels),
	}
}

func ids(records []manifest.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.OrderID)
	}
	return out
}

func TestPartition_ExclusiveTokens(t *testing.T) {
	records := []manifest.Record{
		rec("#1", "wholesale CM 15/03/2024 urgent", 1),
		rec("#2", "MC,CX", 1),
		rec("#3", "CX", 2),
		rec("#4", "DK CEW", 1),
		rec("#5", "MCM", 1),
		rec("#6", "", 1),
		rec("#7", "cm", 1),
	}
	b := Partition(records, policy.CleanEats())

	assert.Equal(t, []string{"#1"}, ids(b.CM))
	assert.Equal(t, []string{"#2"}, ids(b.MC), "MC wins over CX by precedence")
	assert.Equal(t, []string{"#3"}, ids(b.CX))
	assert.Equal(t, []string{"#4"}, ids(b.DK))
	assert.Equal(t, []string{"#5", "#6", "#7"}, ids(b.Other), "MCM is not a token match and matching is case-sensitive")
	assert.Len(t, b.All, len(records))
}

func TestPartition_EveryOrderInExactlyOneBucket(t *testing.T) {
	records := []manifest.Record{
		rec("#1", "CM MC CX DK", 1),
		rec("#2", "DK, CX", 1),
		rec("#3", "COMM", 1),
		rec("#4", "CX", 1),
	}
	b := Partition(records, policy.CleanEats())
	seen := map[string]int{}
	for _, bucket := range [][]manifest.Record{b.CM, b.MC, b.CX, b.DK, b.Other} {
		for _, r := range bucket {
			seen[r.OrderID]++
		}
	}
	for _, r := range records {
		assert.Equal(t, 1, seen[r.OrderID], "order %s", r.OrderID)
	}
}

func TestPartition_CustomPrecedence(t *testing.T) {
	p := policy.CleanEats()
	p.Classification.Precedence = []policy.Carrier{policy.CarrierCX, policy.CarrierMC}
	b := Partition([]manifest.Record{rec("#2", "MC CX", 1)}, p)
	assert.Equal(t, []string{"#2"}, ids(b.CX))
	assert.Empty(t, b.MC)
}

func TestPartition_LegacySubstringOverlap(t *testing.T) {
	p := policy.CleanEats()
	p.Classification.TagMatch = policy.TagMatchSubstring
	p.Classification.Exclusive = false

	b := Partition([]manifest.Record{rec("#5", "MCM", 1), rec("#6", "none", 1)}, p)
	assert.Equal(t, []string{"#5"}, ids(b.CM))
	assert.Equal(t, []string{"#5"}, ids(b.MC), "legacy substring mode puts MCM in both buckets")
	assert.Equal(t, []string{"#6"}, ids(b.Other))
}

func TestPartition_DKWithoutWorkflowStaysInOther(t *testing.T) {
	b := Partition([]manifest.Record{rec("#1", "DK", 1)}, policy.MadeActive())
	assert.Empty(t, b.DK)
	assert.Equal(t, []string{"#1"}, ids(b.Other))
}

func TestPartition_Off(t *testing.T) {
	b := Partition([]manifest.Record{rec("#1", "CM", 1), rec("#2", "", 1)}, policy.EliteMeals())
	assert.Empty(t, b.CM)
	assert.Equal(t, []string{"#1", "#2"}, ids(b.Other))
}

func TestClassify_MCOverrideAndColdRow(t *testing.T) {
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	records := []manifest.Record{
		rec("#1", "MC", 1),
		rec("#2", "CX", 2),
		rec("#3", "CX", 3),
	}
	records[0].Location = "Acme Gym"

	b := Classify(records, policy.CleanEats(), Options{ColdPickup: true, Now: now})
	require.Len(t, b.MC, 2)
	assert.Equal(t, "Acme Gym", b.MC[0].DeliverTo)
	assert.Equal(t, "Name #1", records[0].DeliverTo, "input records are not mutated")
	assert.Equal(t, "Name #1", b.All[0].DeliverTo)

	cold := b.MC[1]
	assert.Equal(t, ColdExpressOrderID, cold.OrderID)
	assert.Equal(t, "14/03/2024", cold.Date)
	assert.Equal(t, "Cold Xpress", cold.DeliverTo)
	assert.Equal(t, "830 Wellington Rd", cold.Address1)
	assert.Equal(t, "Rowville", cold.Address2)
	assert.Equal(t, "3178", cold.PostalCode)
	assert.Equal(t, "Melbourne", cold.City)
	assert.Equal(t, manifest.CountOf(5), cold.Labels)
	assert.True(t, cold.LineItems.IsBlank())
}

func TestClassify_ColdRowWithEmptyCX(t *testing.T) {
	b := Classify(nil, policy.CleanEats(), Options{ColdPickup: true, Now: time.Now()})
	require.Len(t, b.MC, 1)
	assert.True(t, b.MC[0].Labels.IsBlank(), "empty CX bucket yields a blank label count")
	assert.Empty(t, b.CX)
}

func TestClassify_ColdPickupIgnoredWithoutWorkflow(t *testing.T) {
	b := Classify([]manifest.Record{rec("#1", "MC", 1)}, policy.MadeActive(), Options{ColdPickup: true})
	require.Len(t, b.MC, 1)
	assert.Equal(t, "Name #1", b.MC[0].DeliverTo, "made active keeps the shipping name")
}

func TestDeliveryType(t *testing.T) {
	assert.Equal(t, "Commercial", DeliveryType("DK CEW"))
	assert.Equal(t, "Commercial", DeliveryType("DK,CEW-2"))
	assert.Equal(t, "Residential", DeliveryType("DK CEA"))
	assert.Equal(t, "Residential", DeliveryType(""))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"wholesale", "CM", "15", "03", "2024"}, Tokens("wholesale, CM 15/03/2024"))
	assert.Empty(t, Tokens(" , "))
}
