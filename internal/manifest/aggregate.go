// Package manifest reduces grouped line items into one normalized manifest
// record per order.
package manifest

import (
	"fmt"
	"strings"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/orders"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// Totals is the billable volume of one order.
type Totals struct {
	Quantity int
	Labels   int
}

// LabelCount is ceil(quantity / perLabel). Zero quantity needs zero labels.
func LabelCount(quantity, perLabel int) int {
	if quantity <= 0 || perLabel <= 0 {
		return 0
	}
	return (quantity + perLabel - 1) / perLabel
}

// Aggregate sums the line items of one order under the group's bundle and
// family rules. Malformed quantities count as zero and are reported as
// warnings.
func Aggregate(g orders.Group, p policy.GroupPolicy) (Totals, []Warning) {
	var (
		total    int
		warnings []Warning
	)
	for _, row := range g.Rows {
		item := strings.TrimSpace(normalize.Clean(row.Get(orders.ColLineItemName)))
		rawQty := row.Get(orders.ColLineItemQty)
		qty, ok := normalize.QuantityOf(rawQty)
		if !ok {
			warnings = append(warnings, Warning{
				OrderID: g.OrderID,
				Field:   orders.ColLineItemQty,
				Message: fmt.Sprintf("quantity %q for %q counted as %d", rawQty, item, qty),
			})
		}

		switch p.BundlePolicy {
		case policy.BundleExpand:
			if size, ok := p.BundleSize(item); ok {
				total += size * qty
				continue
			}
		case policy.BundleSubtract:
			if p.MatchesBundle(item) {
				total -= qty
				continue
			}
		default:
			if p.MatchesBundle(item) {
				logging.AggregateDebug("%s: skipping bundle line %q", g.OrderID, item)
				continue
			}
		}

		if p.IsFamilyDouble(item) {
			total += 2 * qty
		} else {
			total += qty
		}
	}

	if total < 0 {
		warnings = append(warnings, Warning{
			OrderID: g.OrderID,
			Field:   orders.ColLineItemQty,
			Message: fmt.Sprintf("bundle subtraction left %d items, clamped to 0", total),
		})
		total = 0
	}
	return Totals{Quantity: total, Labels: LabelCount(total, p.ItemsPerLabel)}, warnings
}

