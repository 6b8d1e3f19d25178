package manifest

import (
	"fmt"
	"strconv"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/orders"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// TimeWindow is the delivery window printed on every manifest row.
const TimeWindow = "0600-1800"

// Manifest column headers.
const (
	ColOrderID      = "D.O. No."
	ColDate         = "Date"
	ColAddress1     = "Address 1"
	ColAddress2     = "Address 2"
	ColPostalCode   = "Postal Code"
	ColState        = "State"
	ColCountry      = "Country"
	ColCity         = "City"
	ColDeliverTo    = "Deliver to"
	ColCompany      = "Company"
	ColPhone        = "Phone No."
	ColTimeWindow   = "Time Window"
	ColGroup        = "Group"
	ColLabels       = "No. of Shipping Labels"
	ColLineItems    = "Line Items"
	ColEmail        = "Email"
	ColInstructions = "Instructions"
)

// TextColumns must be written as literal text so spreadsheet tools keep
// leading zeros.
var TextColumns = map[string]bool{
	ColPhone:      true,
	ColPostalCode: true,
}

// Count is an integer cell that may be deliberately blank.
type Count struct {
	n   int
	set bool
}

// CountOf returns a populated count.
func CountOf(n int) Count { return Count{n: n, set: true} }

// BlankCount returns an empty cell.
func BlankCount() Count { return Count{} }

// Value returns the count and whether it is populated.
func (c Count) Value() (int, bool) { return c.n, c.set }

// Int returns the count, or 0 when blank.
func (c Count) Int() int { return c.n }

// IsBlank reports whether the cell is empty.
func (c Count) IsBlank() bool { return !c.set }

func (c Count) String() string {
	if !c.set {
		return ""
	}
	return strconv.Itoa(c.n)
}

// Record is one manifest row. Records are built once per order and only read
// afterwards; carrier overrides work on copies.
type Record struct {
	OrderID      string
	Date         string
	Address1     string
	Address2     string
	PostalCode   string
	State        string
	Country      string
	City         string
	DeliverTo    string
	Company      string
	Phone        string
	TimeWindow   string
	Group        string
	Labels       Count
	LineItems    Count
	Email        string
	Instructions string

	// Order-level facts used by classification and derived documents.
	Tags     string
	Province string
	Location string
}

// Warning is a per-order data-quality degradation. It never aborts a run.
type Warning struct {
	OrderID string
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("%s: %s", w.OrderID, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.OrderID, w.Field, w.Message)
}

// orderLevelColumns are replicated across an order's rows in the export.
var orderLevelColumns = []string{
	orders.ColShipStreet,
	orders.ColShipCity,
	orders.ColShipZip,
	orders.ColShipProvince,
	orders.ColShipCountry,
	orders.ColShipName,
	orders.ColShipCompany,
	orders.ColEmail,
	orders.ColBillingPhone,
	orders.ColShipPhone,
	orders.ColPhone,
}

// Build produces one record per group, in group order.
func Build(groups []orders.Group, p policy.GroupPolicy) ([]Record, []Warning) {
	records := make([]Record, 0, len(groups))
	var warnings []Warning
	for _, g := range groups {
		if len(g.Rows) == 0 {
			continue
		}
		rec, ws := BuildRecord(g, p)
		records = append(records, rec)
		warnings = append(warnings, ws...)
	}
	logging.Aggregate("built %d records for %s (%d warnings)", len(records), p.Key, len(warnings))
	return records, warnings
}

// BuildRecord derives the manifest record for a single order from its first
// row and the aggregated totals.
func BuildRecord(g orders.Group, p policy.GroupPolicy) (Record, []Warning) {
	totals, warnings := Aggregate(g, p)
	warnings = append(warnings, checkAgreement(g)...)

	first := g.First()
	tags := g.JoinedTags()
	state := normalize.MapState(first.Get(orders.ColShipProvince), p.StateMap)

	rec := Record{
		OrderID:      g.OrderID,
		Date:         normalize.ExtractDeliveryDate(tags),
		Address1:     normalize.Clean(first.Get(orders.ColShipStreet)),
		Address2:     normalize.Clean(first.Get(orders.ColShipCity)),
		PostalCode:   normalize.StripQuoteAndTrailingFloat(first.Get(orders.ColShipZip)),
		State:        state,
		Country:      normalize.MapCountry(first.Get(orders.ColShipCountry), p.CountryMap),
		DeliverTo:    normalize.Clean(first.Get(orders.ColShipName)),
		Phone:        resolvePhone(first, p.PhoneColumns),
		TimeWindow:   TimeWindow,
		Group:        p.Label,
		Labels:       CountOf(totals.Labels),
		LineItems:    CountOf(totals.Quantity),
		Email:        normalize.Clean(first.Get(orders.ColEmail)),
		Instructions: normalize.Clean(first.Get(orders.ColNotes)),
		Tags:         tags,
		Province:     normalize.Clean(first.Get(orders.ColShipProvince)),
		Location:     companyOrName(g),
	}
	if p.DeriveCity {
		rec.City = normalize.CityForState(state)
	}
	if p.IncludeCompany {
		rec.Company = normalize.Clean(first.Get(orders.ColShipCompany))
	}
	if rec.Address1 == "" {
		warnings = append(warnings, Warning{OrderID: g.OrderID, Field: orders.ColShipStreet, Message: "no shipping street"})
	}
	for _, w := range warnings {
		logging.AggregateDebug("warning %s", w)
	}
	return rec, warnings
}

func resolvePhone(row orders.Row, columns []string) string {
	for _, col := range columns {
		if v := normalize.Clean(row.Get(col)); v != "" {
			return normalize.FormatPhone(v)
		}
	}
	return ""
}

// companyOrName returns the first non-empty shipping company across the
// order's rows, falling back to the first non-empty shipping name.
func companyOrName(g orders.Group) string {
	if c := g.FirstNonEmpty(orders.ColShipCompany); c != "" {
		return c
	}
	return g.FirstNonEmpty(orders.ColShipName)
}

// checkAgreement flags order-level columns whose non-blank values differ
// between rows. Later rows that leave a column blank are not a conflict.
func checkAgreement(g orders.Group) []Warning {
	var warnings []Warning
	first := g.First()
	for _, col := range orderLevelColumns {
		want := normalize.Clean(first.Get(col))
		for _, row := range g.Rows[1:] {
			got := normalize.Clean(row.Get(col))
			if got != "" && got != want {
				warnings = append(warnings, Warning{
					OrderID: g.OrderID,
					Field:   col,
					Message: fmt.Sprintf("rows disagree (%q vs %q), using first row", want, got),
				})
				break
			}
		}
	}
	return warnings
}
