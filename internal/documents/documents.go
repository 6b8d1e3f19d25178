// Package documents projects carrier buckets into the external schemas of the
// secondary documents: the CX-Ready template body, the Polar Parcel sheet and
// the DK distribution CSV. Projections never modify the records they read.
package documents

import (
	"math"
	"strconv"
	"time"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/classify"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// Table is a header plus rows of cell values (string or int).
type Table struct {
	Header []string
	Rows   [][]any
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// CXReadyHeader is the column order of the CX-Ready template body.
var CXReadyHeader = []string{
	"INV NO.", "DELIVERY DATE", "STORE NO", "STORE NAME", "ADDRESS", "SUBURB",
	"STATE", "POSTCODE", "CARTONS", "PALLETS", "WEIGHT (KG)", "INV. VALUE",
	"COD", "TEMP", "COMMENT",
}

// Weight per meal in kilograms.
const mealWeightKg = 0.4

// CXReady maps CX records onto the template body. Every cell is text.
func CXReady(cx []manifest.Record) Table {
	t := Table{Header: CXReadyHeader}
	for _, r := range cx {
		t.Rows = append(t.Rows, []any{
			r.OrderID,
			shiftDate(r.Date, 1),
			"",
			r.DeliverTo,
			r.Address1,
			r.Address2,
			r.State,
			r.PostalCode,
			r.Labels.String(),
			"",
			weight(r.LineItems),
			"",
			"",
			"chilled",
			r.Instructions,
		})
	}
	logging.Documents("CX-Ready: %d rows", t.Len())
	return t
}

// shiftDate adds days to a dd/mm/yyyy date. Unparseable dates become blank.
func shiftDate(date string, days int) string {
	d, err := time.Parse(classify.DateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, days).Format(classify.DateLayout)
}

func weight(items manifest.Count) string {
	n, ok := items.Value()
	if !ok {
		return ""
	}
	w := math.Round(float64(n)*mealWeightKg*100) / 100
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// PolarParcelHeader is the header row of the Polar Parcel sheet.
var PolarParcelHeader = []string{
	"Seller Name", "Order No.", "Customer Name", "Address", "City",
	"Postcode", "Phone", "Email", "Delivery Notes", "Cartons",
}

// PolarPhoneColumn is the 1-based column of Phone in the Polar sheet.
const PolarPhoneColumn = 7

// PolarStates are the states delivered by Polar Parcel.
var PolarStates = map[string]bool{
	normalize.StateNewSouthWales:    true,
	normalize.StateCapitalTerritory: true,
}

// PolarParcel holds the banner date and the order table.
type PolarParcel struct {
	DeliveryDate string
	Table
}

// NewPolarParcel selects NSW and ACT orders from the full manifest. The
// banner delivery date is two days after now.
func NewPolarParcel(all []manifest.Record, p policy.GroupPolicy, now time.Time) PolarParcel {
	doc := PolarParcel{
		DeliveryDate: now.AddDate(0, 0, 2).Format(classify.DateLayout),
		Table:        Table{Header: PolarParcelHeader},
	}
	for _, r := range all {
		if !PolarStates[r.State] {
			continue
		}
		var cartons any = r.Labels.String()
		if n, ok := r.Labels.Value(); ok {
			cartons = n
		}
		doc.Rows = append(doc.Rows, []any{
			p.Label,
			r.OrderID,
			r.DeliverTo,
			r.Address1,
			r.Address2,
			r.PostalCode,
			r.Phone,
			r.Email,
			r.Instructions,
			cartons,
		})
	}
	logging.Documents("Polar Parcel: %d rows", doc.Len())
	return doc
}

// DKHeader is the column order of the DK distribution CSV.
var DKHeader = []string{
	"Order ID", "Delivery Date", "Time Window", "Notes",
	"Address 1", "Address 2", "Postal Code", "State", "Country",
	"Location", "Phone", "Instructions", "Email", "Delivery Type", "Volume",
}

// DKTimeWindow is the delivery window quoted to DK.
const DKTimeWindow = "7am - 6pm"

// DKDistribution joins DK orders with their manifest records. State is the
// raw province code and the delivery date is two days after now.
func DKDistribution(dk []manifest.Record, now time.Time) Table {
	date := now.AddDate(0, 0, 2).Format(classify.DateLayout)
	t := Table{Header: DKHeader}
	for _, r := range dk {
		t.Rows = append(t.Rows, []any{
			r.OrderID,
			date,
			DKTimeWindow,
			r.Instructions,
			r.Address1,
			r.Address2,
			r.PostalCode,
			r.Province,
			"Australia",
			r.Location,
			r.Phone,
			r.Instructions,
			r.Email,
			classify.DeliveryType(r.Tags),
			normalize.ToIntegerish(r.Labels.String()),
		})
	}
	logging.Documents("DK distribution: %d rows", t.Len())
	return t
}
