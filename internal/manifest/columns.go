package manifest

import "github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"

// Columns returns the manifest header for a group. City and Company appear
// only for groups that derive or carry them.
func Columns(p policy.GroupPolicy) []string {
	cols := []string{ColOrderID, ColDate, ColAddress1, ColAddress2, ColPostalCode, ColState, ColCountry}
	if p.DeriveCity {
		cols = append(cols, ColCity)
	}
	cols = append(cols, ColDeliverTo)
	if p.IncludeCompany {
		cols = append(cols, ColCompany)
	}
	return append(cols, ColPhone, ColTimeWindow, ColGroup, ColLabels, ColLineItems, ColEmail, ColInstructions)
}

// Without returns cols minus the named column.
func Without(cols []string, name string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != name {
			out = append(out, c)
		}
	}
	return out
}

// Cell returns the value of one column: a string, or an int for populated
// counts. Blank counts and unknown columns yield nil.
func (r Record) Cell(column string) any {
	switch column {
	case ColOrderID:
		return r.OrderID
	case ColDate:
		return r.Date
	case ColAddress1:
		return r.Address1
	case ColAddress2:
		return r.Address2
	case ColPostalCode:
		return r.PostalCode
	case ColState:
		return r.State
	case ColCountry:
		return r.Country
	case ColCity:
		return r.City
	case ColDeliverTo:
		return r.DeliverTo
	case ColCompany:
		return r.Company
	case ColPhone:
		return r.Phone
	case ColTimeWindow:
		return r.TimeWindow
	case ColGroup:
		return r.Group
	case ColLabels:
		return countCell(r.Labels)
	case ColLineItems:
		return countCell(r.LineItems)
	case ColEmail:
		return r.Email
	case ColInstructions:
		return r.Instructions
	default:
		return nil
	}
}

func countCell(c Count) any {
	if n, ok := c.Value(); ok {
		return n
	}
	return nil
}
