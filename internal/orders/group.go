package orders

import (
	"strings"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
)

// Group is every line item that shares one order identifier.
type Group struct {
	OrderID string
	Rows    []Row
}

// First is the representative row for order-level fields.
func (g Group) First() Row {
	return g.Rows[0]
}

// JoinedTags concatenates the tag text of all rows, space separated.
func (g Group) JoinedTags() string {
	parts := make([]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		if tags := normalize.Clean(r.Get(ColTags)); tags != "" {
			parts = append(parts, tags)
		}
	}
	return strings.Join(parts, " ")
}

// FirstNonEmpty returns the first row value for column that is not null-like.
func (g Group) FirstNonEmpty(column string) string {
	for _, r := range g.Rows {
		if v := normalize.Clean(r.Get(column)); v != "" {
			return v
		}
	}
	return ""
}

// GroupByOrder splits rows by trimmed order id, preserving first-appearance
// order. Rows without an order id are returned separately so callers can
// report them.
func GroupByOrder(rows []Row) (groups []Group, orphans []Row) {
	index := make(map[string]int)
	for _, r := range rows {
		id := normalize.Clean(r.Get(ColName))
		if id == "" {
			logging.IngestDebug("row without order id dropped (item %q)", r.Get(ColLineItemName))
			orphans = append(orphans, r)
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{OrderID: id})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups, orphans
}
