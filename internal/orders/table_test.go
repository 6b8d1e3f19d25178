package orders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportA = ` Name ,Lineitem name,Lineitem quantity,Tags,Shipping Zip
#1001,Beef Lasagna,2,CM 15/03/2024,'3000
#1002,Chicken Curry,1,MC,2000.0
#1001,Pasta Bake,3,CM 15/03/2024,'3000
`

const exportB = "\ufeffName,Lineitem name,Lineitem quantity,Notes\n#1003,Beef Lasagna,4,leave at door\n"

func TestReadCSV_ConcatenatesSources(t *testing.T) {
	tbl, err := ReadCSV(
		Source{Name: "a.csv", Reader: strings.NewReader(exportA)},
		Source{Name: "b.csv", Reader: strings.NewReader(exportB)},
	)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 4)

	assert.Equal(t, []string{"Name", "Lineitem name", "Lineitem quantity", "Tags", "Shipping Zip", "Notes"}, tbl.Columns)
	assert.Equal(t, "#1001", tbl.Rows[0].Get(ColName), "header whitespace is trimmed")
	assert.Equal(t, "#1003", tbl.Rows[3].Get(ColName), "BOM is stripped")

	// Missing columns read as empty rather than failing.
	assert.Equal(t, "", tbl.Rows[3].Get(ColTags))
	assert.Contains(t, tbl.Columns, ColTags)
	assert.Equal(t, "", tbl.Rows[0].Get(ColBillingPhone))
}

func TestReadCSV_NoSources(t *testing.T) {
	_, err := ReadCSV()
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestReadCSV_EmptyFile(t *testing.T) {
	tbl, err := ReadCSV(Source{Name: "empty.csv", Reader: strings.NewReader("")})
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestReadCSV_ShortRecords(t *testing.T) {
	tbl, err := ReadCSV(Source{Name: "short.csv", Reader: strings.NewReader("Name,Tags,Notes\n#1,CM\n")})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "CM", tbl.Rows[0].Get(ColTags))
	assert.Equal(t, "", tbl.Rows[0].Get(ColNotes))
}

func TestGroupByOrder_StableFirstAppearance(t *testing.T) {
	rows := []Row{
		NewRow(map[string]string{ColName: "#2", ColTags: "MC"}),
		NewRow(map[string]string{ColName: "#1", ColTags: "CM"}),
		NewRow(map[string]string{ColName: " #2 ", ColTags: "CX"}),
		NewRow(map[string]string{ColName: "nan"}),
		NewRow(map[string]string{ColName: "#3"}),
	}

	groups, orphans := GroupByOrder(rows)
	require.Len(t, groups, 3)
	assert.Equal(t, "#2", groups[0].OrderID)
	assert.Equal(t, "#1", groups[1].OrderID)
	assert.Equal(t, "#3", groups[2].OrderID)
	assert.Len(t, groups[0].Rows, 2)
	assert.Len(t, orphans, 1)

	assert.Equal(t, "MC CX", groups[0].JoinedTags())
	assert.Equal(t, "", groups[2].JoinedTags())
	for _, g := range groups {
		assert.NotEmpty(t, g.Rows, "no group is ever created without rows")
	}
}

func TestGroup_FirstNonEmpty(t *testing.T) {
	g := Group{OrderID: "#1", Rows: []Row{
		NewRow(map[string]string{ColShipCompany: "nan"}),
		NewRow(map[string]string{ColShipCompany: " Acme Gym "}),
	}}
	assert.Equal(t, "Acme Gym", g.FirstNonEmpty(ColShipCompany))
	assert.Equal(t, "", g.FirstNonEmpty(ColShipName))
}
