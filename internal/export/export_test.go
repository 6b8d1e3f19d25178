package export

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/documents"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

func openXLSX(t *testing.T, a Artifact) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func assertTextCell(t *testing.T, f *excelize.File, sheet, cell string) {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	assert.Equal(t, numFmtText, style.NumFmt, "%s should be formatted as text", cell)
}

func TestManifestXLSX(t *testing.T) {
	cols := manifest.Columns(policy.CleanEats())
	records := []manifest.Record{
		{OrderID: "#1", PostalCode: "0800", Phone: "0412345678", State: "Victoria", Labels: manifest.CountOf(2), LineItems: manifest.CountOf(30)},
		{OrderID: "CXMANIFEST", Labels: manifest.BlankCount(), LineItems: manifest.BlankCount()},
	}
	a, err := ManifestXLSX("CM_Manifest.xlsx", cols, records)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Rows)

	f := openXLSX(t, a)
	rows, err := f.GetRows(ManifestSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, cols, rows[0])

	idx := func(name string) int {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}
	assert.Equal(t, "0412345678", rows[1][idx(manifest.ColPhone)], "leading zero survives")
	assert.Equal(t, "0800", rows[1][idx(manifest.ColPostalCode)])
	assert.Equal(t, "2", rows[1][idx(manifest.ColLabels)])

	phoneCell, err := excelize.CoordinatesToCellName(idx(manifest.ColPhone)+1, 2)
	require.NoError(t, err)
	assertTextCell(t, f, ManifestSheet, phoneCell)

	labelsCell, err := excelize.CoordinatesToCellName(idx(manifest.ColLabels)+1, 3)
	require.NoError(t, err)
	v, err := f.GetCellValue(ManifestSheet, labelsCell)
	require.NoError(t, err)
	assert.Equal(t, "", v, "blank counts stay blank")
}

func TestPolarParcelXLSX(t *testing.T) {
	doc := documents.PolarParcel{
		DeliveryDate: "01/01/2025",
		Table: documents.Table{
			Header: documents.PolarParcelHeader,
			Rows:   [][]any{{"Clean Eats Australia", "#2", "Alex", "1 Pitt St", "Sydney", "2000", "0412345678", "", "", 3}},
		},
	}
	a, err := PolarParcelXLSX("Polar_Parcel_Manifest.xlsx", doc)
	require.NoError(t, err)

	f := openXLSX(t, a)
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Delivery Date", "01/01/2025"}, rows[0])
	assert.Equal(t, documents.PolarParcelHeader, rows[1])
	assert.Equal(t, "0412345678", rows[2][6])
	assert.Equal(t, "3", rows[2][9])
	assertTextCell(t, f, sheet, "G3")
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellStr("Sheet1", "A5", "INV NO."))
	require.NoError(t, f.SetCellStr("Sheet1", "B6", "keep"))
	require.NoError(t, f.MergeCell("Sheet1", "B6", "C7"))
	path := filepath.Join(t.TempDir(), "cx_manifest_template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestCXReadyXLSX_SkipsMergedCells(t *testing.T) {
	tbl := documents.Table{
		Header: documents.CXReadyHeader,
		Rows: [][]any{
			{"#1", "01/01/2025", "", "Sam", "5 Chapel St"},
			{"#2", "02/01/2025", "", "Kim", "9 High St"},
		},
	}
	a, err := CXReadyXLSX("CX_Ready_Manifest.xlsx", writeTemplate(t), tbl)
	require.NoError(t, err)

	f := openXLSX(t, a)
	get := func(cell string) string {
		v, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "INV NO.", get("A5"), "template content is preserved")
	assert.Equal(t, "#1", get("A6"))
	assert.Equal(t, "keep", get("B6"), "merged cell untouched")
	assert.Equal(t, "Sam", get("D6"))
	assert.Equal(t, "#2", get("A7"))
	assert.Equal(t, "", get("C7"))
	assert.Equal(t, "9 High St", get("E7"))
}

func TestCXReadyXLSX_MissingTemplate(t *testing.T) {
	_, err := CXReadyXLSX("CX_Ready_Manifest.xlsx", filepath.Join(t.TempDir(), "nope.xlsx"), documents.Table{})
	assert.ErrorIs(t, err, ErrTemplateMissing)

	_, err = CXReadyXLSX("CX_Ready_Manifest.xlsx", "", documents.Table{})
	assert.ErrorIs(t, err, ErrTemplateMissing)
}

func TestCSVWithBOM(t *testing.T) {
	tbl := documents.Table{
		Header: []string{"Order ID", "Volume"},
		Rows:   [][]any{{"#1", "4"}, {"#2, rear", nil}},
	}
	a, err := CSVWithBOM("DK_Manifest.csv", tbl)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(a.Data, utf8BOM))
	assert.Equal(t, "Order ID,Volume\n#1,4\n\"#2, rear\",\n", string(a.Data[len(utf8BOM):]))
}

func TestPackager(t *testing.T) {
	p := NewPackager(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, p.Add(Artifact{Name: "a.csv", Data: []byte("x,y\n"), Rows: 1}))
	require.NoError(t, p.Add(Artifact{Name: "b.csv", Data: []byte("z\n")}))
	assert.Error(t, p.Add(Artifact{Name: "a.csv", Data: []byte("dup")}))
	assert.Error(t, p.Add(Artifact{Name: "empty.csv"}))

	data, err := p.Close()
	require.NoError(t, err)
	assert.Error(t, p.Add(Artifact{Name: "late.csv", Data: []byte("x")}))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.csv", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "x,y\n", string(body))

	assert.Equal(t, []FileInfo{{Name: "a.csv", Size: 4, Rows: 1}, {Name: "b.csv", Size: 2}}, p.Files())
}
