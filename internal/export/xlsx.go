// Package export serializes manifests and derived documents into spreadsheet
// and CSV artifacts and packs them into a single archive.
package export

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/documents"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
)

// ErrTemplateMissing is returned when the CX-Ready template cannot be found.
var ErrTemplateMissing = errors.New("export: CX-Ready template not found")

// ManifestSheet is the worksheet name of every carrier manifest.
const ManifestSheet = "Manifest"

// CXReadyFirstRow is the first template row that receives data.
const CXReadyFirstRow = 6

// numFmtText is the builtin "@" number format.
const numFmtText = 49

// Artifact is one finished output file.
type Artifact struct {
	Name string
	Data []byte
	Rows int
}

// Omission is an artifact that was skipped, with the reason.
type Omission struct {
	Name   string
	Reason string
}

// ManifestXLSX writes records under columns. Text columns are stored as
// strings and formatted as text.
func ManifestXLSX(name string, columns []string, records []manifest.Record) (Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ManifestSheet); err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", name, err)
	}
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: text style: %w", name, err)
	}

	for c, col := range columns {
		if err := setCell(f, ManifestSheet, c+1, 1, col); err != nil {
			return Artifact{}, fmt.Errorf("%s: %w", name, err)
		}
		if manifest.TextColumns[col] {
			letter, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return Artifact{}, err
			}
			if err := f.SetColStyle(ManifestSheet, letter, textStyle); err != nil {
				return Artifact{}, fmt.Errorf("%s: style %s: %w", name, col, err)
			}
		}
	}

	for r, rec := range records {
		for c, col := range columns {
			v := rec.Cell(col)
			if manifest.TextColumns[col] {
				s, _ := v.(string)
				if err := setText(f, ManifestSheet, c+1, r+2, s, textStyle); err != nil {
					return Artifact{}, fmt.Errorf("%s: %w", name, err)
				}
				continue
			}
			if err := setCell(f, ManifestSheet, c+1, r+2, v); err != nil {
				return Artifact{}, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return finish(f, name, len(records))
}

// PolarParcelXLSX writes the banner row, the header row and the orders from
// row 3, with the phone column as text.
func PolarParcelXLSX(name string, doc documents.PolarParcel) (Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: text style: %w", name, err)
	}
	if err := f.SetCellStr(sheet, "A1", "Delivery Date"); err != nil {
		return Artifact{}, err
	}
	if err := f.SetCellStr(sheet, "B1", doc.DeliveryDate); err != nil {
		return Artifact{}, err
	}
	for c, h := range doc.Header {
		if err := setCell(f, sheet, c+1, 2, h); err != nil {
			return Artifact{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	for r, row := range doc.Rows {
		for c, v := range row {
			if c+1 == documents.PolarPhoneColumn {
				s, _ := v.(string)
				if err := setText(f, sheet, c+1, r+3, s, textStyle); err != nil {
					return Artifact{}, fmt.Errorf("%s: %w", name, err)
				}
				continue
			}
			if err := setCell(f, sheet, c+1, r+3, v); err != nil {
				return Artifact{}, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return finish(f, name, doc.Len())
}

// CXReadyXLSX fills the template's active sheet from CXReadyFirstRow down.
// Cells inside merged ranges are left untouched. The header is not written;
// the template carries its own.
func CXReadyXLSX(name, templatePath string, tbl documents.Table) (Artifact, error) {
	if templatePath == "" {
		return Artifact{}, fmt.Errorf("%w: no template configured", ErrTemplateMissing)
	}
	if _, err := os.Stat(templatePath); err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, fmt.Errorf("%w: %s", ErrTemplateMissing, templatePath)
		}
		return Artifact{}, fmt.Errorf("stat template: %w", err)
	}

	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return Artifact{}, fmt.Errorf("open template %s: %w", templatePath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	merged, err := mergedCells(f, sheet)
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", name, err)
	}

	skipped := 0
	for r, row := range tbl.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, CXReadyFirstRow+r)
			if err != nil {
				return Artifact{}, err
			}
			if merged.contains(c+1, CXReadyFirstRow+r) {
				skipped++
				continue
			}
			if err := f.SetCellStr(sheet, cell, fmt.Sprint(v)); err != nil {
				return Artifact{}, fmt.Errorf("%s: %s: %w", name, cell, err)
			}
		}
	}
	if skipped > 0 {
		logging.ExportWarn("%s: left %d merged template cells untouched", name, skipped)
	}
	return finish(f, name, tbl.Len())
}

type cellRange struct {
	col1, row1, col2, row2 int
}

type mergedSet []cellRange

func (m mergedSet) contains(col, row int) bool {
	for _, r := range m {
		if col >= r.col1 && col <= r.col2 && row >= r.row1 && row <= r.row2 {
			return true
		}
	}
	return false
}

func mergedCells(f *excelize.File, sheet string) (mergedSet, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells: %w", err)
	}
	out := make(mergedSet, 0, len(cells))
	for _, mc := range cells {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, err
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, err
		}
		out = append(out, cellRange{col1: c1, row1: r1, col2: c2, row2: r2})
	}
	return out, nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	if v == nil {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

func setText(f *excelize.File, sheet string, col, row int, s string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, cell, s); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func finish(f *excelize.File, name string, rows int) (Artifact, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: write: %w", name, err)
	}
	logging.Export("wrote %s (%d rows, %d bytes)", name, rows, buf.Len())
	return Artifact{Name: name, Data: buf.Bytes(), Rows: rows}, nil
}
