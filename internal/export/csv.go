package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/documents"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
)

// utf8BOM lets spreadsheet tools detect the encoding of CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWithBOM writes the table as UTF-8 CSV prefixed with a byte-order mark.
func CSVWithBOM(name string, tbl documents.Table) (Artifact, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(tbl.Header); err != nil {
		return Artifact{}, fmt.Errorf("%s: header: %w", name, err)
	}
	for i, row := range tbl.Rows {
		rec := make([]string, len(row))
		for c, v := range row {
			if v != nil {
				rec[c] = fmt.Sprint(v)
			}
		}
		if err := w.Write(rec); err != nil {
			return Artifact{}, fmt.Errorf("%s: row %d: %w", name, i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Artifact{}, fmt.Errorf("%s: flush: %w", name, err)
	}
	logging.Export("wrote %s (%d rows, %d bytes)", name, tbl.Len(), buf.Len())
	return Artifact{Name: name, Data: buf.Bytes(), Rows: tbl.Len()}, nil
}
