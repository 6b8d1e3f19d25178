// Package orders ingests e-commerce order exports and groups their line items
// by order. Column lookups are forgiving: a column the export does not carry
// reads as an empty string on every row.
package orders

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
)

// Column names used by the Shopify-style orders_export.
const (
	ColName         = "Name"
	ColLineItemName = "Lineitem name"
	ColLineItemQty  = "Lineitem quantity"
	ColTags         = "Tags"
	ColNotes        = "Notes"
	ColEmail        = "Email"
	ColShipName     = "Shipping Name"
	ColShipCompany  = "Shipping Company"
	ColShipStreet   = "Shipping Street"
	ColShipCity     = "Shipping City"
	ColShipZip      = "Shipping Zip"
	ColShipProvince = "Shipping Province"
	ColShipCountry  = "Shipping Country"
	ColShipPhone    = "Shipping Phone"
	ColBillingPhone = "Billing Phone"
	ColPhone        = "Phone"
)

// ErrNoInput is returned when a run is started without any source.
var ErrNoInput = errors.New("orders: no input sources")

// Source is one uploaded export.
type Source struct {
	Name   string
	Reader io.Reader
}

// FileSource opens path as a Source. The caller closes the returned file.
func FileSource(path string) (Source, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Source{Name: path, Reader: f}, f, nil
}

// Row is a single line item. Values are keyed by trimmed header name.
type Row struct {
	values map[string]string
}

// NewRow builds a row from a column->value map. Intended for tests and
// callers that already hold parsed data.
func NewRow(values map[string]string) Row {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[strings.TrimSpace(k)] = v
	}
	return Row{values: m}
}

// Get returns the raw value of column, or "" if the column is absent.
func (r Row) Get(column string) string {
	return r.values[column]
}

// Table is the concatenation of all rows from one or more exports, in input
// order.
type Table struct {
	Columns []string
	Rows    []Row
}

// ReadCSV parses every source in order and concatenates their rows. Header
// names are trimmed. Columns present in one file but not another read as
// empty in the rows of the file that lacks them.
func ReadCSV(sources ...Source) (*Table, error) {
	if len(sources) == 0 {
		return nil, ErrNoInput
	}

	t := &Table{}
	seen := make(map[string]struct{})
	for _, src := range sources {
		header, rows, err := readOne(src)
		if err != nil {
			return nil, err
		}
		for _, h := range header {
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				t.Columns = append(t.Columns, h)
			}
		}
		t.Rows = append(t.Rows, rows...)
		logging.Ingest("read %d rows from %s", len(rows), src.Name)
	}
	return t, nil
}

func readOne(src Source) ([]string, []Row, error) {
	r := csv.NewReader(stripBOM(src.Reader))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		logging.Get(logging.CategoryIngest).Warn("%s is empty", src.Name)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", src.Name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s line %d: %w", src.Name, line, err)
		}
		values := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				values[h] = rec[i]
			} else {
				values[h] = ""
			}
		}
		rows = append(rows, Row{values: values})
	}
	return header, rows, nil
}

// stripBOM drops a UTF-8 byte-order mark that spreadsheet tools prepend.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return io.MultiReader(bytes.NewReader(buf[:n]), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf), r)
}
