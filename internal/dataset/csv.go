package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// datetimeLayouts are the layouts tried during cell parsing, most specific
// first.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// ReadOptions configures CSV materialization.
type ReadOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune `json:"comma"`
	// NullTokens are treated as null in addition to the empty string.
	NullTokens []string `json:"null_tokens"`
}

// DefaultReadOptions returns the options used when nil is supplied.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		Comma:      ',',
		NullTokens: []string{"NA", "N/A", "null", "NULL", "nan", "NaN"},
	}
}

// ReadCSV materializes a typed Table from CSV. The first record is the
// header. Ragged records fail the whole read with a schema error; the table
// is never partially materialized.
func ReadCSV(r io.Reader, opts *ReadOptions) (*models.Table, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeSchema, errors.CodeRaggedTable, "failed to parse CSV input")
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError(errors.CodeEmptyTable, "CSV input has no header record")
	}

	header := records[0]
	if len(header) == 0 {
		return nil, errors.NewSchemaError(errors.CodeEmptyTable, "CSV header has no fields")
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.NewSchemaError(errors.CodeRaggedTable, "record width differs from header").
				WithContext("record", i+1).
				WithContext("expected_fields", len(header)).
				WithContext("actual_fields", len(record))
		}
	}

	nullSet := make(map[string]struct{}, len(opts.NullTokens)+1)
	nullSet[""] = struct{}{}
	for _, token := range opts.NullTokens {
		nullSet[token] = struct{}{}
	}

	columns := make([]*models.Column, len(header))
	for j, name := range header {
		raw := make([]string, 0, len(records)-1)
		nulls := make([]bool, 0, len(records)-1)
		for _, record := range records[1:] {
			cell := strings.TrimSpace(record[j])
			_, isNull := nullSet[cell]
			raw = append(raw, cell)
			nulls = append(nulls, isNull)
		}
		columns[j] = inferColumn(strings.TrimSpace(name), raw, nulls)
	}

	return models.NewTable(columns)
}

// inferColumn decides the cell representation for one raw column. String
// columns are loaded as text; the classifier refines text vs categorical.
func inferColumn(name string, raw []string, nulls []bool) *models.Column {
	nonNull := 0
	numeric := 0
	integral := 0
	boolean := 0
	datetime := 0

	for i, cell := range raw {
		if nulls[i] {
			continue
		}
		nonNull++
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			numeric++
			if f == math.Trunc(f) && !strings.ContainsAny(cell, ".eE") {
				integral++
			}
			continue
		}
		if isBoolToken(cell) {
			boolean++
			continue
		}
		if _, ok := parseDatetime(cell); ok {
			datetime++
		}
	}

	values := make([]interface{}, len(raw))
	kind := models.KindText

	switch {
	case nonNull > 0 && numeric == nonNull:
		kind = models.KindFloat
		if integral == nonNull {
			kind = models.KindInteger
		}
		for i, cell := range raw {
			if nulls[i] {
				continue
			}
			f, _ := strconv.ParseFloat(cell, 64)
			values[i] = f
		}
	case nonNull > 0 && boolean == nonNull:
		kind = models.KindBoolean
		for i, cell := range raw {
			if nulls[i] {
				continue
			}
			values[i] = parseBoolToken(cell)
		}
	case nonNull > 0 && datetime == nonNull:
		kind = models.KindDatetime
		for i, cell := range raw {
			if nulls[i] {
				continue
			}
			ts, _ := parseDatetime(cell)
			values[i] = ts
		}
	default:
		for i, cell := range raw {
			if nulls[i] {
				continue
			}
			values[i] = cell
		}
	}

	return &models.Column{Name: name, Kind: kind, Values: values}
}

func isBoolToken(cell string) bool {
	switch strings.ToLower(cell) {
	case "true", "false":
		return true
	}
	return false
}

func parseBoolToken(cell string) bool {
	return strings.EqualFold(cell, "true")
}

func parseDatetime(cell string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// WriteCSV renders a table as CSV with a header record. Nulls are written as
// empty fields.
func WriteCSV(w io.Writer, table *models.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(table.ColumnNames()); err != nil {
		return err
	}

	for i := 0; i < table.Rows(); i++ {
		record := make([]string, len(table.Columns))
		for j, col := range table.Columns {
			record[j] = formatCell(col.Values[i], col.Kind)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(v interface{}, kind models.ColumnKind) string {
	if v == nil {
		return ""
	}
	switch value := v.(type) {
	case float64:
		if kind == models.KindInteger {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format(time.RFC3339)
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}
