package models

import (
	"time"

	"github.com/synthtab/synthtab/pkg/errors"
)

// ColumnKind is the declared semantic kind of a column.
type ColumnKind string

const (
	KindInteger     ColumnKind = "integer"
	KindFloat       ColumnKind = "float"
	KindCategorical ColumnKind = "categorical"
	KindText        ColumnKind = "text"
	KindBoolean     ColumnKind = "boolean"
	KindDatetime    ColumnKind = "datetime"
)

// IsNumeric reports whether the kind carries numeric cell values.
func (k ColumnKind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

// Column is an ordered sequence of scalar values of uniform declared kind.
// Cell values are float64, string, bool or time.Time; nil marks a null.
type Column struct {
	Name   string        `json:"name"`
	Kind   ColumnKind    `json:"kind"`
	Values []interface{} `json:"values"`
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	count := 0
	for _, v := range c.Values {
		if v == nil {
			count++
		}
	}
	return count
}

// Floats returns the non-null numeric values and their row indices.
func (c *Column) Floats() ([]float64, []int) {
	values := make([]float64, 0, len(c.Values))
	indices := make([]int, 0, len(c.Values))
	for i, v := range c.Values {
		if f, ok := v.(float64); ok {
			values = append(values, f)
			indices = append(indices, i)
		}
	}
	return values, indices
}

// Strings returns the non-null values rendered as strings and their row
// indices. Numeric and boolean cells are not converted; only string cells
// participate.
func (c *Column) Strings() ([]string, []int) {
	values := make([]string, 0, len(c.Values))
	indices := make([]int, 0, len(c.Values))
	for i, v := range c.Values {
		if s, ok := v.(string); ok {
			values = append(values, s)
			indices = append(indices, i)
		}
	}
	return values, indices
}

// UniqueNonNull returns the distinct non-null values in first-seen order.
func (c *Column) UniqueNonNull() []interface{} {
	seen := make(map[interface{}]struct{}, len(c.Values))
	unique := make([]interface{}, 0)
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		key := cellKey(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	values := make([]interface{}, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Table is an ordered sequence of named columns with equal row counts.
// Tables are treated as immutable once produced by a stage; stages return a
// new Table rather than mutating input.
type Table struct {
	Columns []*Column `json:"columns"`
}

// NewTable builds a table from columns and checks the shape.
func NewTable(columns []*Column) (*Table, error) {
	t := &Table{Columns: columns}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the table is non-empty and rectangular.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return errors.NewSchemaError(errors.CodeEmptyTable, "table has no columns")
	}
	rows := len(t.Columns[0].Values)
	for _, col := range t.Columns[1:] {
		if len(col.Values) != rows {
			return errors.NewSchemaError(errors.CodeRaggedTable, "column lengths differ").
				WithContext("column", col.Name).
				WithContext("expected_rows", rows).
				WithContext("actual_rows", len(col.Values))
		}
	}
	return nil
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// NumericColumnNames returns the names of integer and float columns in order.
func (t *Table) NumericColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col.Kind.IsNumeric() {
			names = append(names, col.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	columns := make([]*Column, len(t.Columns))
	for i, col := range t.Columns {
		columns[i] = col.Clone()
	}
	return &Table{Columns: columns}
}

// Row returns the cell values of one row in column order.
func (t *Table) Row(i int) []interface{} {
	row := make([]interface{}, len(t.Columns))
	for j, col := range t.Columns {
		row[j] = col.Values[i]
	}
	return row
}

// cellKey normalizes a cell value into a comparable map key.
func cellKey(v interface{}) interface{} {
	if ts, ok := v.(time.Time); ok {
		return ts.UnixNano()
	}
	return v
}
