package ingest

import (
	"time"
)

// ColumnKind is the wire type of a non-symbol column.
type ColumnKind int

const (
	StringColumn ColumnKind = iota
	FloatColumn
	IntColumn
)

// Symbol is an indexed string tag on a row.
type Symbol struct {
	Name  string
	Value string
}

// Column is a typed payload value on a row. Only the field matching Kind is
// meaningful.
type Column struct {
	Name   string
	Kind   ColumnKind
	String string
	Float  float64
	Int    int64
}

// Row is a single line to be written to the database. Every row produced for
// a single publish carries the same Timestamp.
type Row struct {
	Table     string
	Symbols   []Symbol
	Columns   []Column
	Timestamp time.Time
}

// Symbol returns the value of the named symbol on the row.
func (r *Row) Symbol(name string) (string, bool) {
	for _, s := range r.Symbols {
		if s.Name == name {
			return s.Value, true
		}
	}
	return "", false
}

// Column returns the named column on the row.
func (r *Row) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

type rowBuilder struct {
	row Row
}

func newRow(table string, ts time.Time) *rowBuilder {
	return &rowBuilder{row: Row{Table: table, Timestamp: ts}}
}

func (b *rowBuilder) symbol(name, value string) *rowBuilder {
	b.row.Symbols = append(b.row.Symbols, Symbol{Name: name, Value: value})
	return b
}

func (b *rowBuilder) str(name, value string) *rowBuilder {
	b.row.Columns = append(b.row.Columns, Column{Name: name, Kind: StringColumn, String: value})
	return b
}

func (b *rowBuilder) float(name string, value float64) *rowBuilder {
	b.row.Columns = append(b.row.Columns, Column{Name: name, Kind: FloatColumn, Float: value})
	return b
}

func (b *rowBuilder) int(name string, value int64) *rowBuilder {
	b.row.Columns = append(b.row.Columns, Column{Name: name, Kind: IntColumn, Int: value})
	return b
}

// build validates every identifier used on the row before returning it.
func (b *rowBuilder) build() (Row, error) {
	if err := ValidateTableName(b.row.Table); err != nil {
		return Row{}, err
	}
	for _, s := range b.row.Symbols {
		if err := ValidateColumnName(s.Name); err != nil {
			return Row{}, err
		}
	}
	for _, c := range b.row.Columns {
		if err := ValidateColumnName(c.Name); err != nil {
			return Row{}, err
		}
	}
	return b.row, nil
}
