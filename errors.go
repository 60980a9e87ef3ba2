// Package tabrec provides typed reading and writing of delimited tabular
// text (CSV/TSV) against a declared record struct. A schema — the ordered
// list of column names and field types — is derived once per struct type by
// reflection. Readers validate a file's header against the schema before
// yielding any rows, then coerce each cell to its field's declared type and
// return fully constructed record values. Writers emit a header row from
// the schema and serialize one record per row.
//
// Row-level tokenizing and quoting is delegated to an external CSV library;
// this package only consumes ordered text fields. Files ending in .gz or
// .zst are compressed and decompressed transparently when opened by path.
// Sessions hold an open resource and must be closed; Close is idempotent
// and safe on every exit path.
package tabrec

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// distinguish schema problems (ErrNotStruct, ErrNoFields, ErrFieldType,
// ErrDuplicateColumn) from file problems (ErrHeader, ErrNoHeader,
// ErrRowWidth) and session misuse (ErrClosed, ErrConfig).
var (
	ErrNotStruct       = errors.New("record type is not a struct")
	ErrNoFields        = errors.New("record type has no usable fields")
	ErrFieldType       = errors.New("unsupported field type")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrHeader          = errors.New("file header does not match schema")
	ErrNoHeader        = errors.New("missing header row")
	ErrRowWidth        = errors.New("wrong number of columns")
	ErrClosed          = errors.New("session is not open")
	ErrConfig          = errors.New("invalid configuration")
)

// SchemaError reports that a record type cannot be used as a schema source.
// The underlying cause is one of the schema sentinel errors, possibly
// wrapped with the offending field.
type SchemaError struct {
	Type string // Go type that failed schema derivation
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema for %s: %v", e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// HeaderError reports a mismatch between a file's header row and the
// expected schema columns under the configured validation mode. Missing
// lists schema columns absent from the header; Extra lists header columns
// the schema does not declare. When both are empty the columns exist but
// are out of order (strict mode only).
type HeaderError struct {
	Expected []string
	Actual   []string
	Missing  []string
	Extra    []string
}

func (e *HeaderError) Error() string {
	var b strings.Builder
	b.WriteString(ErrHeader.Error())
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; unexpected columns: %s", strings.Join(e.Extra, ", "))
	}
	if len(e.Missing) == 0 && len(e.Extra) == 0 {
		b.WriteString("; columns out of order")
	}
	fmt.Fprintf(&b, " (want [%s], got [%s])",
		strings.Join(e.Expected, " "), strings.Join(e.Actual, " "))
	return b.String()
}

func (e *HeaderError) Unwrap() error { return ErrHeader }

// RowError reports a data row that could not be parsed: wrong column count
// or a cell that failed coercion to its field's declared type. Row is the
// 1-based index of the data row, counting from the first row after the
// header. Field and Value identify the offending cell when the failure is
// a coercion failure.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// FieldError reports a record field whose value could not be rendered to
// text during a write.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %q: cannot serialize: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
