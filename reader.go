// Record reading sessions.
//
// A Reader is bound to one record type's schema at open time. The header is
// read and validated before the constructor returns, so a successfully
// opened Reader is always in the open state and every Read decodes through
// the column mapping fixed at open. Rows are never buffered past the one
// being returned, and the underlying source advances monotonically; a fresh
// session is required to re-read.
package tabrec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"reflect"

	"github.com/oleg578/swiftcsv"
)

// Reader reads typed records of T from a delimited text source. Not safe
// for concurrent use.
type Reader[T any] struct {
	schema  *Schema
	rows    *swiftcsv.Reader
	cols    []int // schema field index -> header column index
	width   int   // header column count
	preface []string
	row     int // data rows consumed
	closer  io.Closer
	closed  bool
}

// OpenReader opens the file at path and binds it to T's schema. Paths
// ending in .gz or .zst are decompressed transparently. The returned Reader
// owns the file; Close releases it.
func OpenReader[T any](path string, cfg Config) (*Reader[T], error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader[T](src, cfg)
	if err != nil {
		src.Close()
		return nil, err
	}
	r.closer = src
	return r, nil
}

// NewReader binds an already-open stream to T's schema, validating the
// header eagerly. The stream is not closed by the Reader; the caller keeps
// ownership.
func NewReader[T any](src io.Reader, cfg Config) (*Reader[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	schema, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(src)
	preface, err := skipPreface(br, cfg.CommentPrefix)
	if err != nil {
		return nil, err
	}

	rows := swiftcsv.NewReader(br)
	rows.Comma = cfg.Delimiter

	header, err := rows.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := buildColumns(schema.fields, header, cfg.HeaderMode, cfg.AllowExtraColumns)
	if err != nil {
		return nil, err
	}

	return &Reader[T]{
		schema:  schema,
		rows:    rows,
		cols:    cols,
		width:   len(header),
		preface: preface,
	}, nil
}

// Schema returns the schema the reader is bound to.
func (r *Reader[T]) Schema() *Schema { return r.schema }

// Preface returns the comment and blank lines that preceded the header,
// with line endings stripped.
func (r *Reader[T]) Preface() []string { return r.preface }

// Read returns the next record. It returns io.EOF when the source is
// exhausted and a *RowError when a row has the wrong column count or a cell
// fails coercion. After a *RowError the session remains open and positioned
// at the following row, so callers may skip bad rows by calling Read again.
func (r *Reader[T]) Read() (T, error) {
	var zero T
	if r.rows == nil || r.closed {
		return zero, ErrClosed
	}

	rec, err := r.rows.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return zero, io.EOF
		}
		r.row++
		if errors.Is(err, swiftcsv.ErrorFieldCount) {
			return zero, &RowError{
				Row: r.row,
				Err: fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(rec), r.width),
			}
		}
		return zero, &RowError{Row: r.row, Err: err}
	}
	r.row++

	if len(rec) != r.width {
		return zero, &RowError{
			Row: r.row,
			Err: fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(rec), r.width),
		}
	}

	var out T
	rv := reflect.ValueOf(&out).Elem()
	for i, f := range r.schema.fields {
		cell := rec[r.cols[i]]
		v, err := f.conv.parse(cell)
		if err != nil {
			return zero, &RowError{Row: r.row, Field: f.Name, Value: cell, Err: err}
		}
		rv.Field(f.index).Set(v)
	}
	return out, nil
}

// ReadAll reads every remaining record, stopping at the first error.
func (r *Reader[T]) ReadAll() ([]T, error) {
	var out []T
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// All yields the remaining records lazily. Iteration stops at the first
// error, which is yielded with a zero record. Callers can break early; the
// session stays open either way and Close remains the caller's job.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Close releases the underlying source. Closing an already-closed reader is
// a no-op. Readers built with NewReader leave the caller's stream open.
func (r *Reader[T]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
