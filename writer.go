// Record writing sessions.
//
// A Writer is bound to one record type's schema at open time and emits the
// header row before any data row. Append sessions revalidate the existing
// file's header against the schema instead, so a file never carries two
// headers. Rows are buffered by the underlying CSV writer; Close flushes
// and finalizes the sink on every path.
package tabrec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/oleg578/swiftcsv"
)

// Writer writes typed records of T as delimited text rows. Not safe for
// concurrent use.
type Writer[T any] struct {
	schema *Schema
	fields []Field // output columns, in header order
	rows   *swiftcsv.Writer
	closer io.Closer
	closed bool
}

// OpenWriter creates (or truncates) the file at path, binds it to T's
// schema, and writes the header row. Paths ending in .gz or .zst are
// compressed transparently. The returned Writer owns the file; Close
// flushes and releases it.
func OpenWriter[T any](path string, cfg Config) (*Writer[T], error) {
	dst, err := openSink(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, cfg.SyncWrites)
	if err != nil {
		return nil, err
	}
	w, err := newWriter[T](dst, cfg, true)
	if err != nil {
		dst.Close()
		return nil, err
	}
	w.closer = dst
	return w, nil
}

// OpenAppend opens an existing file for appending. The file must be
// non-empty and its header must equal the writer's output columns exactly,
// in order; the header is not rewritten. Compressed paths are not
// appendable.
func OpenAppend[T any](path string, cfg Config) (*Writer[T], error) {
	if compressed(path) {
		return nil, fmt.Errorf("%w: cannot append to compressed file %s", ErrConfig, path)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	schema, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	fields, err := schema.subset(cfg.IncludeFields, cfg.ExcludeFields)
	if err != nil {
		return nil, err
	}

	if err := checkExistingHeader(path, cfg, fields); err != nil {
		return nil, err
	}

	dst, err := openSink(path, os.O_APPEND|os.O_WRONLY, cfg.SyncWrites)
	if err != nil {
		return nil, err
	}
	rows := swiftcsv.NewWriter(dst)
	rows.Comma = cfg.Delimiter
	return &Writer[T]{schema: schema, fields: fields, rows: rows, closer: dst}, nil
}

// NewWriter binds an already-open stream to T's schema and writes the
// header row. The stream is not closed by the Writer; the caller keeps
// ownership but must still call Close (or Flush) to drain the row buffer.
func NewWriter[T any](dst io.Writer, cfg Config) (*Writer[T], error) {
	return newWriter[T](dst, cfg, true)
}

func newWriter[T any](dst io.Writer, cfg Config, writeHeader bool) (*Writer[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	schema, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	fields, err := schema.subset(cfg.IncludeFields, cfg.ExcludeFields)
	if err != nil {
		return nil, err
	}

	rows := swiftcsv.NewWriter(dst)
	rows.Comma = cfg.Delimiter
	w := &Writer[T]{schema: schema, fields: fields, rows: rows}

	if writeHeader {
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = f.Name
		}
		if err := rows.Write(header); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	return w, nil
}

// checkExistingHeader confirms that the file at path already carries a
// header equal to the output columns. Ordering and presence must match
// exactly regardless of the session's read-side header mode.
func checkExistingHeader(path string, cfg Config, fields []Field) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: cannot append to empty file %s", ErrNoHeader, path)
	}

	br := bufio.NewReader(f)
	if _, err := skipPreface(br, cfg.CommentPrefix); err != nil {
		return err
	}
	rows := swiftcsv.NewReader(br)
	rows.Comma = cfg.Delimiter
	header, err := rows.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNoHeader
		}
		return fmt.Errorf("reading header: %w", err)
	}

	_, err = buildColumns(fields, header, HeaderStrict, false)
	return err
}

// Schema returns the schema the writer is bound to.
func (w *Writer[T]) Schema() *Schema { return w.schema }

// Write serializes one record as a data row. Each output field is rendered
// by the converter bound at schema derivation; a field that cannot be
// rendered fails with a *FieldError and nothing is emitted for the record.
func (w *Writer[T]) Write(rec T) error {
	if w.rows == nil || w.closed {
		return ErrClosed
	}

	rv := reflect.ValueOf(rec)
	cells := make([]string, len(w.fields))
	for i, f := range w.fields {
		s, err := f.conv.format(rv.Field(f.index))
		if err != nil {
			return &FieldError{Field: f.Name, Err: err}
		}
		cells[i] = s
	}
	return w.rows.Write(cells)
}

// WriteAll writes records in order, stopping at the first error.
func (w *Writer[T]) WriteAll(recs []T) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains buffered rows to the underlying sink without closing it.
func (w *Writer[T]) Flush() error {
	if w.rows == nil || w.closed {
		return ErrClosed
	}
	return w.rows.Flush()
}

// Close flushes buffered rows and finalizes the sink. All rows written
// before Close are durable once it returns. Closing an already-closed
// writer is a no-op. Writers built with NewWriter leave the caller's stream
// open but still flush.
func (w *Writer[T]) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.rows != nil {
		err = w.rows.Flush()
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
