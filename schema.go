// Schema derivation from record struct types.
//
// A schema is the ordered list of column names and field types for one
// struct type, derived once by reflection and cached for the process
// lifetime. A struct's field layout cannot change, so the cache never
// invalidates; recomputation is merely wasteful and LoadOrStore keeps
// concurrent derivation idempotent.
package tabrec

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Field describes one column of a schema: its name in the header row, the
// declared Go type, and the converter bound at derivation time.
type Field struct {
	Name string       // Column name (tag name or struct field name)
	Type reflect.Type // Declared field type

	index int
	conv  *converter
}

// Schema is the ordered column list derived from a record struct type. It
// is immutable after derivation and safe for concurrent use.
type Schema struct {
	typ    reflect.Type
	fields []Field
	byName map[string]int
}

var schemas sync.Map // reflect.Type -> *Schema

// SchemaOf derives (or returns the cached) schema for record type T.
//
// Exported struct fields become columns in declaration order. The column
// name comes from the `tabrec:"name"` tag when present, otherwise the field
// name; a tag of "-" skips the field. The tag option "json" stores the
// field as a JSON cell, permitting slices, maps, and nested structs.
func SchemaOf[T any]() (*Schema, error) {
	return schemaOf(reflect.TypeOf((*T)(nil)).Elem())
}

func schemaOf(t reflect.Type) (*Schema, error) {
	if s, ok := schemas.Load(t); ok {
		return s.(*Schema), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t.String(), Err: ErrNotStruct}
	}

	s := &Schema{typ: t, byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, asJSON := parseTag(sf.Tag.Get("tabrec"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		var conv *converter
		if asJSON {
			conv = jsonConverter(sf.Type)
		} else {
			var err error
			conv, err = converterFor(sf.Type)
			if err != nil {
				return nil, &SchemaError{Type: t.String(), Err: fmt.Errorf("field %s: %w", sf.Name, err)}
			}
		}

		if _, dup := s.byName[name]; dup {
			return nil, &SchemaError{Type: t.String(), Err: fmt.Errorf("%w: %s", ErrDuplicateColumn, name)}
		}
		s.byName[name] = len(s.fields)
		s.fields = append(s.fields, Field{Name: name, Type: sf.Type, index: i, conv: conv})
	}
	if len(s.fields) == 0 {
		return nil, &SchemaError{Type: t.String(), Err: ErrNoFields}
	}

	cached, _ := schemas.LoadOrStore(t, s)
	return cached.(*Schema), nil
}

// Type returns the record struct type the schema was derived from.
func (s *Schema) Type() reflect.Type { return s.typ }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.fields) }

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the column descriptors in schema order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// subset resolves the writer's include/exclude column options against the
// schema. Include keeps only the listed columns in the order given; exclude
// drops the listed columns. At most one may be set, and every listed name
// must be a schema column.
func (s *Schema) subset(include, exclude []string) ([]Field, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("%w: IncludeFields and ExcludeFields are mutually exclusive", ErrConfig)
	}

	switch {
	case len(include) > 0:
		fields := make([]Field, 0, len(include))
		for _, name := range include {
			i, ok := s.byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: included column %q is not in schema %s", ErrConfig, name, s.typ)
			}
			fields = append(fields, s.fields[i])
		}
		return fields, nil

	case len(exclude) > 0:
		drop := make(map[string]bool, len(exclude))
		for _, name := range exclude {
			if _, ok := s.byName[name]; !ok {
				return nil, fmt.Errorf("%w: excluded column %q is not in schema %s", ErrConfig, name, s.typ)
			}
			drop[name] = true
		}
		var fields []Field
		for _, f := range s.fields {
			if !drop[f.Name] {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: ExcludeFields removes every column", ErrConfig)
		}
		return fields, nil
	}

	return s.fields, nil
}

// parseTag splits a `tabrec` struct tag into the column name and options.
func parseTag(tag string) (name string, asJSON bool) {
	name, rest, _ := strings.Cut(tag, ",")
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		if opt == "json" {
			asJSON = true
		}
	}
	return name, asJSON
}
