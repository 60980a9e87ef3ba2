// Cell coercion between field values and their textual representation.
//
// Each schema field is bound to one converter when the schema is derived;
// nothing is dispatched per cell. The built-in set covers strings, booleans,
// all integer widths, and floats. Pointer fields wrap their element's
// converter and map the empty cell to nil. Composite fields opt in to JSON
// cells via the `tabrec:"name,json"` tag. Any other type needs a converter
// registered with RegisterConverter before the schema is first derived.
package tabrec

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// converter pairs the text-to-value and value-to-text strategies for one
// field type. parse returns a value assignable to the field; format renders
// the field's current value to a single cell.
type converter struct {
	parse  func(s string) (reflect.Value, error)
	format func(v reflect.Value) (string, error)
}

// registry maps reflect.Type to *converter for user-registered and built-in
// special types. Read-mostly after init, so sync.Map fits.
var registry sync.Map

// RegisterConverter binds a custom text representation to type T. It must
// be called before the first schema is derived for any record type using T;
// schemas are cached per type and keep the converter chosen at derivation.
func RegisterConverter[T any](parse func(string) (T, error), format func(T) (string, error)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registry.Store(t, &converter{
		parse: func(s string) (reflect.Value, error) {
			v, err := parse(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(v), nil
		},
		format: func(v reflect.Value) (string, error) {
			return format(v.Interface().(T))
		},
	})
}

func init() {
	// time.Time ships as a pre-registered converter: RFC 3339 with
	// nanoseconds, which round-trips through time.Parse unchanged.
	RegisterConverter(
		func(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) },
		func(t time.Time) (string, error) { return t.Format(time.RFC3339Nano), nil },
	)
}

// converterFor selects the conversion strategy for a field type at schema
// derivation. Registered converters win over the built-in kinds.
func converterFor(t reflect.Type) (*converter, error) {
	if c, ok := registry.Load(t); ok {
		return c.(*converter), nil
	}

	if t.Kind() == reflect.Pointer {
		elem, err := converterFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				if s == "" {
					return reflect.Zero(t), nil
				}
				v, err := elem.parse(s)
				if err != nil {
					return reflect.Value{}, err
				}
				p := reflect.New(t.Elem())
				p.Elem().Set(v)
				return p, nil
			},
			format: func(v reflect.Value) (string, error) {
				if v.IsNil() {
					return "", nil
				}
				return elem.format(v.Elem())
			},
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				return reflect.ValueOf(s).Convert(t), nil
			},
			format: func(v reflect.Value) (string, error) {
				return v.String(), nil
			},
		}, nil

	case reflect.Bool:
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				b, err := cast.ToBoolE(s)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(b).Convert(t), nil
			},
			format: func(v reflect.Value) (string, error) {
				return cast.ToStringE(v.Bool())
			},
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				n, err := cast.ToInt64E(s)
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				if v.OverflowInt(n) {
					return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
				}
				v.SetInt(n)
				return v, nil
			},
			format: func(v reflect.Value) (string, error) {
				return cast.ToStringE(v.Int())
			},
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				n, err := cast.ToUint64E(s)
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				if v.OverflowUint(n) {
					return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
				}
				v.SetUint(n)
				return v, nil
			},
			format: func(v reflect.Value) (string, error) {
				return cast.ToStringE(v.Uint())
			},
		}, nil

	case reflect.Float32, reflect.Float64:
		return &converter{
			parse: func(s string) (reflect.Value, error) {
				f, err := cast.ToFloat64E(s)
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				if v.OverflowFloat(f) {
					return reflect.Value{}, fmt.Errorf("value %v overflows %s", f, t)
				}
				v.SetFloat(f)
				return v, nil
			},
			format: func(v reflect.Value) (string, error) {
				return cast.ToStringE(v.Interface())
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrFieldType, t)
}

// jsonConverter stores a composite field as a single JSON cell. Chosen only
// for fields tagged with the json option.
func jsonConverter(t reflect.Type) *converter {
	return &converter{
		parse: func(s string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := json.Unmarshal([]byte(s), p.Interface()); err != nil {
				return reflect.Value{}, err
			}
			return p.Elem(), nil
		},
		format: func(v reflect.Value) (string, error) {
			b, err := json.Marshal(v.Interface())
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}
