package tabrec

import (
	"bufio"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSkipPreface(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		preface []string
		wantErr error
	}{
		{name: "noPreface", input: "foo\tbar\n1\tabc\n", preface: nil},
		{name: "comments", input: "# one\n# two\nfoo\tbar\n", preface: []string{"# one", "# two"}},
		{name: "blankLines", input: "\n# note\n\nfoo\tbar\n", preface: []string{"", "# note", ""}},
		{name: "crlf", input: "# one\r\nfoo\tbar\r\n", preface: []string{"# one"}},
		{name: "empty", input: "", wantErr: ErrNoHeader},
		{name: "onlyComments", input: "# a\n# b\n", wantErr: ErrNoHeader},
		{name: "commentWithoutNewline", input: "# a", wantErr: ErrNoHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(strings.NewReader(tt.input))
			preface, err := skipPreface(br, "#")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("skipPreface: %v", err)
			}
			if !reflect.DeepEqual(preface, tt.preface) {
				t.Errorf("preface = %q, want %q", preface, tt.preface)
			}
		})
	}
}

func testFields(names ...string) []Field {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Field{Name: n}
	}
	return fields
}

func TestBuildColumnsStrict(t *testing.T) {
	fields := testFields("foo", "bar")

	cols, err := buildColumns(fields, []string{"foo", "bar"}, HeaderStrict, false)
	if err != nil {
		t.Fatalf("exact header: %v", err)
	}
	if !reflect.DeepEqual(cols, []int{0, 1}) {
		t.Errorf("cols = %v, want [0 1]", cols)
	}
}

func TestBuildColumnsStrictReordered(t *testing.T) {
	fields := testFields("foo", "bar")

	_, err := buildColumns(fields, []string{"bar", "foo"}, HeaderStrict, false)
	if !errors.Is(err, ErrHeader) {
		t.Fatalf("got %v, want ErrHeader", err)
	}

	var he *HeaderError
	if !errors.As(err, &he) {
		t.Fatalf("error is %T, want *HeaderError", err)
	}
	// Same set, wrong order: neither missing nor extra.
	if len(he.Missing) != 0 || len(he.Extra) != 0 {
		t.Errorf("Missing = %v, Extra = %v, want both empty", he.Missing, he.Extra)
	}
}

func TestBuildColumnsStrictMissing(t *testing.T) {
	fields := testFields("foo", "bar")

	_, err := buildColumns(fields, []string{"foo"}, HeaderStrict, false)
	var he *HeaderError
	if !errors.As(err, &he) {
		t.Fatalf("got %v, want *HeaderError", err)
	}
	if !reflect.DeepEqual(he.Missing, []string{"bar"}) {
		t.Errorf("Missing = %v, want [bar]", he.Missing)
	}
}

func TestBuildColumnsStrictExtra(t *testing.T) {
	fields := testFields("foo", "bar")
	header := []string{"foo", "bar", "baz"}

	_, err := buildColumns(fields, header, HeaderStrict, false)
	var he *HeaderError
	if !errors.As(err, &he) {
		t.Fatalf("got %v, want *HeaderError", err)
	}
	if !reflect.DeepEqual(he.Extra, []string{"baz"}) {
		t.Errorf("Extra = %v, want [baz]", he.Extra)
	}

	cols, err := buildColumns(fields, header, HeaderStrict, true)
	if err != nil {
		t.Fatalf("allowExtra: %v", err)
	}
	if !reflect.DeepEqual(cols, []int{0, 1}) {
		t.Errorf("cols = %v, want [0 1]", cols)
	}
}

func TestBuildColumnsSetOnly(t *testing.T) {
	fields := testFields("foo", "bar")

	cols, err := buildColumns(fields, []string{"bar", "foo"}, HeaderSetOnly, false)
	if err != nil {
		t.Fatalf("reordered header: %v", err)
	}
	if !reflect.DeepEqual(cols, []int{1, 0}) {
		t.Errorf("cols = %v, want [1 0]", cols)
	}
}

func TestBuildColumnsSetOnlyMissing(t *testing.T) {
	fields := testFields("foo", "bar")

	_, err := buildColumns(fields, []string{"bar"}, HeaderSetOnly, false)
	var he *HeaderError
	if !errors.As(err, &he) {
		t.Fatalf("got %v, want *HeaderError", err)
	}
	if !reflect.DeepEqual(he.Missing, []string{"foo"}) {
		t.Errorf("Missing = %v, want [foo]", he.Missing)
	}
}

func TestBuildColumnsSetOnlyExtra(t *testing.T) {
	fields := testFields("foo", "bar")
	header := []string{"baz", "bar", "foo"}

	if _, err := buildColumns(fields, header, HeaderSetOnly, false); !errors.Is(err, ErrHeader) {
		t.Fatalf("got %v, want ErrHeader", err)
	}

	cols, err := buildColumns(fields, header, HeaderSetOnly, true)
	if err != nil {
		t.Fatalf("allowExtra: %v", err)
	}
	if !reflect.DeepEqual(cols, []int{2, 1}) {
		t.Errorf("cols = %v, want [2 1]", cols)
	}
}

func TestBuildColumnsSetOnlyDuplicate(t *testing.T) {
	fields := testFields("foo", "bar")

	_, err := buildColumns(fields, []string{"foo", "foo", "bar"}, HeaderSetOnly, false)
	if !errors.Is(err, ErrHeader) {
		t.Errorf("got %v, want ErrHeader", err)
	}
}

func TestHeaderErrorMessage(t *testing.T) {
	e := &HeaderError{
		Expected: []string{"foo", "bar"},
		Actual:   []string{"foo"},
		Missing:  []string{"bar"},
	}
	msg := e.Error()
	for _, want := range []string{"missing columns: bar", "want [foo bar]", "got [foo]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
