// Header handling: preface skipping, validation, column mapping.
//
// A file may open with a preface of comment lines (CommentPrefix) and blank
// lines before the header row. The header is validated once, eagerly, when
// a session opens; the column-to-field mapping built here is what data rows
// are decoded through, so set-only mode pays for reordering exactly once.
package tabrec

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// skipPreface consumes comment and blank lines from the front of br,
// returning them with line endings stripped. It stops with the header line
// still unread. A file that ends before a header line yields ErrNoHeader.
func skipPreface(br *bufio.Reader, prefix string) ([]string, error) {
	var preface []string
	for {
		c, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return preface, ErrNoHeader
			}
			return preface, err
		}

		blank := c[0] == '\n' || c[0] == '\r'
		comment := false
		if !blank && prefix != "" {
			p, _ := br.Peek(len(prefix))
			comment = string(p) == prefix
		}
		if !blank && !comment {
			return preface, nil
		}

		line, err := br.ReadString('\n')
		preface = append(preface, strings.TrimRight(line, "\r\n"))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return preface, ErrNoHeader
			}
			return preface, err
		}
	}
}

// buildColumns validates a header row against the expected fields under the
// given mode and returns, for each field, the index of the header column
// holding it. Extra header columns are tolerated only when allowExtra is
// set; their cells are ignored during decoding.
func buildColumns(fields []Field, header []string, mode int, allowExtra bool) ([]int, error) {
	expected := make([]string, len(fields))
	for i, f := range fields {
		expected[i] = f.Name
	}

	switch mode {
	case HeaderStrict:
		return strictColumns(expected, header, allowExtra)
	case HeaderSetOnly:
		return setColumns(expected, header, allowExtra)
	}
	return nil, &HeaderError{Expected: expected, Actual: header}
}

// strictColumns requires header columns to equal the expected names in
// order. Trailing extras are permitted only with allowExtra.
func strictColumns(expected, header []string, allowExtra bool) ([]int, error) {
	for i, name := range expected {
		if i >= len(header) || header[i] != name {
			return nil, headerDiff(expected, header)
		}
	}
	if len(header) > len(expected) && !allowExtra {
		return nil, &HeaderError{
			Expected: expected,
			Actual:   header,
			Extra:    header[len(expected):],
		}
	}

	cols := make([]int, len(expected))
	for i := range cols {
		cols[i] = i
	}
	return cols, nil
}

// setColumns matches expected names anywhere in the header, mapping each
// field to the column that carries it.
func setColumns(expected, header []string, allowExtra bool) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; dup {
			return nil, &HeaderError{
				Expected: expected,
				Actual:   header,
				Extra:    []string{name},
			}
		}
		pos[name] = i
	}

	want := make(map[string]bool, len(expected))
	cols := make([]int, len(expected))
	var missing []string
	for i, name := range expected {
		want[name] = true
		c, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[i] = c
	}

	var extra []string
	for _, name := range header {
		if !want[name] {
			extra = append(extra, name)
		}
	}

	if len(missing) > 0 || (len(extra) > 0 && !allowExtra) {
		e := &HeaderError{Expected: expected, Actual: header, Missing: missing}
		if !allowExtra {
			e.Extra = extra
		}
		return nil, e
	}
	return cols, nil
}

// headerDiff builds a HeaderError describing how header deviates from the
// expected names: missing, unexpected, or merely reordered columns.
func headerDiff(expected, header []string) *HeaderError {
	have := make(map[string]bool, len(header))
	for _, name := range header {
		have[name] = true
	}
	want := make(map[string]bool, len(expected))
	for _, name := range expected {
		want[name] = true
	}

	e := &HeaderError{Expected: expected, Actual: header}
	for _, name := range expected {
		if !have[name] {
			e.Missing = append(e.Missing, name)
		}
	}
	for _, name := range header {
		if !want[name] {
			e.Extra = append(e.Extra, name)
		}
	}
	return e
}
