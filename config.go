// Session configuration shared by readers and writers.
package tabrec

import "fmt"

// Header validation modes.
const (
	HeaderStrict  = 0 // Header columns must equal schema columns, in order
	HeaderSetOnly = 1 // Header columns matched by name, any order
)

// Config holds reader and writer options. The zero value is usable:
// tab-delimited, strict header validation, '#' comment preface, extra
// columns rejected.
type Config struct {
	Delimiter         byte     // Column separator (default '\t')
	HeaderMode        int      // HeaderStrict or HeaderSetOnly
	AllowExtraColumns bool     // Tolerate header columns the schema does not declare
	CommentPrefix     string   // Prefix of preface lines before the header (default "#")
	IncludeFields     []string // Writer: only these columns, in this order
	ExcludeFields     []string // Writer: all schema columns except these
	SyncWrites        bool     // Writer: fsync the file on Close
}

// withDefaults fills zero values, leaving the receiver untouched.
func (c Config) withDefaults() Config {
	if c.Delimiter == 0 {
		c.Delimiter = '\t'
	}
	if c.CommentPrefix == "" {
		c.CommentPrefix = "#"
	}
	return c
}

// validate rejects delimiters that collide with the quoting or record
// framing of the underlying tokenizer.
func (c Config) validate() error {
	switch c.Delimiter {
	case '"', '\n', '\r':
		return fmt.Errorf("%w: delimiter %q conflicts with record framing", ErrConfig, c.Delimiter)
	}
	if c.HeaderMode != HeaderStrict && c.HeaderMode != HeaderSetOnly {
		return fmt.Errorf("%w: unknown header mode %d", ErrConfig, c.HeaderMode)
	}
	return nil
}
