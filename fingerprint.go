// Schema fingerprinting.
//
// A fingerprint is a 16 hex character digest of a schema's column names and
// declared types, in order. Two record types with the same columns and
// types produce the same fingerprint, so callers can key external caches or
// detect schema drift between processes without shipping reflect data.
// Three algorithms are supported, selectable per call.
package tabrec

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2 // No external dependencies
	AlgBlake2b = 3 // Best distribution
)

// Fingerprint digests the schema's column names and types with the given
// algorithm. An algorithm of 0 selects AlgXXHash3; an unknown algorithm
// returns "".
func (s *Schema) Fingerprint(alg int) string {
	var buf bytes.Buffer
	for _, f := range s.fields {
		buf.WriteString(f.Name)
		buf.WriteByte(0)
		buf.WriteString(f.Type.String())
		buf.WriteByte('\n')
	}

	switch alg {
	case AlgXXHash3, 0:
		return fmt.Sprintf("%016x", xxh3.Hash(buf.Bytes()))
	case AlgFNV1a:
		h := fnv.New64a()
		h.Write(buf.Bytes())
		return fmt.Sprintf("%016x", h.Sum64())
	case AlgBlake2b:
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
		h.Write(buf.Bytes())
		return fmt.Sprintf("%016x", h.Sum(nil))
	default:
		return ""
	}
}
