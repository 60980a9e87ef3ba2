// Transparent compression for path-based sessions.
//
// Files ending in .gz or .zst are wrapped in the matching codec when opened
// by path; everything else passes through untouched. The codec and the file
// close together so a session's Close releases the whole stack, and the
// optional fsync runs after the codec has flushed its trailing frame.
package tabrec

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressed reports whether path names a compressed table by extension.
func compressed(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".zst")
}

// source is an open input stream plus the close chain that releases it.
type source struct {
	io.Reader
	close func() error
}

func (s *source) Close() error { return s.close() }

// sink is an open output stream plus the close chain that finalizes it.
type sink struct {
	io.Writer
	close func() error
}

func (s *sink) Close() error { return s.close() }

// openSource opens path for reading, decompressing by extension.
func openSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &source{Reader: zr, close: func() error {
			err := zr.Close()
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		}}, nil

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &source{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	}

	return f, nil
}

// openSink opens path for writing with the given flags, compressing by
// extension. When syncWrites is set the file is fsynced before closing.
func openSink(path string, flag int, syncWrites bool) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}

	finish := func(err error) error {
		if syncWrites {
			if serr := f.Sync(); err == nil {
				err = serr
			}
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		return &sink{Writer: zw, close: func() error {
			return finish(zw.Close())
		}}, nil

	case strings.HasSuffix(path, ".zst"):
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &sink{Writer: enc, close: func() error {
			return finish(enc.Close())
		}}, nil
	}

	return &sink{Writer: f, close: func() error {
		return finish(nil)
	}}, nil
}
