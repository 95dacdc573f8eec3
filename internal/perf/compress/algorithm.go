// Package compress implements the adaptive message compression pipeline
// of spec.md §4.4. The Compressor interface is lifted directly from the
// teacher's gateway/zstd.go; three concrete algorithms back it: stdlib
// zlib (the teacher's own session.go already imports compress/zlib),
// github.com/valyala/gozstd (the teacher's zstd compressor), and
// github.com/TheRockettek/czlib (the teacher's other compression
// dependency, used here as a third "fast" tier).
package compress

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/TheRockettek/czlib"
	"github.com/valyala/gozstd"
)

// Algorithm identifies which codec produced a compressed payload, per
// the wire tag in spec.md §4.4.
type Algorithm byte

const (
	AlgorithmNone Algorithm = iota
	AlgorithmZlib
	AlgorithmZstd
	AlgorithmCzlib
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmZlib:
		return "zlib"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmCzlib:
		return "czlib"
	default:
		return "unknown"
	}
}

// Compressor mirrors the teacher's gateway.Compressor interface.
type Compressor interface {
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

// zlibCodec wraps stdlib compress/zlib at a fixed level, the spec's
// "static default (zlib level 6)".
type zlibCodec struct{ level int }

func newZlibCodec(level int) *zlibCodec { return &zlibCodec{level: level} }

func (c *zlibCodec) Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *zlibCodec) Decompress(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// zstdCodec wraps github.com/valyala/gozstd for one-shot buffers, which
// is simpler and safer than the teacher's streaming ChanWriter shape in
// gateway/zstd.go for the discrete, framed payloads this pipeline deals
// with.
type zstdCodec struct{ level int }

func newZstdCodec(level int) *zstdCodec { return &zstdCodec{level: level} }

func (c *zstdCodec) Compress(in []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, in, c.level), nil
}

func (c *zstdCodec) Decompress(in []byte) ([]byte, error) {
	return gozstd.Decompress(nil, in)
}

// czlibCodec wraps the teacher's other compression dependency as a
// third, "fast" tier the adaptive manager can pick between.
type czlibCodec struct{}

func newCzlibCodec() *czlibCodec { return &czlibCodec{} }

func (c *czlibCodec) Compress(in []byte) ([]byte, error) {
	return czlib.Compress(in)
}

func (c *czlibCodec) Decompress(in []byte) ([]byte, error) {
	return czlib.Decompress(in)
}

func codecFor(a Algorithm) Compressor {
	switch a {
	case AlgorithmZlib:
		return newZlibCodec(6)
	case AlgorithmZstd:
		return newZstdCodec(3)
	case AlgorithmCzlib:
		return newCzlibCodec()
	default:
		return nil
	}
}
