// Package compress writes and reads compressed dashboard snapshots.
//
// The snapshot command picks the algorithm from the output file name:
//
//	c := compress.NewCompressor(compress.AlgorithmForPath("view.json.zst"), compress.LevelDefault)
//	w, err := c.NewWriter(f)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
package compress

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/exploopio/opsboard/pkg/errors"
)

// Algorithm names a compression format.
type Algorithm string

const (
	AlgorithmZSTD Algorithm = "zstd"
	AlgorithmGzip Algorithm = "gzip"
	AlgorithmNone Algorithm = "none"
)

// AlgorithmForPath maps ".zst" and ".zstd" to ZSTD and ".gz" to gzip.
// Every other path is written uncompressed.
func AlgorithmForPath(path string) Algorithm {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return AlgorithmZSTD
	case ".gz":
		return AlgorithmGzip
	}
	return AlgorithmNone
}

// Level trades speed for ratio on a zstd-like 1..9 scale.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBetter  Level = 6
	LevelBest    Level = 9
)

// Compressor is safe for concurrent use; every call builds its own codec.
type Compressor struct {
	algorithm Algorithm
	level     Level
}

// NewCompressor returns a compressor for algorithm at level. Unsupported
// algorithms are reported by the first operation, not here.
func NewCompressor(algorithm Algorithm, level Level) *Compressor {
	return &Compressor{algorithm: algorithm, level: level}
}

// Algorithm returns the compression algorithm.
func (c *Compressor) Algorithm() Algorithm { return c.algorithm }

func (c *Compressor) gzipLevel() int {
	switch {
	case c.level <= LevelDefault:
		return gzip.BestSpeed
	case c.level >= LevelBest:
		return gzip.BestCompression
	}
	return gzip.DefaultCompression
}

// NewWriter returns a writer that compresses into w. Close flushes the
// final frame and leaves w open.
func (c *Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	const op = "compress.NewWriter"
	switch c.algorithm {
	case AlgorithmZSTD:
		level := zstd.EncoderLevelFromZstd(int(c.level))
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, errors.E(errors.KindInternal, op, "zstd writer", err)
		}
		return enc, nil
	case AlgorithmGzip:
		gw, err := gzip.NewWriterLevel(w, c.gzipLevel())
		if err != nil {
			return nil, errors.E(errors.KindInternal, op, "gzip writer", err)
		}
		return gw, nil
	case AlgorithmNone:
		return nopWriteCloser{w}, nil
	}
	return nil, c.unsupported(op)
}

// NewReader returns a reader that decompresses r.
func (c *Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	const op = "compress.NewReader"
	switch c.algorithm {
	case AlgorithmZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.E(errors.KindInvalidInput, op, "zstd reader", err)
		}
		return dec.IOReadCloser(), nil
	case AlgorithmGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.E(errors.KindInvalidInput, op, "gzip reader", err)
		}
		return gr, nil
	case AlgorithmNone:
		return io.NopCloser(r), nil
	}
	return nil, c.unsupported(op)
}

// Compress compresses data in one call.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, errors.E(errors.KindInternal, "compress.Compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.E(errors.KindInternal, "compress.Compress", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses data in one call.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.E(errors.KindInvalidInput, "compress.Decompress", "corrupt input", err)
	}
	return out, nil
}

func (c *Compressor) unsupported(op string) error {
	return errors.Errorf(errors.KindInvalidInput, op, "unsupported compression algorithm: %s", c.algorithm)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
