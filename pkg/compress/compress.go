// Package compress encodes HTTP response bodies with zstd or gzip.
//
// The dashboard negotiates an algorithm from Accept-Encoding and encodes the
// buffered JSON body with a pooled Compressor:
//
//	algo := compress.Negotiate(r.Header.Get("Accept-Encoding"))
//	body, err := compress.For(algo).Compress(payload)
//
// Request bodies sent with a Content-Encoding are decoded the same way:
//
//	algo, err := compress.ParseContentEncoding(r.Header.Get("Content-Encoding"))
//	body, err = compress.For(algo).Decompress(body)
package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	AlgorithmZSTD Algorithm = "zstd"
	AlgorithmGzip Algorithm = "gzip"
	AlgorithmNone Algorithm = "none"
)

// MaxDecodedSize caps the output of Decompress.
const MaxDecodedSize = 8 << 20

// ParseContentEncoding maps a Content-Encoding header to an algorithm.
// Empty and identity map to AlgorithmNone.
func ParseContentEncoding(header string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "", "identity":
		return AlgorithmNone, nil
	case "zstd":
		return AlgorithmZSTD, nil
	case "gzip", "x-gzip":
		return AlgorithmGzip, nil
	default:
		return "", fmt.Errorf("unsupported content encoding: %s", header)
	}
}

// Level represents compression level on a 1-9 scale.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBetter  Level = 6
	LevelBest    Level = 9
)

// Compressor compresses and decompresses whole payloads.
// It is safe for concurrent use.
type Compressor struct {
	algorithm Algorithm
	level     Level

	zstdEncoders sync.Pool
	gzipWriters  sync.Pool
}

// zstdDecoder is shared by every Compressor. DecodeAll is safe for
// concurrent use and the decoder is never closed, so no pooled decoders
// leak their goroutines.
var zstdDecoder = mustDecoder()

func mustDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(MaxDecodedSize),
	)
	if err != nil {
		panic(fmt.Sprintf("compress: zstd decoder: %v", err))
	}
	return dec
}

// NewCompressor creates a compressor for algorithm at level.
func NewCompressor(algorithm Algorithm, level Level) *Compressor {
	c := &Compressor{algorithm: algorithm, level: level}

	switch algorithm {
	case AlgorithmZSTD:
		c.zstdEncoders.New = func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(int(level))))
			return enc
		}
	case AlgorithmGzip:
		c.gzipWriters.New = func() any {
			w, _ := gzip.NewWriterLevel(nil, gzipLevel(level))
			return w
		}
	}

	return c
}

func gzipLevel(l Level) int {
	switch {
	case l <= LevelDefault:
		return gzip.BestSpeed
	case l >= 7:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

// Algorithm returns the compression algorithm.
func (c *Compressor) Algorithm() Algorithm {
	return c.algorithm
}

// ContentEncoding returns the HTTP Content-Encoding header value, or "" for
// identity.
func (c *Compressor) ContentEncoding() string {
	switch c.algorithm {
	case AlgorithmZSTD, AlgorithmGzip:
		return string(c.algorithm)
	default:
		return ""
	}
}

// Compress compresses data.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	switch c.algorithm {
	case AlgorithmZSTD:
		enc := c.zstdEncoders.Get().(*zstd.Encoder)
		defer c.zstdEncoders.Put(enc)
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case AlgorithmGzip:
		var buf bytes.Buffer
		w := c.gzipWriters.Get().(*gzip.Writer)
		defer c.gzipWriters.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case AlgorithmNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", c.algorithm)
	}
}

// Decompress reverses Compress. Output larger than MaxDecodedSize is an
// error.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	switch c.algorithm {
	case AlgorithmZSTD:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	case AlgorithmGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		if len(out) > MaxDecodedSize {
			return nil, fmt.Errorf("gzip decode: output exceeds %d bytes", MaxDecodedSize)
		}
		return out, nil
	case AlgorithmNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", c.algorithm)
	}
}

var (
	defaultZSTD = NewCompressor(AlgorithmZSTD, LevelDefault)
	defaultGzip = NewCompressor(AlgorithmGzip, LevelDefault)
	identity    = NewCompressor(AlgorithmNone, LevelDefault)
)

// For returns the shared default-level compressor for algorithm.
func For(algorithm Algorithm) *Compressor {
	switch algorithm {
	case AlgorithmZSTD:
		return defaultZSTD
	case AlgorithmGzip:
		return defaultGzip
	default:
		return identity
	}
}
