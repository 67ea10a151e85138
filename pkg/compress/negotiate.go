package compress

import (
	"strconv"
	"strings"
)

// MinSize is the smallest body worth compressing.
const MinSize = 512

// Negotiate picks an algorithm from an Accept-Encoding header. zstd wins
// over gzip; "*" accepts zstd; a q of 0 refuses an encoding.
func Negotiate(acceptEncoding string) Algorithm {
	accepted := map[string]bool{}
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		accepted[name] = qValue(params) > 0
	}

	switch {
	case accepted["zstd"]:
		return AlgorithmZSTD
	case accepted["gzip"]:
		return AlgorithmGzip
	case accepted["*"]:
		if _, refused := accepted["zstd"]; !refused {
			return AlgorithmZSTD
		}
		if _, refused := accepted["gzip"]; !refused {
			return AlgorithmGzip
		}
	}
	return AlgorithmNone
}

func qValue(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}

// ShouldCompress reports whether a body of size bytes with the given
// Content-Type is worth encoding.
func ShouldCompress(size int, contentType string) bool {
	if size < MinSize {
		return false
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/")
}
