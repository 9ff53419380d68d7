package indexer

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimension matches the Gemini embedding-001 output size.
const DefaultDimension = 768

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashEmbedder is a deterministic bag-of-words embedder for local runs and
// tests. Tokens are hashed into buckets and the result is L2-normalized.
type HashEmbedder struct {
	Dimension int
}

func (h HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dim := h.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	vec := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		hf := fnv.New64a()
		_, _ = hf.Write([]byte(tok))
		sum := hf.Sum64()
		idx := int(sum % uint64(dim))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
