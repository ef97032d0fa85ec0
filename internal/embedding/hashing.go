package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashingDimensions = 256

// Hashing is a local bag-of-words embedder using the hashing trick.
// It needs no network and is fully deterministic, which makes it the
// default for development and tests.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder with the given dimensionality
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = defaultHashingDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Name() string {
	return "hash"
}

func (h *Hashing) Dimensions() int {
	return h.dims
}

// Embed hashes each lowercase word into a signed bucket and L2-normalizes the result
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float64, h.dims)
	for _, w := range words {
		f := fnv.New64a()
		f.Write([]byte(w))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		sign := 1.0
		if (sum>>63)&1 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dims)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}
