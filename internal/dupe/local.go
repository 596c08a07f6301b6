package dupe

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// localDims is the fixed embedding width of the local model. Small enough
// that the window comparison stays cheap, wide enough to keep hash
// collisions from dominating scores.
const localDims = 256

// Local is a deterministic in-process embedding model: hashed character
// trigram frequencies over normalized text, unit-length. It never fails and
// needs no network, which makes it the fallback backend.
type Local struct{}

// NewLocal creates the local embedding model.
func NewLocal() *Local {
	return &Local{}
}

// Embed implements Embedder. Identical texts produce identical vectors, so
// an exact duplicate scores 1.0.
func (*Local) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = embedOne(t)
	}
	return vecs, nil
}

func embedOne(text string) []float32 {
	s := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	counts := make([]float32, localDims)
	for i := 0; i+3 <= len(s); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(s[i : i+3]))
		counts[h.Sum32()%localDims]++
	}

	var sum float64
	for _, c := range counts {
		sum += float64(c) * float64(c)
	}
	norm := math.Sqrt(sum) + 1e-12

	out := make([]float32, localDims)
	for i, c := range counts {
		out[i] = float32(float64(c) / norm)
	}
	return out
}
