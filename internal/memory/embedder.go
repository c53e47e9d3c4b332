package memory

import (
	"context"
	"math"
)

// EmbedFunc is a function that produces a float32 embedding vector from
// text. Any model producing fixed-length vectors works.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Embedder is the embedding side of the LLM provider client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewRemoteEmbedFunc returns an EmbedFunc that calls the provider's
// embeddings endpoint.
func NewRemoteEmbedFunc(e Embedder) EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}

// normalizeVector scales v to unit length in place. Zero vectors are
// left untouched.
func normalizeVector(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
