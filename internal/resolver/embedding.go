// internal/resolver/embedding.go
package resolver

import (
	"context"
	"math"

	"github.com/pricebot/pricebot/internal/models"
)

// EmbeddingService is the capability interface behind the optional
// embedding-similarity alias match (spec §4.5 step d, §4.9's augmentation).
// A no-op default keeps the resolver correct (if less precise) with
// embeddings disabled, per spec §9's design note.
type EmbeddingService interface {
	Enabled() bool
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NoopEmbeddingService is the default: Enabled reports false.
type NoopEmbeddingService struct{}

func (NoopEmbeddingService) Enabled() bool { return false }

func (NoopEmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

// CosineSimilarity is grounded on
// kiraleos-jedi-team-challenge/internal/utils/embeddings.go, generalized to
// float64 to match models.ProductAlias.Embedding's storage type.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// NearestAlias selects the alias with the highest cosine similarity to
// query among candidates, returning false when no candidate clears
// threshold. Candidates are expected to already be capped at K per spec
// §4.5 step d (the caller enforces the cap when fetching candidates).
func NearestAlias(query []float64, candidates []models.ProductAlias, threshold float64) (*models.ProductAlias, float64, bool) {
	var best *models.ProductAlias
	bestScore := -1.0
	for i := range candidates {
		if len(candidates[i].Embedding) == 0 {
			continue
		}
		score := CosineSimilarity(query, candidates[i].Embedding)
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	if best == nil || bestScore < threshold {
		return nil, bestScore, false
	}
	return best, bestScore, true
}
