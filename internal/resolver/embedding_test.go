// internal/resolver/embedding_test.go
package resolver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pricebot/pricebot/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0, 0}, []float64{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	assert.Equal(t, 0.0, CosineSimilarity(nil, []float64{1, 2}), "empty vectors have no similarity")
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2, 3}, []float64{1, 2}), "mismatched dimensions have no similarity")
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}), "zero-magnitude vector has no similarity")
}

func TestNearestAlias(t *testing.T) {
	candidates := []models.ProductAlias{
		{BaseModel: models.BaseModel{ID: uuid.New()}, Embedding: []float64{1, 0}},
		{BaseModel: models.BaseModel{ID: uuid.New()}, Embedding: []float64{0, 1}},
		{BaseModel: models.BaseModel{ID: uuid.New()}},
	}

	best, score, ok := NearestAlias([]float64{1, 0}, candidates, 0.5)
	assert.True(t, ok)
	assert.Equal(t, candidates[0].ID, best.ID)
	assert.InDelta(t, 1.0, score, 1e-9)

	_, _, ok = NearestAlias([]float64{1, 0}, candidates, 1.5)
	assert.False(t, ok, "nothing clears an impossible threshold")

	_, _, ok = NearestAlias([]float64{1, 0}, nil, 0.1)
	assert.False(t, ok, "no candidates means no match")
}

func TestNoopEmbeddingService(t *testing.T) {
	var svc EmbeddingService = NoopEmbeddingService{}
	assert.False(t, svc.Enabled())
	v, err := svc.Embed(nil, "anything")
	assert.NoError(t, err)
	assert.Nil(t, v)
}
