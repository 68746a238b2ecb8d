package ml_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/infrastructure/ml"
)

type countingClassifier struct {
	err   error
	seen  [][]model.FeatureVector
	score func(model.FeatureVector) float64
}

func (c *countingClassifier) PredictProbability(_ context.Context, vectors []model.FeatureVector) ([]float64, error) {
	c.seen = append(c.seen, vectors)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		out[i] = c.score(v)
	}
	return out, nil
}

func (c *countingClassifier) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return c.PredictProbability(ctx, vectors)
}

func TestCachedClassifier(t *testing.T) {
	next := &countingClassifier{score: func(v model.FeatureVector) float64 { return v.Amount / 100 }}
	cached, err := ml.NewCachedClassifier(next, 16)
	require.NoError(t, err)

	a, b, c := vec(10, 0, 0, 0, 0), vec(20, 0, 0, 0, 0), vec(30, 0, 0, 0, 0)

	first, err := cached.PredictProbability(context.Background(), []model.FeatureVector{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, first)

	second, err := cached.PredictProbability(context.Background(), []model.FeatureVector{b, c, a})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.3, 0.1}, second)

	require.Len(t, next.seen, 2)
	assert.Equal(t, []model.FeatureVector{c}, next.seen[1])

	_, err = cached.PredictProbability(context.Background(), []model.FeatureVector{c, a})
	require.NoError(t, err)
	assert.Len(t, next.seen, 2)
}

func TestCachedDetector_SkipsNaNKeys(t *testing.T) {
	next := &countingClassifier{score: func(model.FeatureVector) float64 { return -0.1 }}
	cached, err := ml.NewCachedDetector(next, 16)
	require.NoError(t, err)

	nan := vec(math.NaN(), 0, 0, 0, 0)
	for i := 0; i < 2; i++ {
		scores, err := cached.DecisionScore(context.Background(), []model.FeatureVector{nan})
		require.NoError(t, err)
		assert.Equal(t, []float64{-0.1}, scores)
	}
	assert.Len(t, next.seen, 2)
}

func TestCachedClassifier_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	cached, err := ml.NewCachedClassifier(&countingClassifier{err: boom}, 4)
	require.NoError(t, err)

	_, err = cached.PredictProbability(context.Background(), []model.FeatureVector{vec(1, 0, 0, 0, 0)})
	require.ErrorIs(t, err, boom)
}

func TestNewCachedClassifier_InvalidSize(t *testing.T) {
	_, err := ml.NewCachedClassifier(&countingClassifier{}, 0)
	require.Error(t, err)
}
