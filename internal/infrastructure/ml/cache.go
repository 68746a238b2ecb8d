package ml

import (
	"context"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
)

// CachedClassifier memoises classifier outputs per feature vector.
type CachedClassifier struct {
	next  port.Classifier
	cache *lru.Cache[model.FeatureVector, float64]
}

// NewCachedClassifier wraps next with an LRU cache of the given size.
func NewCachedClassifier(next port.Classifier, size int) (*CachedClassifier, error) {
	cache, err := lru.New[model.FeatureVector, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier cache: %w", err)
	}
	return &CachedClassifier{next: next, cache: cache}, nil
}

// PredictProbability serves cached vectors and forwards the rest in one call.
func (c *CachedClassifier) PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return cachedScores(ctx, c.cache, vectors, c.next.PredictProbability)
}

// CachedDetector memoises detector outputs per feature vector.
type CachedDetector struct {
	next  port.AnomalyDetector
	cache *lru.Cache[model.FeatureVector, float64]
}

// NewCachedDetector wraps next with an LRU cache of the given size.
func NewCachedDetector(next port.AnomalyDetector, size int) (*CachedDetector, error) {
	cache, err := lru.New[model.FeatureVector, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector cache: %w", err)
	}
	return &CachedDetector{next: next, cache: cache}, nil
}

// DecisionScore serves cached vectors and forwards the rest in one call.
func (d *CachedDetector) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return cachedScores(ctx, d.cache, vectors, d.next.DecisionScore)
}

type scoreFunc func(context.Context, []model.FeatureVector) ([]float64, error)

func cachedScores(
	ctx context.Context,
	cache *lru.Cache[model.FeatureVector, float64],
	vectors []model.FeatureVector,
	fetch scoreFunc,
) ([]float64, error) {
	out := make([]float64, len(vectors))
	var (
		misses    []model.FeatureVector
		missIndex []int
	)
	for i, v := range vectors {
		if s, ok := cache.Get(v); ok {
			out[i] = s
			continue
		}
		misses = append(misses, v)
		missIndex = append(missIndex, i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	scores, err := fetch(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(misses) {
		return nil, fmt.Errorf("provider returned %d scores for %d vectors", len(scores), len(misses))
	}
	for k, s := range scores {
		out[missIndex[k]] = s
		if cacheable(misses[k]) {
			cache.Add(misses[k], s)
		}
	}
	return out, nil
}

// cacheable rejects NaN keys, which never compare equal.
func cacheable(v model.FeatureVector) bool {
	for _, x := range v.Values() {
		if math.IsNaN(x) {
			return false
		}
	}
	return true
}
