package ml

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bibbank/fraud-detection/internal/domain/model"
)

// ModelFile is the YAML document holding the parameters of the local models.
//
//	classifier:
//	  bias: -4.1
//	  weights: {amount: 0.004, v1: -0.8, v2: 0.9, v3: -1.2}
//	  mean:    {amount: 88.3, time: 94813}
//	  scale:   {amount: 250.1, time: 47488}
//	detector:
//	  mean:   {amount: 88.3, time: 94813}
//	  std:    {amount: 250.1, time: 47488, v1: 1.96, v2: 1.65, v3: 1.52}
//	  offset: 0.5
//	  scale:  8
type ModelFile struct {
	Classifier ClassifierParams `yaml:"classifier"`
	Detector   DetectorParams   `yaml:"detector"`
}

// FeatureParams maps feature column names to a per-feature number.
type FeatureParams map[string]float64

// ClassifierParams configures a LogisticClassifier. Features are
// standardised with mean/scale before the weights apply.
type ClassifierParams struct {
	Weights FeatureParams `yaml:"weights"`
	Mean    FeatureParams `yaml:"mean"`
	Scale   FeatureParams `yaml:"scale"`
	Bias    float64       `yaml:"bias"`
}

// DetectorParams configures a ZScoreDetector.
type DetectorParams struct {
	Mean   FeatureParams `yaml:"mean"`
	Std    FeatureParams `yaml:"std"`
	Offset float64       `yaml:"offset"`
	Scale  float64       `yaml:"scale"`
}

// LoadModelFile reads and validates a model file.
func LoadModelFile(path string) (*LogisticClassifier, *ZScoreDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var file ModelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to decode model file %s: %w", path, err)
	}

	classifier, err := NewLogisticClassifier(file.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid classifier in %s: %w", path, err)
	}
	detector, err := NewZScoreDetector(file.Detector)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid detector in %s: %w", path, err)
	}
	return classifier, detector, nil
}

// vector lays the params out in feature order, using def for absent names.
func (p FeatureParams) vector(def float64) ([model.FeatureCount]float64, error) {
	var out [model.FeatureCount]float64
	for i := range out {
		out[i] = def
	}
	for name, v := range p {
		idx := featureIndex(name)
		if idx < 0 {
			return out, fmt.Errorf("unknown feature %q", name)
		}
		out[idx] = v
	}
	return out, nil
}

func featureIndex(name string) int {
	for i, col := range model.RequiredColumns {
		if col == name {
			return i
		}
	}
	return -1
}

// LogisticClassifier is a standardised logistic regression.
type LogisticClassifier struct {
	weights [model.FeatureCount]float64
	mean    [model.FeatureCount]float64
	scale   [model.FeatureCount]float64
	bias    float64
}

// NewLogisticClassifier validates the parameters and builds the classifier.
func NewLogisticClassifier(p ClassifierParams) (*LogisticClassifier, error) {
	if len(p.Weights) == 0 {
		return nil, fmt.Errorf("weights are required")
	}
	weights, err := p.Weights.vector(0)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	mean, err := p.Mean.vector(0)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	scale, err := p.Scale.vector(1)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	for i, s := range scale {
		if s <= 0 {
			return nil, fmt.Errorf("scale of %s must be positive", model.RequiredColumns[i])
		}
	}
	return &LogisticClassifier{weights: weights, mean: mean, scale: scale, bias: p.Bias}, nil
}

// PredictProbability returns the fraud probability of every vector.
func (c *LogisticClassifier) PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		z := c.bias
		for j, x := range v.Values() {
			z += c.weights[j] * (x - c.mean[j]) / c.scale[j]
		}
		out[i] = 1 / (1 + math.Exp(-z))
	}
	return out, nil
}

// ZScoreDetector scores a vector by its largest standardised deviation:
// offset - max|z|/scale. Scores turn negative once a feature lies more than
// offset*scale standard deviations from its mean.
type ZScoreDetector struct {
	mean   [model.FeatureCount]float64
	std    [model.FeatureCount]float64
	offset float64
	scale  float64
}

// NewZScoreDetector validates the parameters and builds the detector.
func NewZScoreDetector(p DetectorParams) (*ZScoreDetector, error) {
	mean, err := p.Mean.vector(0)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	std, err := p.Std.vector(1)
	if err != nil {
		return nil, fmt.Errorf("std: %w", err)
	}
	for i, s := range std {
		if s <= 0 {
			return nil, fmt.Errorf("std of %s must be positive", model.RequiredColumns[i])
		}
	}
	if p.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive")
	}
	return &ZScoreDetector{mean: mean, std: std, offset: p.Offset, scale: p.Scale}, nil
}

// DecisionScore returns the anomaly score of every vector.
func (d *ZScoreDetector) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		worst := 0.0
		for j, x := range v.Values() {
			z := math.Abs((x - d.mean[j]) / d.std[j])
			if z > worst || math.IsNaN(z) {
				worst = z
			}
			if math.IsNaN(worst) {
				break
			}
		}
		out[i] = d.offset - worst/d.scale
	}
	return out, nil
}
