package ml

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bibbank/fraud-detection/internal/domain/model"
)

const (
	predictProbaPath     = "/v1/predict_proba"
	decisionFunctionPath = "/v1/decision_function"
	healthPath           = "/healthz"
)

// RemoteScorer calls a model-serving endpoint for both scores. It
// implements port.Classifier and port.AnomalyDetector.
type RemoteScorer struct {
	client  *http.Client
	baseURL string
}

// NewRemoteScorer creates a scorer for baseURL. tlsCfg may be nil.
func NewRemoteScorer(baseURL string, timeout time.Duration, tlsCfg *tls.Config) *RemoteScorer {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	return &RemoteScorer{
		client:  &http.Client{Timeout: timeout, Transport: transport},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// nullableFloat carries non-finite values as JSON null.
type nullableFloat float64

func (f nullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *nullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = nullableFloat(v)
	return nil
}

type scoreRequest struct {
	Instances [][model.FeatureCount]nullableFloat `json:"instances"`
}

type scoreResponse struct {
	Predictions []nullableFloat `json:"predictions"`
}

// PredictProbability posts the vectors to the probability endpoint.
func (s *RemoteScorer) PredictProbability(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return s.score(ctx, predictProbaPath, vectors)
}

// DecisionScore posts the vectors to the decision function endpoint.
func (s *RemoteScorer) DecisionScore(ctx context.Context, vectors []model.FeatureVector) ([]float64, error) {
	return s.score(ctx, decisionFunctionPath, vectors)
}

func (s *RemoteScorer) score(ctx context.Context, path string, vectors []model.FeatureVector) ([]float64, error) {
	if len(vectors) == 0 {
		return []float64{}, nil
	}

	req := scoreRequest{Instances: make([][model.FeatureCount]nullableFloat, len(vectors))}
	for i, v := range vectors {
		for j, x := range v.Values() {
			req.Instances[i][j] = nullableFloat(x)
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model server %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if len(out.Predictions) != len(vectors) {
		return nil, fmt.Errorf("model server %s: got %d predictions for %d instances", path, len(out.Predictions), len(vectors))
	}

	scores := make([]float64, len(out.Predictions))
	for i, p := range out.Predictions {
		scores[i] = float64(p)
	}
	return scores, nil
}

// Ready probes the health endpoint once.
func (s *RemoteScorer) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("model server health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server health: status %d", resp.StatusCode)
	}
	return nil
}

// WaitReady retries Ready with exponential backoff until it succeeds,
// maxWait elapses or ctx is cancelled.
func (s *RemoteScorer) WaitReady(ctx context.Context, maxWait time.Duration, notify func(error, time.Duration)) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = maxWait

	err := backoff.RetryNotify(func() error {
		if err := s.Ready(ctx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		return errors.Join(model.ErrProvidersUnavailable, err)
	}
	return nil
}
