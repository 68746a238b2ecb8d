package ml_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/infrastructure/ml"
)

// newModelServer answers with score(instance) for every instance.
func newModelServer(t *testing.T, score func(path string, instance []any) any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Instances [][]any `json:"instances"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		preds := make([]any, len(req.Instances))
		for i, inst := range req.Instances {
			preds[i] = score(r.URL.Path, inst)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": preds})
	}
	mux.HandleFunc("POST /v1/predict_proba", handler)
	mux.HandleFunc("POST /v1/decision_function", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteScorer_Scores(t *testing.T) {
	srv := newModelServer(t, func(path string, inst []any) any {
		amount, _ := inst[0].(float64)
		if path == "/v1/predict_proba" {
			return amount / 1000
		}
		return -amount / 100
	})
	scorer := ml.NewRemoteScorer(srv.URL+"/", time.Second, nil)

	vectors := []model.FeatureVector{vec(100, 0, 0, 0, 0), vec(500, 1, 2, 3, 4)}

	probs, err := scorer.PredictProbability(context.Background(), vectors)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5}, probs)

	scores, err := scorer.DecisionScore(context.Background(), vectors)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -5}, scores)
}

func TestRemoteScorer_NonFiniteTravelsAsNull(t *testing.T) {
	srv := newModelServer(t, func(_ string, inst []any) any {
		if inst[0] == nil {
			return nil
		}
		return 0.2
	})
	scorer := ml.NewRemoteScorer(srv.URL, time.Second, nil)

	probs, err := scorer.PredictProbability(context.Background(), []model.FeatureVector{
		vec(math.NaN(), 0, 0, 0, 0),
		vec(1, 0, 0, 0, 0),
	})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(probs[0]))
	assert.Equal(t, 0.2, probs[1])
}

func TestRemoteScorer_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model exploded", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		_, err := ml.NewRemoteScorer(srv.URL, time.Second, nil).
			PredictProbability(context.Background(), []model.FeatureVector{vec(1, 0, 0, 0, 0)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model exploded")
	})

	t.Run("prediction count mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"predictions":[0.1]}`))
		}))
		t.Cleanup(srv.Close)

		_, err := ml.NewRemoteScorer(srv.URL, time.Second, nil).
			DecisionScore(context.Background(), []model.FeatureVector{vec(1, 0, 0, 0, 0), vec(2, 0, 0, 0, 0)})
		require.Error(t, err)
	})

	t.Run("no vectors skips the call", func(t *testing.T) {
		scores, err := ml.NewRemoteScorer("http://127.0.0.1:1", time.Second, nil).
			DecisionScore(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, scores)
	})
}

func TestRemoteScorer_WaitReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	var notified int
	err := ml.NewRemoteScorer(srv.URL, time.Second, nil).
		WaitReady(context.Background(), 10*time.Second, func(error, time.Duration) { notified++ })
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, notified)
}

func TestRemoteScorer_WaitReadyGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	err := ml.NewRemoteScorer(srv.URL, time.Second, nil).
		WaitReady(context.Background(), 300*time.Millisecond, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProvidersUnavailable)
}
