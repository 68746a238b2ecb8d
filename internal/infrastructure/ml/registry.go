package ml

import (
	"sync/atomic"

	"github.com/bibbank/fraud-detection/internal/domain/model"
	"github.com/bibbank/fraud-detection/internal/domain/port"
)

type providerPair struct {
	classifier port.Classifier
	detector   port.AnomalyDetector
}

// Registry publishes the score providers once both are loaded. It
// implements port.ProviderSource and is safe for concurrent use.
type Registry struct {
	current atomic.Pointer[providerPair]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Publish installs both providers. A nil provider leaves the registry unavailable.
func (r *Registry) Publish(classifier port.Classifier, detector port.AnomalyDetector) {
	if classifier == nil || detector == nil {
		r.current.Store(nil)
		return
	}
	r.current.Store(&providerPair{classifier: classifier, detector: detector})
}

// Providers returns the published pair or model.ErrProvidersUnavailable.
func (r *Registry) Providers() (port.Classifier, port.AnomalyDetector, error) {
	p := r.current.Load()
	if p == nil {
		return nil, nil, model.ErrProvidersUnavailable
	}
	return p.classifier, p.detector, nil
}

// Ready reports whether providers have been published.
func (r *Registry) Ready() bool {
	return r.current.Load() != nil
}
