package ml

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/fraud-detection/internal/domain/port"
)

// Source names accepted by Load.
const (
	SourceFile   = "file"
	SourceRemote = "remote"
)

// Options selects and configures the score providers.
type Options struct {
	TLS       *tls.Config
	Source    string
	File      string
	ServerURL string
	Timeout   time.Duration
	Wait      time.Duration
	CacheSize int
}

// Load builds the provider pair described by opts. Remote providers are
// only returned once the model server answers its health check. A positive
// CacheSize wraps both providers in LRU caches.
func Load(ctx context.Context, opts Options, logger *slog.Logger) (port.Classifier, port.AnomalyDetector, error) {
	var (
		classifier port.Classifier
		detector   port.AnomalyDetector
	)

	switch opts.Source {
	case SourceFile:
		c, d, err := LoadModelFile(opts.File)
		if err != nil {
			return nil, nil, err
		}
		classifier, detector = c, d
		logger.Info("loaded local models", slog.String("file", opts.File))

	case SourceRemote:
		scorer := NewRemoteScorer(opts.ServerURL, opts.Timeout, opts.TLS)
		err := scorer.WaitReady(ctx, opts.Wait, func(err error, next time.Duration) {
			logger.Warn("model server not ready",
				slog.String("url", opts.ServerURL),
				slog.Duration("retry_in", next),
				slog.String("error", err.Error()),
			)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("model server %s: %w", opts.ServerURL, err)
		}
		classifier, detector = scorer, scorer
		logger.Info("model server ready", slog.String("url", opts.ServerURL))

	default:
		return nil, nil, fmt.Errorf("unknown model source %q", opts.Source)
	}

	if opts.CacheSize <= 0 {
		return classifier, detector, nil
	}

	cachedClassifier, err := NewCachedClassifier(classifier, opts.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	cachedDetector, err := NewCachedDetector(detector, opts.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cachedClassifier, cachedDetector, nil
}
