// Command fraudscore scores a CSV file of transactions offline with the
// local model file and prints the batch report.
//
//	fraudscore -file data.csv [-format json|csv] [-models models/models.yaml]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/application/usecase"
	"github.com/bibbank/fraud-detection/internal/domain/service"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
	"github.com/bibbank/fraud-detection/internal/infrastructure/csvtable"
	"github.com/bibbank/fraud-detection/internal/infrastructure/kafka"
	"github.com/bibbank/fraud-detection/internal/infrastructure/metrics"
	"github.com/bibbank/fraud-detection/internal/infrastructure/ml"
	"github.com/bibbank/fraud-detection/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "fraudscore:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fraudscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file       = fs.String("file", "", "CSV file to score (required)")
		format     = fs.String("format", "json", "output format: json or csv")
		models     = fs.String("models", "models/models.yaml", "local model parameter file")
		workers    = fs.Int("workers", runtime.NumCPU(), "concurrent scoring workers")
		logLevel   = fs.String("log-level", "warn", "log level")
		classifier = fs.String("classifier-label", "Random Forest", "classifier name in flagged_by")
		detector   = fs.String("detector-label", "Isolation Forest", "anomaly detector name in flagged_by")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errors.New("-file is required")
	}
	if *format != "json" && *format != "csv" {
		return fmt.Errorf("unknown format %q", *format)
	}

	logger := observability.NewLogger(observability.LogConfig{Level: *logLevel, Format: "text"}, stderr)

	c, d, err := ml.Load(ctx, ml.Options{Source: ml.SourceFile, File: *models}, logger)
	if err != nil {
		return err
	}
	registry := ml.NewRegistry()
	registry.Publish(c, d)

	recorder, err := metrics.NewRecorder(noop.NewMeterProvider())
	if err != nil {
		return err
	}

	labels := valueobject.DetectorLabels{Classifier: *classifier, Anomaly: *detector}
	scoreBatch := usecase.NewScoreBatch(registry, csvtable.NewReader(), service.NewBatchIngestor(),
		service.NewDecisionEngine(), kafka.NewLogPublisher(logger), recorder,
		usecase.BatchOptions{Workers: *workers}, logger)

	in, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	report, err := scoreBatch.Execute(ctx, dto.ScoreBatchRequest{Filename: *file, Content: in})
	if err != nil {
		return err
	}

	if *format == "csv" {
		return csvtable.WriteReport(stdout, report, labels)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.FromBatchReport(report, labels))
}
