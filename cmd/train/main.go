// Command train runs the offline training pipeline once and promotes the
// resulting bundle to latest.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/config"
	"github.com/synaptica-ai/mindmeter/pkg/common/database"
	"github.com/synaptica-ai/mindmeter/pkg/common/kafka"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/dataset"
	"github.com/synaptica-ai/mindmeter/pkg/training"
)

func main() {
	logger.Init()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Log.WithError(err).Error("Training failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	datasetPath := fs.String("dataset", cfg.DatasetPath, "Labelled dataset CSV")
	artifactDir := fs.String("artifacts", cfg.ArtifactDir, "Artifact directory")
	configPath := fs.String("config", cfg.TrainingConfigPath, "Training hyperparameter YAML (optional)")
	synthesize := fs.Int("synthesize", 0, "Write N synthetic rows to -dataset before training")
	synthSeed := fs.Int64("synthesize-seed", 42, "Seed for -synthesize")
	history := fs.Int("history", 0, "List the N most recent training runs and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var runs *training.Repository
	if cfg.TrainingRunLogEnabled || *history > 0 {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.ClosePostgres()
		runs = training.NewRepository(db)
		if err := runs.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate training run table: %w", err)
		}
	}

	if *history > 0 {
		list, err := training.ListRuns(ctx, runs, *history)
		if err != nil {
			return fmt.Errorf("list training runs: %w", err)
		}
		printHistory(stdout, list)
		return nil
	}

	if *synthesize > 0 {
		if err := writeSynthetic(*datasetPath, *synthesize, *synthSeed); err != nil {
			return fmt.Errorf("write synthetic dataset: %w", err)
		}
		logger.Log.WithFields(map[string]interface{}{
			"path": *datasetPath,
			"rows": *synthesize,
		}).Info("Synthetic dataset written")
	}

	trainCfg, err := training.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	var publisher training.EventPublisher
	if cfg.KafkaEventsEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTrainingTopic)
		defer producer.Close()
		publisher = producer
	}
	var store training.RunStore
	if runs != nil {
		store = runs
	}

	pipeline := training.NewPipeline(*datasetPath, artifact.NewFileStore(*artifactDir), trainCfg)
	result, err := training.NewService(store, publisher).Train(ctx, pipeline)
	if err != nil {
		return err
	}
	printSummary(stdout, result)
	return nil
}

func printHistory(out io.Writer, list []models.TrainingRun) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tVERSION\tSTARTED\tR2")
	for _, run := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", run.ID, run.Status, run.ArtifactVersion, run.StartedAt.Format("2006-01-02 15:04"), run.Metrics["r2"])
	}
	w.Flush()
}

func writeSynthetic(path string, rows int, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, dataset.Synthesize(rows, seed)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(out io.Writer, r *training.Result) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Bundle version\t%s\n", r.Bundle.Version())
	fmt.Fprintf(w, "Algorithm\t%s\n", r.Bundle.Manifest.Algorithm)
	fmt.Fprintf(w, "Rows (read/kept)\t%d/%d\n", r.Clean.Input, r.Clean.Output)
	fmt.Fprintf(w, "Train/test\t%d/%d\n", r.Metrics.TrainSamples, r.Metrics.TestSamples)
	fmt.Fprintf(w, "MAE\t%.4f\n", r.Metrics.MAE)
	fmt.Fprintf(w, "RMSE\t%.4f\n", r.Metrics.RMSE)
	fmt.Fprintf(w, "R2\t%.4f\n", r.Metrics.R2)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Feature\tImportance")
	for _, fi := range r.Bundle.Importances {
		fmt.Fprintf(w, "%s\t%.4f\n", fi.Feature, fi.Importance)
	}
	w.Flush()
}
