package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/training"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRAINING_RUN_LOG_ENABLED", "false")
	t.Setenv("KAFKA_EVENTS_ENABLED", "false")
	t.Setenv("TRAINING_CONFIG", "")
}

func TestSyntheticDatasetTrainsAndSummarises(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthetic.csv")
	require.NoError(t, writeSynthetic(path, 120, 42))

	cfg := training.DefaultConfig()
	cfg.Boost.Estimators = 30
	result, err := training.NewPipeline(path, artifact.NewFileStore(filepath.Join(dir, "artifacts")), cfg).Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	printSummary(&out, result)
	assert.Contains(t, out.String(), result.Bundle.Version())
	assert.Contains(t, out.String(), "Start_Year")
	assert.Contains(t, out.String(), "Train/test")
}

func TestRunSynthesizesTrainsAndPromotes(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("gbrt:\n  n_estimators: 20\n  max_depth: 3\n"), 0o644))
	artifactDir := filepath.Join(dir, "artifacts")

	var out bytes.Buffer
	err := run([]string{
		"-dataset", filepath.Join(dir, "synthetic.csv"),
		"-artifacts", artifactDir,
		"-config", configPath,
		"-synthesize", "150",
	}, &out)
	require.NoError(t, err)

	latest, err := artifact.NewFileStore(artifactDir).Latest()
	require.NoError(t, err)
	assert.Contains(t, out.String(), latest)
	assert.Contains(t, out.String(), "120/30")
}

func TestRunReturnsErrors(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()

	err := run([]string{"-dataset", filepath.Join(dir, "missing.csv"), "-artifacts", dir}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTrainingData))

	assert.Error(t, run([]string{"-no-such-flag"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"extra"}, &bytes.Buffer{}))
	assert.NoError(t, run([]string{"-h"}, &bytes.Buffer{}))
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, []models.TrainingRun{{
		ID:              "run-1",
		Status:          "completed",
		ArtifactVersion: "v7",
		Metrics:         map[string]interface{}{"r2": 0.81},
		StartedAt:       time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}})
	assert.Contains(t, out.String(), "RUN")
	assert.Contains(t, out.String(), "run-1")
	assert.Contains(t, out.String(), "2024-05-01 09:30")
	assert.Contains(t, out.String(), "0.81")
}
