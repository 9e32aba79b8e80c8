// Package training turns a labelled dataset into a saved model artifact bundle.
package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/dataset"
	"github.com/synaptica-ai/mindmeter/pkg/features"
	"github.com/synaptica-ai/mindmeter/pkg/ml"
	"github.com/synaptica-ai/mindmeter/pkg/ml/boost"
	"github.com/synaptica-ai/mindmeter/pkg/ml/linear"
	"gonum.org/v1/gonum/stat"
)

// Result summarises a successful run.
type Result struct {
	Bundle   *artifact.Bundle
	Clean    dataset.CleanStats
	Metrics  models.EvaluationMetrics
	Duration time.Duration
}

// Pipeline is a single offline training run. It owns DatasetPath and Store
// for the duration of Run.
type Pipeline struct {
	DatasetPath string
	Store       artifact.Store
	Config      Config

	log *logrus.Entry
}

func NewPipeline(datasetPath string, store artifact.Store, cfg Config) *Pipeline {
	return &Pipeline{
		DatasetPath: datasetPath,
		Store:       store,
		Config:      cfg,
		log:         logger.WithComponent("training"),
	}
}

// Run executes every stage in order. Any failure aborts the run and nothing
// is promoted to latest.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if p.log == nil {
		p.log = logger.WithComponent("training")
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	table, err := dataset.ReadFile(p.DatasetPath)
	if err != nil {
		return nil, err
	}
	cleaned, stats, err := dataset.Clean(table)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"dataset":    p.DatasetPath,
		"rows":       stats.Input,
		"duplicates": stats.Duplicates,
		"incomplete": stats.Incomplete,
		"kept":       stats.Output,
	}).Info("Dataset cleaned")

	examples, err := dataset.Parse(cleaned)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoders := FitEncoders(examples)
	vectors, labels, err := AssembleAll(examples, encoders)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := SplitIndices(len(vectors), p.Config.TestFraction, p.Config.SplitSeed)
	if err != nil {
		return nil, err
	}

	scaler, err := features.FitScaler(features.NumericColumns, numericRows(vectors, trainIdx))
	if err != nil {
		return nil, apperr.TrainingData("fit scaler", err)
	}
	trainX, trainY, err := scaledRows(scaler, vectors, labels, trainIdx)
	if err != nil {
		return nil, err
	}
	testX, testY, err := scaledRows(scaler, vectors, labels, testIdx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"algorithm": p.Config.Algorithm,
		"train":     len(trainX),
		"test":      len(testX),
	}).Info("Fitting regressor")
	model, err := p.fit(trainX, trainY)
	if err != nil {
		return nil, err
	}

	metrics := Evaluate(model, testX, testY)
	metrics.TrainSamples = len(trainX)
	metrics.TestSamples = len(testX)

	manifest := artifact.NewManifest(uuid.New().String(), model.Algorithm(), metrics)
	manifest.DatasetPath = p.DatasetPath
	bundle, err := artifact.NewBundle(manifest, model, encoders, scaler)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := artifact.Save(p.Store, bundle); err != nil {
		return nil, fmt.Errorf("save bundle: %w", err)
	}

	result := &Result{
		Bundle:   bundle,
		Clean:    stats,
		Metrics:  metrics,
		Duration: time.Since(start),
	}
	p.logResult(result)
	return result, nil
}

func (p *Pipeline) fit(samples [][]float64, labels []float64) (ml.Regressor, error) {
	switch p.Config.Algorithm {
	case linear.Algorithm:
		model, fitMetrics := linear.Train(samples, labels, p.Config.Linear)
		p.log.WithField("train_mse", fitMetrics.MSE).Debug("Linear fit finished")
		return model, nil
	default:
		model, err := boost.Train(samples, labels, p.Config.Boost)
		if err != nil {
			return nil, apperr.TrainingData("fit regressor", err)
		}
		return model, nil
	}
}

func (p *Pipeline) logResult(r *Result) {
	p.log.WithFields(logrus.Fields{
		"version":  r.Bundle.Version(),
		"mae":      r.Metrics.MAE,
		"rmse":     r.Metrics.RMSE,
		"r2":       r.Metrics.R2,
		"duration": r.Duration.String(),
	}).Info("Training run completed")

	top := r.Bundle.Importances
	if len(top) > 10 {
		top = top[:10]
	}
	for rank, fi := range top {
		p.log.WithFields(logrus.Fields{
			"rank":       rank + 1,
			"feature":    fi.Feature,
			"importance": fi.Importance,
		}).Info("Feature importance")
	}
}

// FitEncoders fits one label encoder per categorical column over every example.
func FitEncoders(examples []dataset.Example) features.EncoderSet {
	values := make(map[string][]string, len(features.CategoricalColumns))
	for _, ex := range examples {
		for column, value := range ex.Record.Categorical() {
			values[column] = append(values[column], value)
		}
	}
	return features.FitEncoders(values)
}

// AssembleAll builds the unscaled feature matrix with the same code path the
// serving transformer uses.
func AssembleAll(examples []dataset.Example, encoders features.EncoderSet) ([]features.Vector, []float64, error) {
	vectors := make([]features.Vector, len(examples))
	labels := make([]float64, len(examples))
	for i, ex := range examples {
		vec, err := features.Assemble(ex.Record, encoders)
		if err != nil {
			return nil, nil, apperr.TrainingData(fmt.Sprintf("example %d", i), err)
		}
		vectors[i] = vec
		labels[i] = ex.Label
	}
	return vectors, labels, nil
}

// SplitIndices shuffles 0..n-1 with a fixed seed and holds out ceil(fraction*n)
// of them. The same inputs always give the same partition.
func SplitIndices(n int, fraction float64, seed int64) (train, test []int, err error) {
	testSize := int(math.Ceil(fraction*float64(n) - 1e-9))
	if testSize <= 0 || testSize >= n {
		return nil, nil, apperr.TrainingData(
			fmt.Sprintf("degenerate split: %d rows with test fraction %.2f", n, fraction), nil)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[testSize:], perm[:testSize], nil
}

func numericRows(vectors []features.Vector, idx []int) [][]float64 {
	rows := make([][]float64, len(idx))
	for r, i := range idx {
		row := make([]float64, len(features.NumericColumns))
		for j, name := range features.NumericColumns {
			pos, _ := features.Index(name)
			row[j] = vectors[i][pos]
		}
		rows[r] = row
	}
	return rows
}

func scaledRows(scaler *features.Scaler, vectors []features.Vector, labels []float64, idx []int) ([][]float64, []float64, error) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for r, i := range idx {
		vec, err := scaler.TransformVector(vectors[i])
		if err != nil {
			return nil, nil, apperr.TrainingData("scale features", err)
		}
		x[r] = vec.Slice()
		y[r] = labels[i]
	}
	return x, y, nil
}

// Evaluate scores a regressor on held-out rows. Predictions are not rounded.
func Evaluate(model ml.Regressor, samples [][]float64, labels []float64) models.EvaluationMetrics {
	if len(samples) == 0 {
		return models.EvaluationMetrics{}
	}
	predictions := make([]float64, len(samples))
	var absErr, sqErr float64
	for i, sample := range samples {
		predictions[i] = model.Predict(sample)
		diff := predictions[i] - labels[i]
		absErr += math.Abs(diff)
		sqErr += diff * diff
	}
	n := float64(len(samples))
	return models.EvaluationMetrics{
		MAE:  absErr / n,
		RMSE: math.Sqrt(sqErr / n),
		R2:   stat.RSquaredFrom(predictions, labels, nil),
	}
}
