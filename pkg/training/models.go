package training

import (
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"gorm.io/datatypes"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunModel is one row of the training run registry.
type RunModel struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;column:id"`
	Status          string            `gorm:"column:status;index"`
	Algorithm       string            `gorm:"column:algorithm"`
	DatasetPath     string            `gorm:"column:dataset_path"`
	Config          datatypes.JSONMap `gorm:"column:config"`
	ArtifactVersion string            `gorm:"column:artifact_version"`
	Metrics         datatypes.JSONMap `gorm:"column:metrics"`
	ErrorMessage    string            `gorm:"column:error_message"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
	StartedAt       *time.Time        `gorm:"column:started_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
}

func (RunModel) TableName() string {
	return "training_runs"
}

func toDomain(run *RunModel) models.TrainingRun {
	result := models.TrainingRun{
		ID:              run.ID.String(),
		Status:          run.Status,
		DatasetPath:     run.DatasetPath,
		ArtifactVersion: run.ArtifactVersion,
		ErrorMessage:    run.ErrorMessage,
		StartedAt:       run.CreatedAt,
		CompletedAt:     run.CompletedAt,
	}
	if run.StartedAt != nil {
		result.StartedAt = *run.StartedAt
	}
	if run.Metrics != nil {
		result.Metrics = map[string]interface{}(run.Metrics)
	}
	return result
}

func metricsMap(m models.EvaluationMetrics) map[string]interface{} {
	return map[string]interface{}{
		"mae":           m.MAE,
		"rmse":          m.RMSE,
		"r2":            m.R2,
		"train_samples": m.TrainSamples,
		"test_samples":  m.TestSamples,
	}
}

func configMap(c Config) map[string]interface{} {
	return map[string]interface{}{
		"algorithm":     c.Algorithm,
		"test_fraction": c.TestFraction,
		"split_seed":    c.SplitSeed,
		"gbrt": map[string]interface{}{
			"n_estimators":     c.Boost.Estimators,
			"learning_rate":    c.Boost.LearningRate,
			"max_depth":        c.Boost.MaxDepth,
			"subsample":        c.Boost.Subsample,
			"colsample_bytree": c.Boost.ColSample,
			"min_samples_leaf": c.Boost.MinSamplesLeaf,
			"lambda":           c.Boost.Lambda,
			"max_bins":         c.Boost.MaxBins,
			"seed":             c.Boost.Seed,
		},
		"linear": map[string]interface{}{
			"epochs":        c.Linear.Epochs,
			"learning_rate": c.Linear.LearningRate,
		},
	}
}
