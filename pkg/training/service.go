package training

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"gorm.io/datatypes"
)

// RunStore records training runs. *Repository implements it.
type RunStore interface {
	Create(ctx context.Context, run *RunModel) error
	Finish(ctx context.Context, runID uuid.UUID, status, artifactVersion string, metrics map[string]interface{}, errorMessage string) error
}

// EventPublisher matches kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const eventSource = "training"

// Service runs a pipeline and reports it to the optional run registry and
// event bus. Registry and publisher failures are logged, never returned.
type Service struct {
	runs      RunStore
	publisher EventPublisher
}

// NewService accepts nil for either collaborator.
func NewService(runs RunStore, publisher EventPublisher) *Service {
	return &Service{runs: runs, publisher: publisher}
}

func (s *Service) Train(ctx context.Context, p *Pipeline) (*Result, error) {
	runID := uuid.New()
	log := logger.WithComponent("training").WithField("run_id", runID.String())

	if s.runs != nil {
		started := time.Now().UTC()
		run := &RunModel{
			ID:          runID,
			Status:      StatusRunning,
			Algorithm:   p.Config.Algorithm,
			DatasetPath: p.DatasetPath,
			Config:      datatypes.JSONMap(configMap(p.Config)),
			CreatedAt:   started,
			UpdatedAt:   started,
			StartedAt:   &started,
		}
		if err := s.runs.Create(ctx, run); err != nil {
			log.WithError(err).Error("failed to record training run")
		}
	}

	result, err := p.Run(ctx)
	if err != nil {
		s.fail(ctx, runID, p, err)
		return nil, err
	}

	metrics := metricsMap(result.Metrics)
	if s.runs != nil {
		if err := s.runs.Finish(ctx, runID, StatusCompleted, result.Bundle.Version(), metrics, ""); err != nil {
			log.WithError(err).Error("failed to mark training run complete")
		}
	}
	s.publish(ctx, models.EventTrainingCompleted, map[string]interface{}{
		"run_id":           runID.String(),
		"artifact_version": result.Bundle.Version(),
		"algorithm":        result.Bundle.Manifest.Algorithm,
		"metrics":          metrics,
	})
	return result, nil
}

func (s *Service) fail(ctx context.Context, runID uuid.UUID, p *Pipeline, err error) {
	logger.WithComponent("training").WithError(err).
		WithField("run_id", runID.String()).
		WithField("kind", apperr.KindOf(err)).
		Error("Training run failed")
	if s.runs != nil {
		if ferr := s.runs.Finish(ctx, runID, StatusFailed, "", nil, err.Error()); ferr != nil {
			logger.Log.WithError(ferr).Error("failed to mark training run failed")
		}
	}
	s.publish(ctx, models.EventTrainingFailed, map[string]interface{}{
		"run_id":  runID.String(),
		"dataset": p.DatasetPath,
		"kind":    string(apperr.KindOf(err)),
		"error":   err.Error(),
	})
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish training event")
	}
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(ctx context.Context, repo *Repository, limit int) ([]models.TrainingRun, error) {
	runs, err := repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	results := make([]models.TrainingRun, 0, len(runs))
	for _, run := range runs {
		run := run
		results = append(results, toDomain(&run))
	}
	return results, nil
}
