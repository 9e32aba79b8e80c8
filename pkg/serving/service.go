// Package serving wraps the predictor with the optional prediction cache,
// audit log and event stream, and exposes it over HTTP.
package serving

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/gateway/middleware"
	"github.com/synaptica-ai/mindmeter/pkg/observability/metrics"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
)

// Publisher matches kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Service is safe for concurrent use. Failures of the cache, recorder or
// publisher are logged and never change a prediction's outcome.
type Service struct {
	predictor *predictor.Predictor
	cache     Cache
	recorder  Recorder
	publisher Publisher
	source    string
	log       *logrus.Entry
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithSource names the entry point in logs, audit rows and events.
func WithSource(source string) Option {
	return func(s *Service) { s.source = source }
}

func NewService(p *predictor.Predictor, opts ...Option) *Service {
	s := &Service{predictor: p, source: "serving-service"}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.WithComponent(s.source)
	bundle := p.Bundle()
	metrics.SetBundle(bundle.Version(), bundle.Manifest.Algorithm)
	return s
}

func (s *Service) Bundle() *artifact.Bundle {
	return s.predictor.Bundle()
}

// Predict returns the rounded adherence prediction for record.
func (s *Service) Predict(ctx context.Context, record models.PatientRecord) (float64, error) {
	start := time.Now()
	requestID := middleware.RequestID(ctx)
	version := s.Bundle().Version()
	log := s.log.WithFields(logrus.Fields{"request_id": requestID, "bundle_version": version})

	cacheKey := s.cacheKey(version, record, log)
	if cacheKey != "" {
		if value, ok := s.cacheGet(ctx, cacheKey, log); ok {
			metrics.RecordPrediction(time.Since(start), "")
			log.WithField("adherence_prediction", value).Debug("Prediction served from cache")
			return value, nil
		}
	}

	value, err := s.predictor.Predict(record)
	latency := time.Since(start)

	entry := PredictionEntry{
		RequestID:     requestID,
		Source:        s.source,
		BundleVersion: version,
		Record:        record,
		Latency:       latency,
	}
	if err != nil {
		kind := apperr.KindOf(err)
		metrics.RecordPrediction(latency, string(kind))
		log.WithError(err).WithField("kind", kind).Warn("Prediction failed")

		entry.ErrorKind = string(kind)
		entry.ErrorMessage = err.Error()
		s.record(ctx, entry, log)
		s.publish(ctx, models.EventPredictionFailed, map[string]interface{}{
			"request_id":     requestID,
			"bundle_version": version,
			"kind":           string(kind),
			"error":          err.Error(),
		}, log)
		return 0, err
	}

	metrics.RecordPrediction(latency, "")
	log.WithFields(logrus.Fields{
		"adherence_prediction": value,
		"latency_ms":           float64(latency.Microseconds()) / 1000.0,
	}).Info("Prediction completed")

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, value); err != nil {
			log.WithError(err).Warn("failed to cache prediction")
		}
	}
	entry.Prediction = &value
	s.record(ctx, entry, log)
	s.publish(ctx, models.EventPredictionCompleted, map[string]interface{}{
		"request_id":           requestID,
		"bundle_version":       version,
		"adherence_prediction": value,
	}, log)
	return value, nil
}

func (s *Service) cacheKey(version string, record models.PatientRecord, log *logrus.Entry) string {
	if s.cache == nil {
		return ""
	}
	key, err := CacheKey(version, record)
	if err != nil {
		log.WithError(err).Warn("failed to build cache key")
		return ""
	}
	return key
}

func (s *Service) cacheGet(ctx context.Context, key string, log *logrus.Entry) (float64, bool) {
	value, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		log.WithError(err).Warn("prediction cache lookup failed")
		return 0, false
	case ok:
		metrics.RecordCacheLookup("hit")
		return value, true
	default:
		metrics.RecordCacheLookup("miss")
		return 0, false
	}
}

func (s *Service) record(ctx context.Context, entry PredictionEntry, log *logrus.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordPrediction(ctx, entry); err != nil {
		log.WithError(err).Warn("failed to record prediction")
	}
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}, log *logrus.Entry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, s.source, data); err != nil {
		log.WithError(err).WithField("event_type", eventType).Warn("failed to publish prediction event")
	}
}
