package serving

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/synaptica-ai/mindmeter/pkg/common/kafka"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/gateway/middleware"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
)

// ScoringHandler scores events whose data is one patient record. The event id
// becomes the request id. Outcomes are reported by the service's publisher,
// so prediction errors are not retried; only undecodable events are poison.
func ScoringHandler(s *Service) kafka.EventHandler {
	return func(ctx context.Context, event models.Event) error {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("%w: event %s: %v", kafka.ErrPoisonMessage, event.ID, err)
		}
		record, err := predictor.DecodeRecord(payload)
		if err != nil {
			return fmt.Errorf("%w: event %s: %v", kafka.ErrPoisonMessage, event.ID, err)
		}
		_, _ = s.Predict(middleware.WithRequestID(ctx, event.ID), record)
		return nil
	}
}
