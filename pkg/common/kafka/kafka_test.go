package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

func TestEncodeDecodeEvent(t *testing.T) {
	event := models.Event{
		ID:        "evt-1",
		Type:      models.EventPredictionCompleted,
		Source:    "scoring-worker",
		Data:      map[string]interface{}{"adherence_prediction": 71.25},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	message, err := encodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, []byte("evt-1"), message.Key)
	require.Len(t, message.Headers, 2)
	assert.Equal(t, "event-type", message.Headers[0].Key)
	assert.Equal(t, models.EventPredictionCompleted, string(message.Headers[0].Value))

	decoded, err := decodeEvent(message.Value)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, 71.25, decoded.Data["adherence_prediction"])
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := decodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestHandleEventRetriesTransientFailures(t *testing.T) {
	handlerRetryDelay = time.Millisecond
	t.Cleanup(func() { handlerRetryDelay = 250 * time.Millisecond })

	calls := 0
	err := handleEvent(context.Background(), func(context.Context, models.Event) error {
		calls++
		if calls < 2 {
			return errors.New("database unavailable")
		}
		return nil
	}, models.Event{ID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = handleEvent(context.Background(), func(context.Context, models.Event) error {
		calls++
		return errors.New("database unavailable")
	}, models.Event{ID: "evt-2"})
	assert.EqualError(t, err, "database unavailable")
	assert.Equal(t, handlerAttempts, calls)
}

func TestHandleEventDoesNotRetryPoison(t *testing.T) {
	calls := 0
	err := handleEvent(context.Background(), func(context.Context, models.Event) error {
		calls++
		return fmt.Errorf("%w: bad payload", ErrPoisonMessage)
	}, models.Event{ID: "evt-3"})
	assert.ErrorIs(t, err, ErrPoisonMessage)
	assert.Equal(t, 1, calls)
}
