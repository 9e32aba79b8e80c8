package serving

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/kafka"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/gateway/middleware"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
	"github.com/synaptica-ai/mindmeter/pkg/serving/servingtest"
)

var (
	sharedBundle     *artifact.Bundle
	sharedBundleOnce sync.Once
)

func testPredictor(t *testing.T) *predictor.Predictor {
	t.Helper()
	sharedBundleOnce.Do(func() {
		_, sharedBundle = servingtest.TrainBundle(t)
	})
	require.NotNil(t, sharedBundle)
	return predictor.NewPredictor(sharedBundle)
}

type memoryCache struct {
	mu      sync.Mutex
	values  map[string]float64
	gets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]float64{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return 0, false, errors.New("redis unavailable")
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []PredictionEntry
	err     error
}

func (r *memoryRecorder) RecordPrediction(_ context.Context, entry PredictionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

type memoryPublisher struct {
	mu     sync.Mutex
	types  []string
	events []map[string]interface{}
}

func (p *memoryPublisher) PublishEvent(_ context.Context, eventType, _ string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	p.events = append(p.events, data)
	return nil
}

func TestServicePredictRecordsAndPublishes(t *testing.T) {
	rec := &memoryRecorder{}
	pub := &memoryPublisher{}
	svc := NewService(testPredictor(t), WithRecorder(rec), WithPublisher(pub))

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	value, err := svc.Predict(ctx, servingtest.SampleRecord())
	require.NoError(t, err)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, svc.Bundle().Version(), entry.BundleVersion)
	require.NotNil(t, entry.Prediction)
	assert.Equal(t, value, *entry.Prediction)
	assert.Empty(t, entry.ErrorKind)

	assert.Equal(t, []string{models.EventPredictionCompleted}, pub.types)
	assert.Equal(t, value, pub.events[0]["adherence_prediction"])
}

func TestServicePredictFailureIsReported(t *testing.T) {
	rec := &memoryRecorder{}
	pub := &memoryPublisher{}
	svc := NewService(testPredictor(t), WithRecorder(rec), WithPublisher(pub))

	record := servingtest.SampleRecord()
	flu := "Flu"
	record.Diagnosis = &flu

	_, err := svc.Predict(context.Background(), record)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnknownCategory))

	require.Len(t, rec.entries, 1)
	assert.Nil(t, rec.entries[0].Prediction)
	assert.Equal(t, string(apperr.KindUnknownCategory), rec.entries[0].ErrorKind)
	assert.Equal(t, []string{models.EventPredictionFailed}, pub.types)
}

func TestServiceCollaboratorFailuresDoNotLeak(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("db down")}
	cache := newMemoryCache()
	cache.failGet = true
	svc := NewService(testPredictor(t), WithRecorder(rec), WithCache(cache))

	want, err := predictor.NewPredictor(svc.Bundle()).Predict(servingtest.SampleRecord())
	require.NoError(t, err)

	got, err := svc.Predict(context.Background(), servingtest.SampleRecord())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServiceCacheSharesGenderSpellings(t *testing.T) {
	cache := newMemoryCache()
	svc := NewService(testPredictor(t), WithCache(cache))

	first, err := svc.Predict(context.Background(), servingtest.SampleRecord())
	require.NoError(t, err)
	require.Len(t, cache.values, 1)

	record := servingtest.SampleRecord()
	male := "Male"
	record.Gender = &male
	second, err := svc.Predict(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, cache.values, 1)
	assert.Equal(t, 2, cache.gets)
}

func TestCacheKeyScopesByBundleVersion(t *testing.T) {
	a, err := CacheKey("v1", servingtest.SampleRecord())
	require.NoError(t, err)
	b, err := CacheKey("v2", servingtest.SampleRecord())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	changed := servingtest.SampleRecord()
	age := 35
	changed.Age = &age
	c, err := CacheKey("v1", changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestScoringHandler(t *testing.T) {
	pub := &memoryPublisher{}
	svc := NewService(testPredictor(t), WithPublisher(pub), WithSource("scoring-worker"))
	handle := ScoringHandler(svc)

	record, err := recordMap(servingtest.SampleRecord())
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), models.Event{ID: "evt-1", Data: record}))

	require.NoError(t, handle(context.Background(), models.Event{ID: "evt-2", Data: map[string]interface{}{"Age": 30}}))

	err = handle(context.Background(), models.Event{ID: "evt-3", Data: map[string]interface{}{"Age": "thirty"}})
	assert.ErrorIs(t, err, kafka.ErrPoisonMessage)

	assert.Equal(t, []string{models.EventPredictionCompleted, models.EventPredictionFailed}, pub.types)
	assert.Equal(t, "evt-1", pub.events[0]["request_id"])
	assert.Equal(t, string(apperr.KindMissingFeature), pub.events[1]["kind"])
}
