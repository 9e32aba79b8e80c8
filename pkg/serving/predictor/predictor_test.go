package predictor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/serving/servingtest"
)

func TestPredictSampleRecord(t *testing.T) {
	dir, bundle := servingtest.TrainBundle(t)
	p, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, bundle.Version(), p.Bundle().Version())

	score, err := p.Predict(servingtest.SampleRecord())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
	assert.Equal(t, artifact.Round2(score), score)
}

func TestGenderSpellingsShareOnePrediction(t *testing.T) {
	_, bundle := servingtest.TrainBundle(t)
	p := NewPredictor(bundle)

	var scores []float64
	for _, g := range []string{"homme", " MALE ", "m", "H"} {
		rec := servingtest.SampleRecord()
		rec.Gender = &g
		score, err := p.Predict(rec)
		require.NoError(t, err)
		scores = append(scores, score)
	}
	for _, s := range scores[1:] {
		assert.Equal(t, scores[0], s)
	}
}

func TestPredictErrorsCarryKind(t *testing.T) {
	_, bundle := servingtest.TrainBundle(t)
	p := NewPredictor(bundle)

	unknown := servingtest.SampleRecord()
	flu := "Flu"
	unknown.Diagnosis = &flu

	badDate := servingtest.SampleRecord()
	notADate := "not-a-date"
	badDate.TreatmentStartDate = &notADate

	missing := servingtest.SampleRecord()
	missing.StressLevel = nil

	outOfRange := servingtest.SampleRecord()
	eleven := 11
	outOfRange.MoodScore = &eleven

	cases := []struct {
		name   string
		record models.PatientRecord
		kind   apperr.Kind
		field  string
	}{
		{"unknown diagnosis", unknown, apperr.KindUnknownCategory, "Diagnosis"},
		{"bad date", badDate, apperr.KindInvalidDate, "Treatment Start Date"},
		{"missing stress", missing, apperr.KindMissingFeature, "Stress Level (1-10)"},
		{"mood out of range", outOfRange, apperr.KindInvalidRecord, "Mood Score (1-10)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, err := p.Predict(tc.record)
			require.Error(t, err)
			assert.Zero(t, score)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestPredictIsSafeForConcurrentUse(t *testing.T) {
	_, bundle := servingtest.TrainBundle(t)
	p := NewPredictor(bundle)
	want, err := p.Predict(servingtest.SampleRecord())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Predict(servingtest.SampleRecord())
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(servingtest.SampleJSON))
	require.NoError(t, err)
	assert.Equal(t, servingtest.SampleRecord(), rec)

	_, err = DecodeRecord([]byte(`{"Age": "thirty"}`))
	assert.True(t, apperr.Is(err, apperr.KindInvalidRecord))

	_, err = DecodeRecord([]byte("  "))
	assert.True(t, apperr.Is(err, apperr.KindInvalidRecord))

	rec, err = DecodeRecord([]byte(`{"Age": 40, "Extra": "ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, 40, *rec.Age)
	assert.Nil(t, rec.Gender)
}

func TestLoadWithoutBundle(t *testing.T) {
	_, err := Load(t.TempDir(), "")
	assert.True(t, apperr.Is(err, apperr.KindArtifactLoad))
}
