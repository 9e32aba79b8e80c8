package boost

import (
	"math"
	"math/rand"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthetic(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	samples := make([][]float64, n)
	labels := make([]float64, n)
	for i := range samples {
		x0 := rng.Float64() * 10
		x1 := float64(rng.Intn(3))
		noise := rng.Float64()
		samples[i] = []float64{x0, x1, noise}
		labels[i] = 50 + 3*x0
		if x1 == 2 {
			labels[i] += 15
		}
	}
	return samples, labels
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Estimators = 120
	opts.LearningRate = 0.1
	opts.MaxDepth = 4
	return opts
}

func TestTrainFitsNonLinearTarget(t *testing.T) {
	samples, labels := synthetic(400, 1)
	model, err := Train(samples, labels, smallOptions())
	require.NoError(t, err)
	require.NoError(t, model.Validate())
	assert.Len(t, model.Trees, 120)

	var sse, sst float64
	for i, s := range samples {
		d := model.Predict(s) - labels[i]
		sse += d * d
		m := labels[i] - model.BaseScore
		sst += m * m
	}
	assert.Greater(t, 1-sse/sst, 0.95)

	imp := model.FeatureImportances()
	require.Len(t, imp, 3)
	var total float64
	for _, v := range imp {
		total += v
	}
	assert.InDelta(t, 1, total, 1e-9)
	assert.Greater(t, imp[0], imp[2])
	assert.Greater(t, imp[1], imp[2])
}

func TestTrainIsDeterministic(t *testing.T) {
	samples, labels := synthetic(200, 2)
	a, err := Train(samples, labels, smallOptions())
	require.NoError(t, err)
	b, err := Train(samples, labels, smallOptions())
	require.NoError(t, err)

	probe := []float64{4.2, 2, 0.5}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))
}

func TestPredictionsStayWithinLabelRange(t *testing.T) {
	samples, labels := synthetic(300, 3)
	model, err := Train(samples, labels, smallOptions())
	require.NoError(t, err)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range labels {
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}
	for _, probe := range [][]float64{{-100, 0, 0}, {100, 2, 1}, {5, 1, 0.3}} {
		p := model.Predict(probe)
		assert.GreaterOrEqual(t, p, lo-1)
		assert.LessOrEqual(t, p, hi+1)
	}
}

func TestModelJSONRoundTrip(t *testing.T) {
	samples, labels := synthetic(100, 4)
	model, err := Train(samples, labels, smallOptions())
	require.NoError(t, err)

	payload, err := json.Marshal(model)
	require.NoError(t, err)
	var restored Model
	require.NoError(t, json.Unmarshal(payload, &restored))
	require.NoError(t, restored.Validate())

	for _, s := range samples[:10] {
		assert.Equal(t, model.Predict(s), restored.Predict(s))
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	_, err := Train(nil, nil, DefaultOptions())
	assert.Error(t, err)

	_, err = Train([][]float64{{1, 2}, {1}}, []float64{1, 2}, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Subsample = 1.5
	_, err = Train([][]float64{{1}}, []float64{1}, opts)
	assert.Error(t, err)
}

func TestCutPoints(t *testing.T) {
	assert.Nil(t, cutPoints([]float64{3, 3, 3}, 256))
	assert.Equal(t, []float64{1.5, 2.5}, cutPoints([]float64{3, 1, 2, 1}, 256))

	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	th := cutPoints(values, 16)
	assert.Len(t, th, 15)
	assert.Equal(t, 0, binOf(th, -5))
	assert.Equal(t, 15, binOf(th, 5000))
}
