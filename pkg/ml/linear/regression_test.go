package linear

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainRecoversLinearRelation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([][]float64, 200)
	labels := make([]float64, 200)
	for i := range samples {
		x0, x1 := rng.NormFloat64(), rng.NormFloat64()
		samples[i] = []float64{x0, x1}
		labels[i] = 3*x0 - 0.5*x1 + 60
	}

	model, metrics := Train(samples, labels, Options{Epochs: 2000, LearningRate: 0.1})
	require.Equal(t, 2, model.NumFeatures())
	assert.InDelta(t, 3, model.Weights.Coefficients[0], 0.01)
	assert.InDelta(t, -0.5, model.Weights.Coefficients[1], 0.01)
	assert.InDelta(t, 60, model.Weights.Bias, 0.01)
	assert.Less(t, metrics.MSE, 1e-3)

	imp := model.FeatureImportances()
	assert.InDelta(t, 1, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1])
}

func TestTrainEmpty(t *testing.T) {
	model, _ := Train(nil, nil, Options{})
	assert.Equal(t, 0, model.NumFeatures())
}
