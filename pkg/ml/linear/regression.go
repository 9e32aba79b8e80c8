package linear

import "math"

const Algorithm = "linear"

type Options struct {
	Epochs       int     `yaml:"epochs" json:"epochs"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
}

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

type Metrics struct {
	MSE float64
}

// Model is a least-squares linear regressor.
type Model struct {
	Weights Weights `json:"weights"`
}

// Train fits y ~ w·x + b by full-batch gradient descent on squared error.
// Each coefficient's step is divided by its feature's mean square, which keeps
// unscaled columns such as label codes from diverging.
func Train(samples [][]float64, labels []float64, opts Options) (*Model, Metrics) {
	if opts.Epochs <= 0 {
		opts.Epochs = 500
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.05
	}

	n := len(samples)
	if n == 0 {
		return &Model{}, Metrics{}
	}
	featureCount := len(samples[0])
	weights := make([]float64, featureCount)
	var bias float64
	for _, y := range labels {
		bias += y
	}
	bias /= float64(n)

	step := make([]float64, featureCount)
	for j := range step {
		var sq float64
		for _, sample := range samples {
			sq += sample[j] * sample[j]
		}
		sq /= float64(n)
		if sq == 0 {
			sq = 1
		}
		step[j] = opts.LearningRate / sq
	}

	grad := make([]float64, featureCount)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var biasGrad float64
		for i, sample := range samples {
			residual := dot(weights, sample) + bias - labels[i]
			for j := 0; j < featureCount; j++ {
				grad[j] += residual * sample[j]
			}
			biasGrad += residual
		}
		for j := 0; j < featureCount; j++ {
			weights[j] -= step[j] * grad[j] / float64(n)
		}
		bias -= opts.LearningRate * biasGrad / float64(n)
	}

	model := &Model{Weights: Weights{Bias: bias, Coefficients: weights}}
	return model, Metrics{MSE: model.mse(samples, labels)}
}

func (m *Model) Predict(sample []float64) float64 {
	return dot(m.Weights.Coefficients, sample) + m.Weights.Bias
}

func (m *Model) NumFeatures() int {
	return len(m.Weights.Coefficients)
}

func (m *Model) Algorithm() string {
	return Algorithm
}

// FeatureImportances are absolute coefficients normalised to sum to one.
func (m *Model) FeatureImportances() []float64 {
	out := make([]float64, len(m.Weights.Coefficients))
	var total float64
	for i, c := range m.Weights.Coefficients {
		out[i] = math.Abs(c)
		total += out[i]
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func (m *Model) mse(samples [][]float64, labels []float64) float64 {
	var loss float64
	for i, sample := range samples {
		d := m.Predict(sample) - labels[i]
		loss += d * d
	}
	return loss / float64(len(samples))
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}
