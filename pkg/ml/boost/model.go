// Package boost implements gradient-boosted regression trees with squared
// error loss, histogram split finding, shrinkage, row and column subsampling.
package boost

import (
	"fmt"
	"math/rand"
	"sort"
)

const Algorithm = "gbrt"

// Model is a fitted ensemble. It is immutable after Train returns.
type Model struct {
	BaseScore   float64   `json:"base_score"`
	Features    int       `json:"n_features"`
	Options     Options   `json:"options"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`
}

// Train fits an ensemble to samples (rows x features) against labels.
func Train(samples [][]float64, labels []float64, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	n := len(samples)
	if n == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(labels) != n {
		return nil, fmt.Errorf("have %d samples but %d labels", n, len(labels))
	}
	featureCount := len(samples[0])
	if featureCount == 0 {
		return nil, fmt.Errorf("samples have no features")
	}
	for i, s := range samples {
		if len(s) != featureCount {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(s), featureCount)
		}
	}

	var base float64
	for _, y := range labels {
		base += y
	}
	base /= float64(n)

	model := &Model{
		BaseScore: base,
		Features:  featureCount,
		Options:   opts,
		Trees:     make([]Tree, 0, opts.Estimators),
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	data := binFeatures(samples, featureCount, opts.MaxBins)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	residual := make([]float64, n)
	gains := make([]float64, featureCount)

	rowCount := fraction(n, opts.Subsample)
	colCount := fraction(featureCount, opts.ColSample)

	for t := 0; t < opts.Estimators; t++ {
		for i := range residual {
			residual[i] = labels[i] - pred[i]
		}

		var rows []int
		if rowCount < n {
			rows = rng.Perm(n)[:rowCount]
		} else {
			rows = make([]int, n)
			for i := range rows {
				rows[i] = i
			}
		}
		var cols []int
		if colCount < featureCount {
			cols = rng.Perm(featureCount)[:colCount]
			sort.Ints(cols)
		} else {
			cols = make([]int, featureCount)
			for i := range cols {
				cols[i] = i
			}
		}

		builder := newTreeBuilder(data, residual, cols, opts, gains)
		builder.grow(rows, 0)
		tree := *builder.tree
		model.Trees = append(model.Trees, tree)

		for i, s := range samples {
			pred[i] += tree.Predict(s)
		}
	}

	model.Importances = normalise(gains)
	return model, nil
}

func (m *Model) Predict(sample []float64) float64 {
	out := m.BaseScore
	for i := range m.Trees {
		out += m.Trees[i].Predict(sample)
	}
	return out
}

func (m *Model) NumFeatures() int {
	return m.Features
}

func (m *Model) Algorithm() string {
	return Algorithm
}

// FeatureImportances are total split gains per feature, normalised to sum to one.
func (m *Model) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}

// Validate checks the structural integrity of a deserialised model.
func (m *Model) Validate() error {
	if m.Features <= 0 {
		return fmt.Errorf("model has no features")
	}
	if len(m.Importances) != m.Features {
		return fmt.Errorf("model has %d importances for %d features", len(m.Importances), m.Features)
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= m.Features {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, node.Feature)
			}
			if node.Left <= ni || node.Right <= ni || node.Left >= len(tree.Nodes) || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

func fraction(total int, frac float64) int {
	k := int(frac * float64(total))
	if k < 1 {
		k = 1
	}
	if k > total {
		k = total
	}
	return k
}

func normalise(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / sum
	}
	return out
}
