package boost

import "fmt"

// Options mirror the usual tree-booster knobs. Zero values take the defaults below.
type Options struct {
	Estimators     int     `yaml:"n_estimators" json:"n_estimators"`
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	MaxDepth       int     `yaml:"max_depth" json:"max_depth"`
	Subsample      float64 `yaml:"subsample" json:"subsample"`
	ColSample      float64 `yaml:"colsample_bytree" json:"colsample_bytree"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`
	MaxBins        int     `yaml:"max_bins" json:"max_bins"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

func DefaultOptions() Options {
	return Options{
		Estimators:     400,
		LearningRate:   0.05,
		MaxDepth:       6,
		Subsample:      0.8,
		ColSample:      0.8,
		MinSamplesLeaf: 1,
		Lambda:         1,
		MaxBins:        256,
		Seed:           42,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Estimators <= 0 {
		o.Estimators = d.Estimators
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.Subsample <= 0 {
		o.Subsample = d.Subsample
	}
	if o.ColSample <= 0 {
		o.ColSample = d.ColSample
	}
	if o.MinSamplesLeaf <= 0 {
		o.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if o.Lambda < 0 {
		o.Lambda = d.Lambda
	}
	if o.MaxBins <= 0 {
		o.MaxBins = d.MaxBins
	}
	return o
}

func (o Options) validate() error {
	if o.Subsample > 1 {
		return fmt.Errorf("subsample %.3f must be in (0, 1]", o.Subsample)
	}
	if o.ColSample > 1 {
		return fmt.Errorf("colsample_bytree %.3f must be in (0, 1]", o.ColSample)
	}
	if o.MaxBins < 2 || o.MaxBins > 1<<16 {
		return fmt.Errorf("max_bins %d must be in [2, 65536]", o.MaxBins)
	}
	return nil
}
