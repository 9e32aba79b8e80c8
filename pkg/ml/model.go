// Package ml defines the regressor contract shared by the training pipeline
// and the serving bundle, and the tagged JSON envelope regressors are stored in.
package ml

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/synaptica-ai/mindmeter/pkg/ml/boost"
	"github.com/synaptica-ai/mindmeter/pkg/ml/linear"
)

// Regressor is a fitted model mapping one feature row to one scalar.
type Regressor interface {
	Predict(sample []float64) float64
	FeatureImportances() []float64
	NumFeatures() int
	Algorithm() string
}

type envelope struct {
	Version   string          `json:"version"`
	Algorithm string          `json:"algorithm"`
	Model     json.RawMessage `json:"model"`
}

// MarshalModel serialises a regressor tagged with its algorithm and the bundle version.
func MarshalModel(version string, model Regressor) ([]byte, error) {
	body, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", model.Algorithm(), err)
	}
	return json.MarshalIndent(envelope{Version: version, Algorithm: model.Algorithm(), Model: body}, "", "  ")
}

// UnmarshalModel restores a regressor and the bundle version it was saved with.
func UnmarshalModel(payload []byte) (Regressor, string, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", fmt.Errorf("decode model envelope: %w", err)
	}
	switch env.Algorithm {
	case boost.Algorithm:
		var m boost.Model
		if err := json.Unmarshal(env.Model, &m); err != nil {
			return nil, "", fmt.Errorf("decode %s model: %w", env.Algorithm, err)
		}
		if err := m.Validate(); err != nil {
			return nil, "", err
		}
		return &m, env.Version, nil
	case linear.Algorithm:
		var m linear.Model
		if err := json.Unmarshal(env.Model, &m); err != nil {
			return nil, "", fmt.Errorf("decode %s model: %w", env.Algorithm, err)
		}
		return &m, env.Version, nil
	default:
		return nil, "", fmt.Errorf("unknown model algorithm %q", env.Algorithm)
	}
}
