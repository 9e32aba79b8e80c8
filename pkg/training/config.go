package training

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/mindmeter/pkg/ml/boost"
	"github.com/synaptica-ai/mindmeter/pkg/ml/linear"
	"gopkg.in/yaml.v3"
)

// Config holds the training hyperparameters. Fields absent from the YAML file
// keep their DefaultConfig values.
type Config struct {
	Algorithm    string         `yaml:"algorithm" json:"algorithm"`
	TestFraction float64        `yaml:"test_fraction" json:"test_fraction"`
	SplitSeed    int64          `yaml:"split_seed" json:"split_seed"`
	Boost        boost.Options  `yaml:"gbrt" json:"gbrt"`
	Linear       linear.Options `yaml:"linear" json:"linear"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm:    boost.Algorithm,
		TestFraction: 0.2,
		SplitSeed:    42,
		Boost:        boost.DefaultOptions(),
		Linear:       linear.Options{Epochs: 500, LearningRate: 0.05},
	}
}

// LoadConfig reads a YAML hyperparameter file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read training config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse training config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Algorithm {
	case boost.Algorithm, linear.Algorithm:
	default:
		return fmt.Errorf("unknown algorithm %q (want %q or %q)", c.Algorithm, boost.Algorithm, linear.Algorithm)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction %.3f must be in (0, 1)", c.TestFraction)
	}
	return nil
}
