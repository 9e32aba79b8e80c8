package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes each column as (x - mean) / std with moments taken from
// the training split only. A zero std is stored as 1, leaving that column centred.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// FitScaler computes population moments per column. rows[i][j] is the value of
// columns[j] in sample i.
func FitScaler(columns []string, rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on zero rows")
	}
	s := &Scaler{
		Columns: append([]string(nil), columns...),
		Mean:    make([]float64, len(columns)),
		Std:     make([]float64, len(columns)),
	}
	col := make([]float64, len(rows))
	for j := range columns {
		for i, row := range rows {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
			}
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s, nil
}

func (s *Scaler) Transform(column int, x float64) float64 {
	return (x - s.Mean[column]) / s.Std[column]
}

func (s *Scaler) Inverse(column int, z float64) float64 {
	return z*s.Std[column] + s.Mean[column]
}

// TransformVector scales the numeric positions of v and leaves categorical codes alone.
func (s *Scaler) TransformVector(v Vector) (Vector, error) {
	for j, name := range s.Columns {
		i, ok := Index(name)
		if !ok {
			return v, fmt.Errorf("scaler column %q is not a feature", name)
		}
		v[i] = s.Transform(j, v[i])
	}
	return v, nil
}

// Validate checks the scaler covers exactly the numeric columns, in order.
func (s *Scaler) Validate() error {
	if s == nil {
		return fmt.Errorf("scaler is nil")
	}
	if len(s.Columns) != len(NumericColumns) || len(s.Mean) != len(s.Columns) || len(s.Std) != len(s.Columns) {
		return fmt.Errorf("scaler shape mismatch: %d columns, %d means, %d stds, want %d",
			len(s.Columns), len(s.Mean), len(s.Std), len(NumericColumns))
	}
	for j, name := range NumericColumns {
		if s.Columns[j] != name {
			return fmt.Errorf("scaler column %d is %q, want %q", j, s.Columns[j], name)
		}
		if s.Std[j] <= 0 {
			return fmt.Errorf("scaler column %q has non-positive std", name)
		}
	}
	return nil
}
