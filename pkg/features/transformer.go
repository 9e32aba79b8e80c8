package features

import (
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

// Transformer turns raw patient records into scaled model inputs. It only
// reads its encoders and scaler, so one value can serve concurrent callers.
type Transformer struct {
	encoders EncoderSet
	scaler   *Scaler
}

func NewTransformer(encoders EncoderSet, scaler *Scaler) (*Transformer, error) {
	if err := encoders.Validate(); err != nil {
		return nil, err
	}
	if err := scaler.Validate(); err != nil {
		return nil, err
	}
	return &Transformer{encoders: encoders, scaler: scaler}, nil
}

// Transform runs the full serving pipeline: gender normalization, categorical
// encoding, date decomposition, projection onto FeatureOrder, numeric scaling.
func (t *Transformer) Transform(record models.PatientRecord) (Vector, error) {
	vec, err := Assemble(NormalizeRecord(record), t.encoders)
	if err != nil {
		return Vector{}, err
	}
	return t.scaler.TransformVector(vec)
}

// NormalizeRecord applies gender normalization. An absent gender stays absent.
func NormalizeRecord(record models.PatientRecord) models.PatientRecord {
	if record.Gender != nil {
		g := NormalizeGender(*record.Gender)
		record.Gender = &g
	}
	return record
}

// Assemble encodes categoricals, decomposes the start date and projects the
// record onto FeatureOrder without scaling. Training and serving share it.
func Assemble(record models.PatientRecord, encoders EncoderSet) (Vector, error) {
	staged := record.Numeric()
	categorical := record.Categorical()

	for _, column := range CategoricalColumns {
		value, ok := categorical[column]
		if !ok {
			continue
		}
		code, err := encoders.Encode(column, value)
		if err != nil {
			return Vector{}, err
		}
		staged[column] = float64(code)
	}

	if record.TreatmentStartDate != nil {
		parts, err := ParseStartDate(*record.TreatmentStartDate)
		if err != nil {
			return Vector{}, err
		}
		staged[ColumnStartYear] = float64(parts.Year)
		staged[ColumnStartMonth] = float64(parts.Month)
		staged[ColumnStartDay] = float64(parts.Day)
	}

	var vec Vector
	for i, name := range FeatureOrder {
		value, ok := staged[name]
		if !ok {
			return Vector{}, apperr.MissingFeature(name)
		}
		vec[i] = value
	}
	return vec, nil
}
