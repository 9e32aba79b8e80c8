package features

import "github.com/synaptica-ai/mindmeter/pkg/common/models"

// Derived date parts replace the raw Treatment Start Date column.
const (
	ColumnStartYear  = "Start_Year"
	ColumnStartMonth = "Start_Month"
	ColumnStartDay   = "Start_Day"
)

// FeatureCount is the width of every feature vector.
const FeatureCount = 17

// FeatureOrder is the column order the regressor is fit against. It never changes at runtime.
var FeatureOrder = [FeatureCount]string{
	models.ColumnAge,
	models.ColumnGender,
	models.ColumnDiagnosis,
	models.ColumnSymptomSeverity,
	models.ColumnMoodScore,
	models.ColumnSleepQuality,
	models.ColumnPhysicalActivity,
	models.ColumnMedication,
	models.ColumnTherapyType,
	models.ColumnTreatmentDuration,
	models.ColumnStressLevel,
	models.ColumnOutcome,
	models.ColumnTreatmentProgress,
	models.ColumnEmotionalState,
	ColumnStartYear,
	ColumnStartMonth,
	ColumnStartDay,
}

// CategoricalColumns are label-encoded and never scaled.
var CategoricalColumns = []string{
	models.ColumnGender,
	models.ColumnDiagnosis,
	models.ColumnMedication,
	models.ColumnTherapyType,
	models.ColumnOutcome,
	models.ColumnEmotionalState,
}

// NumericColumns are standardized, in feature order.
var NumericColumns = []string{
	models.ColumnAge,
	models.ColumnSymptomSeverity,
	models.ColumnMoodScore,
	models.ColumnSleepQuality,
	models.ColumnPhysicalActivity,
	models.ColumnTreatmentDuration,
	models.ColumnStressLevel,
	models.ColumnTreatmentProgress,
	ColumnStartYear,
	ColumnStartMonth,
	ColumnStartDay,
}

var featureIndex = func() map[string]int {
	idx := make(map[string]int, FeatureCount)
	for i, name := range FeatureOrder {
		idx[name] = i
	}
	return idx
}()

// Index returns the position of a feature in FeatureOrder.
func Index(name string) (int, bool) {
	i, ok := featureIndex[name]
	return i, ok
}

// Vector is one model input row in FeatureOrder.
type Vector [FeatureCount]float64

// named pairs every value with its feature name, mostly for logs and debugging.
func (v Vector) named() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureOrder {
		out[name] = v[i]
	}
	return out
}

// Slice returns a copy of the vector as a slice for regressors.
func (v Vector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}
