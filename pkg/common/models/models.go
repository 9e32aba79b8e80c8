package models

import (
	"time"
)

// Raw record column names, exactly as they appear in the training dataset.
const (
	ColumnAge                = "Age"
	ColumnGender             = "Gender"
	ColumnDiagnosis          = "Diagnosis"
	ColumnSymptomSeverity    = "Symptom Severity (1-10)"
	ColumnMoodScore          = "Mood Score (1-10)"
	ColumnSleepQuality       = "Sleep Quality (1-10)"
	ColumnPhysicalActivity   = "Physical Activity (hrs/week)"
	ColumnMedication         = "Medication"
	ColumnTherapyType        = "Therapy Type"
	ColumnTreatmentDuration  = "Treatment Duration (weeks)"
	ColumnStressLevel        = "Stress Level (1-10)"
	ColumnOutcome            = "Outcome"
	ColumnTreatmentProgress  = "Treatment Progress (1-10)"
	ColumnEmotionalState     = "AI-Detected Emotional State"
	ColumnTreatmentStartDate = "Treatment Start Date"

	// ColumnAdherence is the regression target.
	ColumnAdherence = "Adherence to Treatment (%)"
)

// RecordColumns lists the raw input columns in dataset order.
var RecordColumns = []string{
	ColumnAge,
	ColumnGender,
	ColumnDiagnosis,
	ColumnSymptomSeverity,
	ColumnMoodScore,
	ColumnSleepQuality,
	ColumnPhysicalActivity,
	ColumnMedication,
	ColumnTherapyType,
	ColumnTreatmentStartDate,
	ColumnTreatmentDuration,
	ColumnStressLevel,
	ColumnOutcome,
	ColumnTreatmentProgress,
	ColumnEmotionalState,
}

// PatientRecord is one raw, pre-encoding patient row. Pointer fields keep
// "absent" distinguishable from a zero value.
type PatientRecord struct {
	Age                *int     `json:"Age" validate:"omitempty,min=0,max=130"`
	Gender             *string  `json:"Gender"`
	Diagnosis          *string  `json:"Diagnosis"`
	SymptomSeverity    *int     `json:"Symptom Severity (1-10)" validate:"omitempty,min=1,max=10"`
	MoodScore          *int     `json:"Mood Score (1-10)" validate:"omitempty,min=1,max=10"`
	SleepQuality       *int     `json:"Sleep Quality (1-10)" validate:"omitempty,min=1,max=10"`
	PhysicalActivity   *float64 `json:"Physical Activity (hrs/week)" validate:"omitempty,min=0"`
	Medication         *string  `json:"Medication"`
	TherapyType        *string  `json:"Therapy Type"`
	TreatmentStartDate *string  `json:"Treatment Start Date"`
	TreatmentDuration  *int     `json:"Treatment Duration (weeks)" validate:"omitempty,min=0"`
	StressLevel        *int     `json:"Stress Level (1-10)" validate:"omitempty,min=1,max=10"`
	Outcome            *string  `json:"Outcome"`
	TreatmentProgress  *int     `json:"Treatment Progress (1-10)" validate:"omitempty,min=1,max=10"`
	EmotionalState     *string  `json:"AI-Detected Emotional State"`
}

// Categorical returns the present categorical values keyed by column name.
func (r PatientRecord) Categorical() map[string]string {
	out := make(map[string]string, 6)
	put := func(column string, v *string) {
		if v != nil {
			out[column] = *v
		}
	}
	put(ColumnGender, r.Gender)
	put(ColumnDiagnosis, r.Diagnosis)
	put(ColumnMedication, r.Medication)
	put(ColumnTherapyType, r.TherapyType)
	put(ColumnOutcome, r.Outcome)
	put(ColumnEmotionalState, r.EmotionalState)
	return out
}

// Numeric returns the present raw numeric values keyed by column name.
func (r PatientRecord) Numeric() map[string]float64 {
	out := make(map[string]float64, 8)
	putInt := func(column string, v *int) {
		if v != nil {
			out[column] = float64(*v)
		}
	}
	putInt(ColumnAge, r.Age)
	putInt(ColumnSymptomSeverity, r.SymptomSeverity)
	putInt(ColumnMoodScore, r.MoodScore)
	putInt(ColumnSleepQuality, r.SleepQuality)
	if r.PhysicalActivity != nil {
		out[ColumnPhysicalActivity] = *r.PhysicalActivity
	}
	putInt(ColumnTreatmentDuration, r.TreatmentDuration)
	putInt(ColumnStressLevel, r.StressLevel)
	putInt(ColumnTreatmentProgress, r.TreatmentProgress)
	return out
}

// PredictionResponse is the success body of POST /predict.
type PredictionResponse struct {
	AdherencePrediction float64 `json:"adherence_prediction"`
}

// ErrorResponse is the failure body of every JSON endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type StatusResponse struct {
	Message string `json:"message"`
}

// FeatureImportance is one row of the feature-importance report.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// EvaluationMetrics are computed on the held-out test split.
type EvaluationMetrics struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	R2           float64 `json:"r2"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// TrainingRun is the domain view of one training pipeline execution.
type TrainingRun struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	DatasetPath     string                 `json:"dataset_path"`
	ArtifactVersion string                 `json:"artifact_version,omitempty"`
	Metrics         map[string]interface{} `json:"metrics,omitempty"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventPredictionCompleted = "prediction.completed"
	EventPredictionFailed    = "prediction.failed"
	EventTrainingCompleted   = "training.completed"
	EventTrainingFailed      = "training.failed"
)
