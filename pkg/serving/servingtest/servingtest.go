// Package servingtest trains small bundles for serving tests.
package servingtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/dataset"
	"github.com/synaptica-ai/mindmeter/pkg/training"
)

// SampleJSON is a complete request body whose categories all exist in the
// synthetic vocabulary. Gender uses a non-canonical spelling on purpose.
const SampleJSON = `{
	"Age": 34,
	"Gender": "homme",
	"Diagnosis": "Anxiety",
	"Symptom Severity (1-10)": 6,
	"Mood Score (1-10)": 5,
	"Sleep Quality (1-10)": 7,
	"Physical Activity (hrs/week)": 3.5,
	"Medication": "SSRIs",
	"Therapy Type": "Cognitive Behavioral Therapy",
	"Treatment Start Date": "2023-05-14",
	"Treatment Duration (weeks)": 12,
	"Stress Level (1-10)": 6,
	"Outcome": "Improved",
	"Treatment Progress (1-10)": 7,
	"AI-Detected Emotional State": "Anxious"
}`

func ptr[T any](v T) *T { return &v }

// SampleRecord is SampleJSON as a struct.
func SampleRecord() models.PatientRecord {
	return models.PatientRecord{
		Age:                ptr(34),
		Gender:             ptr("homme"),
		Diagnosis:          ptr("Anxiety"),
		SymptomSeverity:    ptr(6),
		MoodScore:          ptr(5),
		SleepQuality:       ptr(7),
		PhysicalActivity:   ptr(3.5),
		Medication:         ptr("SSRIs"),
		TherapyType:        ptr("Cognitive Behavioral Therapy"),
		TreatmentStartDate: ptr("2023-05-14"),
		TreatmentDuration:  ptr(12),
		StressLevel:        ptr(6),
		Outcome:            ptr("Improved"),
		TreatmentProgress:  ptr(7),
		EmotionalState:     ptr("Anxious"),
	}
}

// TrainBundle fits a small bundle on synthetic data, saves it under a temp
// artifact dir and returns that dir with the bundle.
func TrainBundle(t testing.TB) (string, *artifact.Bundle) {
	t.Helper()
	root := t.TempDir()

	datasetPath := filepath.Join(root, "dataset.csv")
	f, err := os.Create(datasetPath)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	if err := dataset.WriteCSV(f, dataset.Synthesize(300, 21)); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close dataset: %v", err)
	}

	cfg := training.DefaultConfig()
	cfg.Boost.Estimators = 60
	cfg.Boost.LearningRate = 0.1
	cfg.Boost.MaxDepth = 4

	artifactDir := filepath.Join(root, "artifacts")
	result, err := training.NewPipeline(datasetPath, artifact.NewFileStore(artifactDir), cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("train bundle: %v", err)
	}
	return artifactDir, result.Bundle
}
