package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/features"
	"github.com/synaptica-ai/mindmeter/pkg/ml/linear"
)

func testEncoders() features.EncoderSet {
	return features.FitEncoders(map[string][]string{
		models.ColumnGender:         {"Female", "Male"},
		models.ColumnDiagnosis:      {"Anxiety", "Bipolar Disorder"},
		models.ColumnMedication:     {"SSRIs", "Antipsychotics"},
		models.ColumnTherapyType:    {"Cognitive Behavioral Therapy"},
		models.ColumnOutcome:        {"Improved", "No Change"},
		models.ColumnEmotionalState: {"Anxious", "Calm"},
	})
}

func testBundle(t *testing.T, version string) *Bundle {
	t.Helper()
	rows := [][]float64{}
	for i := 0; i < 4; i++ {
		row := make([]float64, len(features.NumericColumns))
		for j := range row {
			row[j] = float64(i*(j+1)) + 2000*boolFloat(j == 8)
		}
		rows = append(rows, row)
	}
	scaler, err := features.FitScaler(features.NumericColumns, rows)
	require.NoError(t, err)

	coef := make([]float64, features.FeatureCount)
	for i := range coef {
		coef[i] = float64(i+1) / 10
	}
	model := &linear.Model{Weights: linear.Weights{Bias: 70, Coefficients: coef}}

	bundle, err := NewBundle(NewManifest(version, model.Algorithm(), models.EvaluationMetrics{MAE: 1.5}), model, testEncoders(), scaler)
	require.NoError(t, err)
	return bundle
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	original := testBundle(t, "v1")
	require.NoError(t, Save(store, original))

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "v1", latest)

	loaded, err := Load(store, "")
	require.NoError(t, err)
	assert.Equal(t, "v1", loaded.Version())
	assert.Equal(t, original.Manifest.Metrics, loaded.Manifest.Metrics)
	assert.Equal(t, original.Encoders, loaded.Encoders)
	assert.Equal(t, original.Scaler, loaded.Scaler)

	var vec features.Vector
	for i := range vec {
		vec[i] = float64(i) - 3.25
	}
	assert.Equal(t, original.Predict(vec), loaded.Predict(vec))

	report, err := store.Read("v1", ImportanceFile)
	require.NoError(t, err)
	ranked, err := DecodeImportanceReport(report)
	require.NoError(t, err)
	require.Len(t, ranked, features.FeatureCount)
	assert.Equal(t, features.ColumnStartDay, ranked[0].Feature)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Importance, ranked[i].Importance)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	_, err := Load(store, "")
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))

	require.NoError(t, Save(store, testBundle(t, "v1")))
	require.NoError(t, os.Remove(filepath.Join(root, "v1", ScalerFile)))

	_, err = Load(store, "v1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))
	assert.Contains(t, err.Error(), ScalerFile)
}

func TestLoadChecksImportanceReport(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	require.NoError(t, Save(store, testBundle(t, "v1")))
	reportPath := filepath.Join(root, "v1", ImportanceFile)

	tampered, err := EncodeImportanceReport([]models.FeatureImportance{{Feature: features.ColumnStartDay, Importance: 1}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(reportPath, tampered, 0o644))
	_, err = Load(store, "v1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))
	assert.Contains(t, err.Error(), ImportanceFile)

	require.NoError(t, os.WriteFile(reportPath, []byte("Feature,Weight\n"), 0o644))
	_, err = Load(store, "v1")
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))

	require.NoError(t, os.Remove(reportPath))
	_, err = Load(store, "v1")
	assert.NoError(t, err)
}

func TestLoadRejectsMixedVersions(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	require.NoError(t, Save(store, testBundle(t, "v1")))
	require.NoError(t, Save(store, testBundle(t, "v2")))

	foreign, err := os.ReadFile(filepath.Join(root, "v1", EncodersFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "v2", EncodersFile), foreign, 0o644))

	_, err = Load(store, "v2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	require.NoError(t, Save(store, testBundle(t, "v1")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "v1", EncodersFile),
		[]byte(`{"version":"v1","encoders":{"Gender":{"classes":["Female"]}}}`), 0o644))

	_, err := Load(store, "v1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindArtifactLoad, apperr.KindOf(err))
}

func TestNewBundleRejectsWrongWidth(t *testing.T) {
	scaler := testBundle(t, "v1").Scaler
	model := &linear.Model{Weights: linear.Weights{Coefficients: make([]float64, 3)}}
	_, err := NewBundle(NewManifest("v1", model.Algorithm(), models.EvaluationMetrics{}), model, testEncoders(), scaler)
	assert.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 71.24, Round2(71.2449))
	assert.Equal(t, 71.25, Round2(71.245001))
	assert.Equal(t, -3.5, Round2(-3.499999))
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	store := NewFileStore(t.TempDir())
	assert.Error(t, store.Write("../x", ModelFile, []byte("{}")))
	assert.Error(t, store.SetLatest(".."))
}
