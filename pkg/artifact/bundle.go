// Package artifact stores and loads the model artifact bundle: the regressor,
// the categorical encoders and the numeric scaler from one training run.
// The three are only valid together, so every file carries the run's version
// and Load refuses mixtures.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/features"
	"github.com/synaptica-ai/mindmeter/pkg/ml"
)

const (
	ModelFile      = "model.json"
	EncodersFile   = "encoders.json"
	ScalerFile     = "scaler.json"
	ManifestFile   = "manifest.json"
	ImportanceFile = "feature_importance.csv"
)

// Manifest describes one bundle version.
type Manifest struct {
	Version            string                   `json:"version"`
	CreatedAt          time.Time                `json:"created_at"`
	Algorithm          string                   `json:"algorithm"`
	DatasetPath        string                   `json:"dataset_path,omitempty"`
	FeatureOrder       []string                 `json:"feature_order"`
	CategoricalColumns []string                 `json:"categorical_columns"`
	NumericColumns     []string                 `json:"numeric_columns"`
	Metrics            models.EvaluationMetrics `json:"metrics"`
}

// Bundle is read-only once built; share it by pointer.
type Bundle struct {
	Manifest    Manifest
	Model       ml.Regressor
	Encoders    features.EncoderSet
	Scaler      *features.Scaler
	Importances []models.FeatureImportance

	transformer *features.Transformer
}

type encodersFile struct {
	Version  string              `json:"version"`
	Encoders features.EncoderSet `json:"encoders"`
}

type scalerFile struct {
	Version string           `json:"version"`
	Scaler  *features.Scaler `json:"scaler"`
}

// NewBundle assembles and checks a bundle produced by training.
func NewBundle(manifest Manifest, model ml.Regressor, encoders features.EncoderSet, scaler *features.Scaler) (*Bundle, error) {
	if err := checkSchema(manifest, model); err != nil {
		return nil, err
	}
	transformer, err := features.NewTransformer(encoders, scaler)
	if err != nil {
		return nil, err
	}
	ranked, err := RankImportances(model.FeatureImportances())
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Manifest:    manifest,
		Model:       model,
		Encoders:    encoders,
		Scaler:      scaler,
		Importances: ranked,
		transformer: transformer,
	}, nil
}

// NewManifest fills the fixed schema fields for a fresh training run.
func NewManifest(version, algorithm string, metrics models.EvaluationMetrics) Manifest {
	return Manifest{
		Version:            version,
		CreatedAt:          time.Now().UTC(),
		Algorithm:          algorithm,
		FeatureOrder:       append([]string(nil), features.FeatureOrder[:]...),
		CategoricalColumns: append([]string(nil), features.CategoricalColumns...),
		NumericColumns:     append([]string(nil), features.NumericColumns...),
		Metrics:            metrics,
	}
}

func (b *Bundle) Version() string {
	return b.Manifest.Version
}

func (b *Bundle) Transformer() *features.Transformer {
	return b.transformer
}

// Predict runs the regressor on a transformed vector, rounded for presentation.
func (b *Bundle) Predict(vec features.Vector) float64 {
	return Round2(b.Model.Predict(vec.Slice()))
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Save writes every file of the bundle and then promotes it to latest, so a
// failed save never becomes the served version.
func Save(store Store, b *Bundle) error {
	version := b.Manifest.Version
	modelPayload, err := ml.MarshalModel(version, b.Model)
	if err != nil {
		return err
	}
	encPayload, err := json.MarshalIndent(encodersFile{Version: version, Encoders: b.Encoders}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode encoders: %w", err)
	}
	scalerPayload, err := json.MarshalIndent(scalerFile{Version: version, Scaler: b.Scaler}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	manifestPayload, err := json.MarshalIndent(b.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	report, err := EncodeImportanceReport(b.Importances)
	if err != nil {
		return fmt.Errorf("encode importance report: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{ModelFile, modelPayload},
		{EncodersFile, encPayload},
		{ScalerFile, scalerPayload},
		{ImportanceFile, report},
		{ManifestFile, manifestPayload},
	}
	for _, f := range files {
		if err := store.Write(version, f.name, f.data); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return store.SetLatest(version)
}

// Load reads a bundle. An empty version means the latest promoted one. Every
// failure is an ArtifactLoadError.
func Load(store Store, version string) (*Bundle, error) {
	if version == "" {
		latest, err := store.Latest()
		if err != nil {
			return nil, apperr.ArtifactLoad("resolve latest bundle version", err)
		}
		version = latest
	}

	var manifest Manifest
	if err := readJSON(store, version, ManifestFile, &manifest); err != nil {
		return nil, err
	}

	modelPayload, err := store.Read(version, ModelFile)
	if err != nil {
		return nil, apperr.ArtifactLoad("read "+ModelFile, err)
	}
	model, modelVersion, err := ml.UnmarshalModel(modelPayload)
	if err != nil {
		return nil, apperr.ArtifactLoad("decode "+ModelFile, err)
	}

	var enc encodersFile
	if err := readJSON(store, version, EncodersFile, &enc); err != nil {
		return nil, err
	}
	var sc scalerFile
	if err := readJSON(store, version, ScalerFile, &sc); err != nil {
		return nil, err
	}

	for name, v := range map[string]string{
		ManifestFile: manifest.Version,
		ModelFile:    modelVersion,
		EncodersFile: enc.Version,
		ScalerFile:   sc.Version,
	} {
		if v != version {
			return nil, apperr.ArtifactLoad(
				fmt.Sprintf("%s belongs to version %q, expected %q", name, v, version),
				errors.New("artifacts from different training runs"))
		}
	}

	bundle, err := NewBundle(manifest, model, enc.Encoders, sc.Scaler)
	if err != nil {
		return nil, apperr.ArtifactLoad("bundle schema mismatch", err)
	}
	if err := checkImportanceReport(store, version, bundle.Importances); err != nil {
		return nil, err
	}
	return bundle, nil
}

// checkImportanceReport compares a saved report with the model's own
// importances. Bundles without a report still load.
func checkImportanceReport(store Store, version string, want []models.FeatureImportance) error {
	payload, err := store.Read(version, ImportanceFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperr.ArtifactLoad("read "+ImportanceFile, err)
	}
	got, err := DecodeImportanceReport(payload)
	if err != nil {
		return apperr.ArtifactLoad("decode "+ImportanceFile, err)
	}
	if len(got) != len(want) {
		return apperr.ArtifactLoad(ImportanceFile+" does not match the model",
			fmt.Errorf("report lists %d features, model has %d", len(got), len(want)))
	}
	byFeature := make(map[string]float64, len(want))
	for _, fi := range want {
		byFeature[fi.Feature] = fi.Importance
	}
	for _, fi := range got {
		importance, ok := byFeature[fi.Feature]
		if !ok || math.Abs(importance-fi.Importance) > 1e-9 {
			return apperr.ArtifactLoad(ImportanceFile+" does not match the model",
				fmt.Errorf("feature %q: report %v, model %v", fi.Feature, fi.Importance, importance))
		}
	}
	return nil
}

func readJSON(store Store, version, name string, out interface{}) error {
	payload, err := store.Read(version, name)
	if err != nil {
		return apperr.ArtifactLoad("read "+name, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperr.ArtifactLoad("decode "+name, err)
	}
	return nil
}

func checkSchema(manifest Manifest, model ml.Regressor) error {
	if model == nil {
		return fmt.Errorf("bundle has no regressor")
	}
	if model.NumFeatures() != features.FeatureCount {
		return fmt.Errorf("regressor expects %d features, want %d", model.NumFeatures(), features.FeatureCount)
	}
	if !equalStrings(manifest.FeatureOrder, features.FeatureOrder[:]) {
		return fmt.Errorf("manifest feature order differs from the serving feature order")
	}
	if !equalStrings(manifest.CategoricalColumns, features.CategoricalColumns) {
		return fmt.Errorf("manifest categorical columns differ")
	}
	if !equalStrings(manifest.NumericColumns, features.NumericColumns) {
		return fmt.Errorf("manifest numeric columns differ")
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
