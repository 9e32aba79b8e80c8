// Package predictor is the single transform-and-predict path shared by the
// HTTP service, the command-line predictor and the scoring worker.
package predictor

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

// Predictor only reads its bundle and is safe for concurrent use.
type Predictor struct {
	bundle *artifact.Bundle
}

func NewPredictor(bundle *artifact.Bundle) *Predictor {
	return &Predictor{bundle: bundle}
}

// Load reads the bundle from dir. An empty version selects the latest one.
func Load(dir, version string) (*Predictor, error) {
	bundle, err := artifact.Load(artifact.NewFileStore(dir), version)
	if err != nil {
		return nil, err
	}
	return NewPredictor(bundle), nil
}

func (p *Predictor) Bundle() *artifact.Bundle {
	return p.bundle
}

// Predict validates, transforms and scores one record. The result is rounded
// to two decimals. It never substitutes a default on failure.
func (p *Predictor) Predict(record models.PatientRecord) (float64, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	vec, err := p.bundle.Transformer().Transform(record)
	if err != nil {
		return 0, err
	}
	return p.bundle.Predict(vec), nil
}

// DecodeRecord parses one JSON object into a record. Unknown keys are
// ignored; a malformed body is an InvalidRecordError.
func DecodeRecord(payload []byte) (models.PatientRecord, error) {
	var record models.PatientRecord
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return record, apperr.InvalidRecord("empty patient record", nil)
	}
	if err := json.Unmarshal(payload, &record); err != nil {
		return models.PatientRecord{}, apperr.InvalidRecord("malformed patient record", err)
	}
	return record, nil
}
