package serving

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionLog is the persistence model for the prediction audit trail.
type PredictionLog struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	RequestID     string            `gorm:"column:request_id;index" json:"request_id"`
	Source        string            `gorm:"column:source" json:"source"`
	BundleVersion string            `gorm:"column:bundle_version;index" json:"bundle_version"`
	Request       datatypes.JSONMap `gorm:"column:request" json:"request"`
	Prediction    *float64          `gorm:"column:prediction" json:"adherence_prediction,omitempty"`
	ErrorKind     string            `gorm:"column:error_kind" json:"error_kind,omitempty"`
	ErrorMessage  string            `gorm:"column:error_message" json:"error_message,omitempty"`
	LatencyMs     float64           `gorm:"column:latency_ms" json:"latency_ms"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides gorm naming.
func (PredictionLog) TableName() string {
	return "prediction_logs"
}

// PredictionEntry is one attempted prediction, successful or not.
type PredictionEntry struct {
	RequestID     string
	Source        string
	BundleVersion string
	Record        models.PatientRecord
	Prediction    *float64
	ErrorKind     string
	ErrorMessage  string
	Latency       time.Duration
}

// Recorder persists prediction entries. *Repository implements it.
type Recorder interface {
	RecordPrediction(ctx context.Context, entry PredictionEntry) error
}

// Repository handles prediction logs queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&PredictionLog{})
}

func (r *Repository) RecordPrediction(ctx context.Context, entry PredictionEntry) error {
	request, err := recordMap(entry.Record)
	if err != nil {
		return err
	}
	log := PredictionLog{
		ID:            uuid.New(),
		RequestID:     entry.RequestID,
		Source:        entry.Source,
		BundleVersion: entry.BundleVersion,
		Request:       datatypes.JSONMap(request),
		Prediction:    entry.Prediction,
		ErrorKind:     entry.ErrorKind,
		ErrorMessage:  entry.ErrorMessage,
		LatencyMs:     float64(entry.Latency.Microseconds()) / 1000.0,
		CreatedAt:     time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// Recent returns the most recent prediction logs, at most MaxRecentLimit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	var logs []PredictionLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// recordMap renders a record with its raw column names as keys.
func recordMap(record models.PatientRecord) (map[string]interface{}, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}
