package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/features"
)

// RankImportances pairs importances with FeatureOrder names, sorted descending.
// Ties keep feature order.
func RankImportances(importances []float64) ([]models.FeatureImportance, error) {
	if len(importances) != features.FeatureCount {
		return nil, fmt.Errorf("got %d importances, want %d", len(importances), features.FeatureCount)
	}
	ranked := make([]models.FeatureImportance, features.FeatureCount)
	for i, name := range features.FeatureOrder {
		ranked[i] = models.FeatureImportance{Feature: name, Importance: importances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked, nil
}

// EncodeImportanceReport renders the Feature,Importance CSV report.
func EncodeImportanceReport(ranked []models.FeatureImportance) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"Feature", "Importance"}); err != nil {
		return nil, err
	}
	for _, fi := range ranked {
		if err := writer.Write([]string{fi.Feature, strconv.FormatFloat(fi.Importance, 'g', -1, 64)}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeImportanceReport parses a report written by EncodeImportanceReport.
func DecodeImportanceReport(payload []byte) ([]models.FeatureImportance, error) {
	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "Feature" || records[0][1] != "Importance" {
		return nil, fmt.Errorf("importance report has unexpected header")
	}
	out := make([]models.FeatureImportance, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, fmt.Errorf("importance report line %d: want 2 fields, got %d", i+2, len(rec))
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("importance report line %d: %w", i+2, err)
		}
		out = append(out, models.FeatureImportance{Feature: rec[0], Importance: v})
	}
	return out, nil
}
