// Package dataset reads, cleans and parses the labelled adherence dataset.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

// Columns is the header the dataset must provide.
var Columns = append(append([]string(nil), models.RecordColumns...), models.ColumnAdherence)

// Table is the raw dataset: string cells in header order.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Example is one parsed, labelled row.
type Example struct {
	Record models.PatientRecord
	Label  float64
}

func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.TrainingData("open dataset", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV loads every row and checks the required columns are present.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.TrainingData("dataset is empty", err)
	}
	if err != nil {
		return nil, apperr.TrainingData("read dataset header", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		t.index[strings.TrimSpace(name)] = i
	}
	for _, name := range Columns {
		if _, ok := t.index[name]; !ok {
			return nil, apperr.TrainingData(fmt.Sprintf("dataset lacks column %q", name), nil)
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.TrainingData("read dataset rows", err)
	}
	t.Rows = rows
	return t, nil
}

func (t *Table) Cell(row []string, column string) string {
	return row[t.index[column]]
}

var missingMarkers = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "<na>": {},
}

func isMissing(cell string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// CleanStats reports what Clean removed.
type CleanStats struct {
	Input      int
	Duplicates int
	Incomplete int
	Output     int
}

// Clean drops exact duplicate rows (keeping the first), then rows with any
// missing cell. Nothing is imputed. An empty result is a TrainingDataError.
func Clean(t *Table) (*Table, CleanStats, error) {
	stats := CleanStats{Input: len(t.Rows)}
	seen := make(map[string]struct{}, len(t.Rows))
	unique := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, row)
	}

	kept := unique[:0]
	for _, row := range unique {
		complete := len(row) == len(t.Header)
		for _, cell := range row {
			if isMissing(cell) {
				complete = false
				break
			}
		}
		if !complete {
			stats.Incomplete++
			continue
		}
		kept = append(kept, row)
	}
	stats.Output = len(kept)

	if len(kept) == 0 {
		return nil, stats, apperr.TrainingData("dataset is empty after cleaning", nil)
	}
	return &Table{Header: t.Header, Rows: kept, index: t.index}, stats, nil
}

// Parse converts cleaned rows into typed examples.
func Parse(t *Table) ([]Example, error) {
	out := make([]Example, 0, len(t.Rows))
	for i, row := range t.Rows {
		ex, err := t.parseRow(row)
		if err != nil {
			return nil, apperr.TrainingData(fmt.Sprintf("dataset row %d", i+2), err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (t *Table) parseRow(row []string) (Example, error) {
	if len(row) != len(t.Header) {
		return Example{}, fmt.Errorf("row has %d cells, header has %d", len(row), len(t.Header))
	}
	var ex Example
	var err error
	intCell := func(column string) *int {
		if err != nil {
			return nil
		}
		raw := strings.TrimSpace(t.Cell(row, column))
		f, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || f != float64(int(f)) {
			err = fmt.Errorf("column %q: %q is not an integer", column, raw)
			return nil
		}
		v := int(f)
		return &v
	}
	floatCell := func(column string) *float64 {
		if err != nil {
			return nil
		}
		raw := strings.TrimSpace(t.Cell(row, column))
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			err = fmt.Errorf("column %q: %q is not a number", column, raw)
			return nil
		}
		return &v
	}
	strCell := func(column string) *string {
		v := strings.TrimSpace(t.Cell(row, column))
		return &v
	}

	ex.Record = models.PatientRecord{
		Age:                intCell(models.ColumnAge),
		Gender:             strCell(models.ColumnGender),
		Diagnosis:          strCell(models.ColumnDiagnosis),
		SymptomSeverity:    intCell(models.ColumnSymptomSeverity),
		MoodScore:          intCell(models.ColumnMoodScore),
		SleepQuality:       intCell(models.ColumnSleepQuality),
		PhysicalActivity:   floatCell(models.ColumnPhysicalActivity),
		Medication:         strCell(models.ColumnMedication),
		TherapyType:        strCell(models.ColumnTherapyType),
		TreatmentStartDate: strCell(models.ColumnTreatmentStartDate),
		TreatmentDuration:  intCell(models.ColumnTreatmentDuration),
		StressLevel:        intCell(models.ColumnStressLevel),
		Outcome:            strCell(models.ColumnOutcome),
		TreatmentProgress:  intCell(models.ColumnTreatmentProgress),
		EmotionalState:     strCell(models.ColumnEmotionalState),
	}
	label := floatCell(models.ColumnAdherence)
	if err != nil {
		return Example{}, err
	}
	ex.Label = *label
	return ex, nil
}
