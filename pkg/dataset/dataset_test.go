package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
)

const header = "Age,Gender,Diagnosis,Symptom Severity (1-10),Mood Score (1-10),Sleep Quality (1-10)," +
	"Physical Activity (hrs/week),Medication,Therapy Type,Treatment Start Date,Treatment Duration (weeks)," +
	"Stress Level (1-10),Outcome,Treatment Progress (1-10),AI-Detected Emotional State,Adherence to Treatment (%)\n"

const rowA = "34,Male,Anxiety,6,5,7,3.5,SSRIs,Cognitive Behavioral Therapy,2023-05-14,12,6,Improved,7,Anxious,78\n"
const rowB = "51,Female,Bipolar Disorder,8,3,4,1,Mood Stabilizers,Interpersonal Therapy,2024-01-02,20,9,No Change,4,Stressed,61\n"

func TestReadCSVRequiresColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Age,Gender\n34,Male\n"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTrainingData))
	assert.Contains(t, err.Error(), "Diagnosis")
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, apperr.Is(err, apperr.KindTrainingData))
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufeff" + header + rowA))
	require.NoError(t, err)
	assert.Equal(t, "34", table.Cell(table.Rows[0], "Age"))
}

func TestCleanDropsDuplicatesThenIncompleteRows(t *testing.T) {
	incomplete := "40,Female,Anxiety,5,5,5,,SSRIs,Interpersonal Therapy,2023-02-01,8,5,Improved,5,Happy,70\n"
	nanLabel := "41,Female,Anxiety,5,5,5,2,SSRIs,Interpersonal Therapy,2023-02-01,8,5,Improved,5,Happy,NaN\n"
	short := "42,Female\n"
	table, err := ReadCSV(strings.NewReader(header + rowA + rowA + rowB + incomplete + nanLabel + short + rowB))
	require.NoError(t, err)

	cleaned, stats, err := Clean(table)
	require.NoError(t, err)
	assert.Equal(t, CleanStats{Input: 7, Duplicates: 2, Incomplete: 3, Output: 2}, stats)
	assert.Len(t, cleaned.Rows, 2)
}

func TestCleanEmptyResultIsTrainingDataError(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(header + "34,,Anxiety,6,5,7,3.5,SSRIs,CBT,2023-05-14,12,6,Improved,7,Anxious,78\n"))
	require.NoError(t, err)

	_, stats, err := Clean(table)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTrainingData))
	assert.Equal(t, 1, stats.Incomplete)
}

func TestParseTypedExample(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(header + rowA))
	require.NoError(t, err)

	examples, err := Parse(table)
	require.NoError(t, err)
	require.Len(t, examples, 1)

	ex := examples[0]
	assert.Equal(t, 78.0, ex.Label)
	assert.Equal(t, 34, *ex.Record.Age)
	assert.Equal(t, "Male", *ex.Record.Gender)
	assert.Equal(t, 3.5, *ex.Record.PhysicalActivity)
	assert.Equal(t, "2023-05-14", *ex.Record.TreatmentStartDate)
	assert.Equal(t, "Anxious", *ex.Record.EmotionalState)
}

func TestParseRejectsNonIntegerScale(t *testing.T) {
	bad := strings.Replace(rowA, ",6,5,7,", ",6.5,5,7,", 1)
	table, err := ReadCSV(strings.NewReader(header + bad))
	require.NoError(t, err)

	_, err = Parse(table)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTrainingData))
	assert.Contains(t, err.Error(), "row 2")
}

func TestSynthesizeRoundTripsThroughCSV(t *testing.T) {
	examples := Synthesize(50, 7)
	assert.Equal(t, examples, Synthesize(50, 7))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, examples))

	table, err := ReadCSV(&buf)
	require.NoError(t, err)
	cleaned, _, err := Clean(table)
	require.NoError(t, err)
	parsed, err := Parse(cleaned)
	require.NoError(t, err)

	require.NotEmpty(t, parsed)
	for _, ex := range parsed {
		assert.GreaterOrEqual(t, ex.Label, 0.0)
		assert.LessOrEqual(t, ex.Label, 100.0)
		assert.NoError(t, ex.Record.Validate())
	}
}
