package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

// Vocabularies used by Synthesize.
var (
	SyntheticGenders    = []string{"Female", "Male"}
	SyntheticDiagnoses  = []string{"Anxiety", "Bipolar Disorder", "Major Depressive Disorder", "Panic Disorder"}
	SyntheticMedication = []string{"Antidepressants", "Antipsychotics", "Anxiolytics", "Benzodiazepines", "Mood Stabilizers", "SSRIs"}
	SyntheticTherapies  = []string{"Cognitive Behavioral Therapy", "Dialectical Behavioral Therapy", "Interpersonal Therapy", "Mindfulness-Based Therapy"}
	SyntheticOutcomes   = []string{"Deteriorated", "Improved", "No Change"}
	SyntheticEmotions   = []string{"Anxious", "Depressed", "Excited", "Happy", "Neutral", "Stressed"}
)

var outcomeEffect = map[string]float64{"Deteriorated": -6, "Improved": 5, "No Change": 0}

// Synthesize generates n labelled examples with a learnable adherence signal.
// The same seed always yields the same rows.
func Synthesize(n int, seed int64) []Example {
	rng := rand.New(rand.NewSource(seed))
	pick := func(options []string) *string {
		v := options[rng.Intn(len(options))]
		return &v
	}
	scale := func() *int {
		v := 1 + rng.Intn(10)
		return &v
	}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]Example, n)
	for i := range out {
		age := 18 + rng.Intn(55)
		activity := math.Round(rng.Float64()*100) / 10
		duration := 4 + rng.Intn(20)
		date := start.AddDate(0, 0, rng.Intn(3*365)).Format("2006-01-02")

		rec := models.PatientRecord{
			Age:                &age,
			Gender:             pick(SyntheticGenders),
			Diagnosis:          pick(SyntheticDiagnoses),
			SymptomSeverity:    scale(),
			MoodScore:          scale(),
			SleepQuality:       scale(),
			PhysicalActivity:   &activity,
			Medication:         pick(SyntheticMedication),
			TherapyType:        pick(SyntheticTherapies),
			TreatmentStartDate: &date,
			TreatmentDuration:  &duration,
			StressLevel:        scale(),
			Outcome:            pick(SyntheticOutcomes),
			TreatmentProgress:  scale(),
			EmotionalState:     pick(SyntheticEmotions),
		}

		label := 70 +
			2.0*float64(*rec.TreatmentProgress-5) -
			1.5*float64(*rec.StressLevel-5) +
			1.0*float64(*rec.SleepQuality-5) +
			0.6*activity +
			outcomeEffect[*rec.Outcome] +
			rng.NormFloat64()*3
		out[i] = Example{Record: rec, Label: math.Max(0, math.Min(100, math.Round(label)))}
	}
	return out
}

// WriteCSV renders examples in the dataset layout ReadCSV expects.
func WriteCSV(w io.Writer, examples []Example) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, ex := range examples {
		if err := writer.Write(recordCells(ex)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordCells(ex Example) []string {
	r := ex.Record
	itoa := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}
	str := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	activity := ""
	if r.PhysicalActivity != nil {
		activity = strconv.FormatFloat(*r.PhysicalActivity, 'f', -1, 64)
	}
	// Order follows models.RecordColumns, then the label.
	return []string{
		itoa(r.Age),
		str(r.Gender),
		str(r.Diagnosis),
		itoa(r.SymptomSeverity),
		itoa(r.MoodScore),
		itoa(r.SleepQuality),
		activity,
		str(r.Medication),
		str(r.TherapyType),
		str(r.TreatmentStartDate),
		itoa(r.TreatmentDuration),
		itoa(r.StressLevel),
		str(r.Outcome),
		itoa(r.TreatmentProgress),
		str(r.EmotionalState),
		strconv.FormatFloat(ex.Label, 'f', -1, 64),
	}
}
