package features

import (
	"errors"
	"strings"
	"time"

	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
)

var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"1/2/2006",
}

var errUnrecognisedDate = errors.New("unrecognised date layout")

// DateParts is the decomposition of a treatment start date.
type DateParts struct {
	Year  int
	Month int
	Day   int
}

// ParseStartDate decomposes a Treatment Start Date into year, month and day.
func ParseStartDate(raw string) (DateParts, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DateParts{}, apperr.InvalidDate(models.ColumnTreatmentStartDate, raw, errors.New("empty date"))
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateParts{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
		}
	}
	return DateParts{}, apperr.InvalidDate(models.ColumnTreatmentStartDate, raw, errUnrecognisedDate)
}
