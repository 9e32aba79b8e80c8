package features

import (
	"fmt"
	"sort"

	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
)

// LabelEncoder is a frozen bijection between category strings and integer
// codes. Classes are sorted, so a code is the class's index.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabelEncoder builds the vocabulary from every observed value.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Encode returns the code for value, or false when value was not in the vocabulary.
func (e *LabelEncoder) Encode(value string) (int, bool) {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i, true
	}
	return 0, false
}

func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("code %d outside vocabulary of %d classes", code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// EncoderSet holds one fitted encoder per categorical column.
type EncoderSet map[string]*LabelEncoder

// FitEncoders fits one encoder per column from column-major values.
func FitEncoders(values map[string][]string) EncoderSet {
	set := make(EncoderSet, len(values))
	for column, vs := range values {
		set[column] = FitLabelEncoder(vs)
	}
	return set
}

// Encode maps value through the encoder of column. Values outside the training
// vocabulary are an UnknownCategoryError, never a default code.
func (s EncoderSet) Encode(column, value string) (int, error) {
	enc, ok := s[column]
	if !ok || enc == nil {
		return 0, fmt.Errorf("no encoder fitted for column %q", column)
	}
	code, ok := enc.Encode(value)
	if !ok {
		return 0, apperr.UnknownCategory(column, value)
	}
	return code, nil
}

// Validate checks the set covers exactly the categorical columns.
func (s EncoderSet) Validate() error {
	if len(s) != len(CategoricalColumns) {
		return fmt.Errorf("encoder set has %d columns, want %d", len(s), len(CategoricalColumns))
	}
	for _, column := range CategoricalColumns {
		enc, ok := s[column]
		if !ok || enc == nil {
			return fmt.Errorf("encoder set missing column %q", column)
		}
		if len(enc.Classes) == 0 {
			return fmt.Errorf("encoder for column %q has an empty vocabulary", column)
		}
		if !sort.StringsAreSorted(enc.Classes) {
			return fmt.Errorf("encoder for column %q is not sorted", column)
		}
	}
	return nil
}
