// Package apperr defines the closed set of failure kinds produced by the
// adherence pipeline. Callers branch on Kind rather than on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknownCategory Kind = "UnknownCategoryError"
	KindInvalidDate     Kind = "InvalidDateError"
	KindMissingFeature  Kind = "MissingFeatureError"
	KindArtifactLoad    Kind = "ArtifactLoadError"
	KindTrainingData    Kind = "TrainingDataError"
	KindInvalidRecord   Kind = "InvalidRecordError"
	// KindInternal is reported for errors that carry no kind.
	KindInternal Kind = "InternalError"
)

// Error is the single error type of the pipeline.
type Error struct {
	Kind    Kind
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func UnknownCategory(column, value string) *Error {
	return &Error{
		Kind:    KindUnknownCategory,
		Field:   column,
		Value:   value,
		Message: fmt.Sprintf("unknown category %q for column %q", value, column),
	}
}

func InvalidDate(column, value string, err error) *Error {
	return &Error{
		Kind:    KindInvalidDate,
		Field:   column,
		Value:   value,
		Message: fmt.Sprintf("invalid date %q for column %q", value, column),
		Err:     err,
	}
}

func MissingFeature(column string) *Error {
	return &Error{
		Kind:    KindMissingFeature,
		Field:   column,
		Message: fmt.Sprintf("missing required feature %q", column),
	}
}

func ArtifactLoad(message string, err error) *Error {
	return &Error{Kind: KindArtifactLoad, Message: message, Err: err}
}

func TrainingData(message string, err error) *Error {
	return &Error{Kind: KindTrainingData, Message: message, Err: err}
}

func InvalidRecord(message string, err error) *Error {
	return &Error{Kind: KindInvalidRecord, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
