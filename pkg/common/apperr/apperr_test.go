package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("transform: %w", UnknownCategory("Diagnosis", "Flu"))

	assert.Equal(t, KindUnknownCategory, KindOf(err))
	assert.True(t, Is(err, KindUnknownCategory))
	assert.False(t, Is(err, KindInvalidDate))

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Diagnosis", appErr.Field)
	assert.Equal(t, "Flu", appErr.Value)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("no such file")
	err := ArtifactLoad("read model.json", cause)

	assert.Equal(t, "read model.json: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
}
