package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input: %d", 7)))
	assert.Equal(t, KindConflict, KindOf(Conflict("already approved")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))

	// untyped errors are treated as store failures
	assert.Equal(t, KindStore, KindOf(errors.New("boom")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("request not found")
	wrapped := fmt.Errorf("loading: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("failed to save", cause)

	assert.Equal(t, "failed to save: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
