package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(TagAPI, cause, "chat completion failed")

	assert.Contains(t, err.Error(), "api_error")
	assert.Contains(t, err.Error(), "chat completion failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestTagOf(t *testing.T) {
	assert.Equal(t, ErrorTag(""), TagOf(nil))
	assert.Equal(t, TagUnknown, TagOf(errors.New("plain")))
	assert.Equal(t, TagValidation, TagOf(NewError(TagValidation, "bad input")))

	// Tags survive fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", NewError(TagToolExecution, "tool broke"))
	assert.Equal(t, TagToolExecution, TagOf(wrapped))
}

func TestError_As(t *testing.T) {
	err := WrapError(TagTimeout, errors.New("deadline"), "run cancelled")

	var tagged *Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, TagTimeout, tagged.Tag)
	assert.Equal(t, "run cancelled", tagged.Message)
}
