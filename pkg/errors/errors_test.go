package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: listing missing", NewNotFoundError("listing missing").Error())
	assert.Equal(t, "INTERNAL: query failed: boom", NewInternalError("query failed", fmt.Errorf("boom")).Error())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("toggle: %w", NewExternalError("favorites store unavailable", nil))

	assert.Equal(t, ErrorTypeExternal, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
	assert.True(t, IsType(wrapped, ErrorTypeExternal))
	assert.False(t, IsType(wrapped, ErrorTypeNotFound))
	assert.False(t, IsType(nil, ErrorTypeNotFound))
}
