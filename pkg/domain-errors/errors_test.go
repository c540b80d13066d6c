package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to count checks")

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "failed to count checks: connection refused", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestHasCode(t *testing.T) {
	err := New(CodeLimitExceeded, "daily limit exceeded")

	assert.True(t, HasCode(err, CodeLimitExceeded))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "plan not found")
	outer := fmt.Errorf("resolving subscription: %w", inner)

	assert.True(t, HasCode(outer, CodeNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(outer))
}

func TestCodeOfUnclassified(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk full")))
	assert.Empty(t, MessageOf(errors.New("disk full")))
}
