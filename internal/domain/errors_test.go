package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := E(KindConfiguration, "gate", errors.New("unknown producer \"fred\""))
	wrapped := fmt.Errorf("run producer: %w", err)

	assert.ErrorIs(t, wrapped, ErrConfiguration)
	assert.NotErrorIs(t, wrapped, ErrHandlerFailure)
	assert.Equal(t, KindConfiguration, KindOf(wrapped))
	assert.Equal(t, `gate: configuration error: unknown producer "fred"`, err.Error())
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := E(KindTransportConnect, "dial", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransportConnect)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(E(KindTransportTimeout, "read", nil)))
	assert.True(t, IsRetryable(E(KindTransportConnect, "dial", nil)))
	assert.False(t, IsRetryable(E(KindTransportDecode, "decode", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "unknown error", KindUnknown.String())
}
