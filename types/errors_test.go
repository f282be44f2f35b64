package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfWrapped(t *testing.T) {
	base := &ReadError{Code: NetworkUnreachable, Err: errors.New("dial tcp: refused")}
	wrapped := fmt.Errorf("refresh: %w", base)

	require.Equal(t, NetworkUnreachable, CodeOf(wrapped))
	require.True(t, IsCode(wrapped, NetworkUnreachable))
	require.False(t, IsCode(wrapped, OwnerInvalid))
	require.Contains(t, wrapped.Error(), "dial tcp")
}

func TestCodeOfPlainError(t *testing.T) {
	require.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	require.False(t, IsCode(nil, MissingField))
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError(MissingField, "amount", "Please provide an amount.")
	require.Equal(t, MissingField, CodeOf(err))
	require.Contains(t, err.Error(), "(amount)")
}

func TestPhaseFlags(t *testing.T) {
	require.True(t, PhaseValidating.InFlight())
	require.True(t, PhaseSubmitted.InFlight())
	require.False(t, PhaseIdle.InFlight())
	require.False(t, PhaseConfirmed.InFlight())
	require.True(t, PhaseFailed.Terminal())
	require.False(t, PhaseSubmitted.Terminal())
}
