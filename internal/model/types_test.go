package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseServerState verifies the mapping from Docker inspect state
// strings to the four-state lifecycle model. Docker reports more states
// than the model tracks, so every extra state must fold into the state
// whose recovery action applies to it.
func TestParseServerState(t *testing.T) {
	tests := []struct {
		dockerState string
		want        ServerState
	}{
		{"running", StateRunning},
		{"Running", StateRunning}, // case-insensitive
		{"paused", StatePaused},
		{"exited", StateExited},
		{"created", StateExited},
		{"dead", StateExited},
		{"restarting", StateExited},
		{"", StateAbsent},
	}

	for _, tt := range tests {
		t.Run("docker state "+tt.dockerState, func(t *testing.T) {
			got := ParseServerState(tt.dockerState)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

// TestRecoveryAction verifies that each lifecycle state maps to the
// recovery action that moves the server toward running.
func TestRecoveryAction(t *testing.T) {
	tests := []struct {
		state ServerState
		want  RecoveryAction
	}{
		{StateRunning, ActionNone},
		{StatePaused, ActionUnpause},
		{StateExited, ActionStart},
		{StateAbsent, ActionCreate},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.RecoveryAction())
		})
	}
}

// TestValidateName checks the server name validation rules:
// alphanumeric and hyphens only, starting and ending with alphanumeric.
func TestValidateName(t *testing.T) {
	valid := []string{"mc-main", "survival2", "a", "A1-b2-c3"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "-leading", "trailing-", "has space", "under_score", "dot.name"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}

// TestServerInfoUptime verifies that Uptime reports the elapsed time for
// running servers and zero for everything else.
func TestServerInfoUptime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-90 * time.Minute)

	running := &ServerInfo{State: StateRunning, StartedAt: started}
	assert.Equal(t, 90*time.Minute, running.Uptime(now))

	exited := &ServerInfo{State: StateExited, StartedAt: started}
	assert.Zero(t, exited.Uptime(now))

	// A running server with no recorded start time must not report a
	// bogus multi-decade uptime.
	noStart := &ServerInfo{State: StateRunning}
	assert.Zero(t, noStart.Uptime(now))
}

// TestCLIError verifies the error message formatting and the unwrap
// behavior used by the CLI layer to select exit codes.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(ExitServerNotFound, "server \"mc-main\" not found")
	assert.Equal(t, "server \"mc-main\" not found", plain.Error())
	assert.Equal(t, ExitServerNotFound, plain.Code)
	assert.Nil(t, plain.Unwrap())

	underlying := errors.New("connection refused")
	wrapped := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not responding", underlying)
	assert.Equal(t, "Docker daemon is not responding: connection refused", wrapped.Error())

	// errors.As must find the CLIError through wrapping so Execute can
	// pull the exit code out of an arbitrary error chain.
	var cliErr *CLIError
	require.True(t, errors.As(error(wrapped), &cliErr))
	assert.Equal(t, ExitDockerNotRunning, cliErr.Code)
	assert.True(t, errors.Is(wrapped, underlying))
}
