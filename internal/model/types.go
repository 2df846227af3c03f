package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ServerState represents the lifecycle state of the managed server
// container as observed from the Docker daemon. The state transitions are:
//
//	absent → running ⇄ exited
//	running ⇄ paused
//
// Every state except running has a recovery action that moves the server
// one step closer to running (see RecoveryAction). The "craftctl start"
// command applies recovery actions until the server is running.
type ServerState string

const (
	// StateRunning indicates the server container exists and its main
	// process is running.
	StateRunning ServerState = "running"

	// StatePaused indicates the container exists but its processes are
	// frozen (docker pause). Recovery is a single unpause.
	StatePaused ServerState = "paused"

	// StateExited indicates the container exists but is not running.
	// World data and configuration inside the container are preserved.
	StateExited ServerState = "exited"

	// StateAbsent indicates no container with the configured name exists
	// on the daemon. Recovery requires creating it from scratch.
	StateAbsent ServerState = "absent"
)

// RecoveryAction is the operation required to move a server from its
// current state toward running.
type RecoveryAction string

const (
	// ActionNone means the server is already running.
	ActionNone RecoveryAction = "none"

	// ActionUnpause resumes a paused container.
	ActionUnpause RecoveryAction = "unpause"

	// ActionStart starts an existing, stopped container.
	ActionStart RecoveryAction = "start"

	// ActionCreate pulls the image and creates the container before
	// starting it.
	ActionCreate RecoveryAction = "create"
)

// String returns the string representation of ServerState.
// This satisfies the fmt.Stringer interface for CLI output.
func (s ServerState) String() string {
	return string(s)
}

// IsValid checks whether the ServerState value is one of the four
// predefined lifecycle states.
func (s ServerState) IsValid() bool {
	switch s {
	case StateRunning, StatePaused, StateExited, StateAbsent:
		return true
	default:
		return false
	}
}

// RecoveryAction returns the action required to bring a server in this
// state to running. StateRunning needs nothing; StatePaused needs an
// unpause; StateExited needs a container start; StateAbsent needs a full
// create (pull, create, start).
func (s ServerState) RecoveryAction() RecoveryAction {
	switch s {
	case StateRunning:
		return ActionNone
	case StatePaused:
		return ActionUnpause
	case StateExited:
		return ActionStart
	default:
		return ActionCreate
	}
}

// ParseServerState converts a Docker inspect state string into the
// four-state lifecycle model. Docker reports more states than the model
// tracks; the extra ones fold into the state with the same recovery:
//
//	running            → running
//	paused             → paused
//	exited, created,
//	dead, restarting   → exited (recovery: start)
//
// An empty string maps to absent, since that is what callers pass when
// no container was found.
func ParseServerState(dockerState string) ServerState {
	switch strings.ToLower(dockerState) {
	case "running":
		return StateRunning
	case "paused":
		return StatePaused
	case "":
		return StateAbsent
	default:
		// created, exited, dead, restarting and anything Docker adds in
		// the future: the container exists and needs a start.
		return StateExited
	}
}

// ServerInfo holds runtime information about the managed server container.
// This data is fetched dynamically from the Docker API, not persisted.
type ServerInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId,omitempty"`

	// Name is the server name, which doubles as the container name.
	Name string `json:"name"`

	// Image is the image reference the container was created from.
	Image string `json:"image,omitempty"`

	// State is the lifecycle state derived from the Docker inspect result.
	State ServerState `json:"state"`

	// StartedAt is when the container's main process last started.
	// Zero when the container is not running or absent.
	StartedAt time.Time `json:"startedAt,omitempty"`

	// Ports maps container ports ("25565/tcp") to host ports.
	Ports map[string]int `json:"ports,omitempty"`

	// Labels is the full set of Docker labels on the container,
	// including the craftctl management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// Uptime returns how long the server has been running, or zero if the
// container is not running.
func (i *ServerInfo) Uptime(now time.Time) time.Duration {
	if i.State != StateRunning || i.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(i.StartedAt)
}

// nameRegex validates server names: alphanumeric + hyphens only,
// must start and end with alphanumeric. Docker container names accept a
// wider character set, but keeping to this subset avoids shell-quoting
// surprises in every context the name is interpolated into.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid server name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("server name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid server name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ExitCode defines the CLI exit codes. These codes allow scripts and
// supervisors to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no craftctl configuration file was
	// found in the expected locations.
	ExitConfigNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitWorldSyncFailed indicates the worlds archive could not be
	// downloaded or extracted.
	ExitWorldSyncFailed ExitCode = 4

	// ExitServerNotFound indicates the named server container does not
	// exist on the Docker daemon.
	ExitServerNotFound ExitCode = 5

	// ExitPortInUse indicates the configured host port is already bound
	// by another process.
	ExitPortInUse ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
