package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oriumgames/starter/internal/inject"
)

var (
	// ErrConfiguration marks startup errors caused by how a pipeline was populated.
	ErrConfiguration = errors.New("configuration error")
	// ErrLifecycle marks calls made in the wrong pipeline state.
	ErrLifecycle = errors.New("lifecycle violation")
	// ErrSystemFailure marks a system callback that returned an error or panicked.
	ErrSystemFailure = errors.New("system failure")
)

// LifecycleError reports an operation attempted in a state that does not allow it.
type LifecycleError struct {
	Phase Phase
	Op    string
	State State
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s pipeline: %s not allowed in state %s", e.Phase, e.Op, e.State)
}

func (e *LifecycleError) Is(target error) bool { return target == ErrLifecycle }

// ConfigError reports unresolved dependencies or invalid registrations.
type ConfigError struct {
	Phase   Phase
	Missing []inject.Missing
	Cause   error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s pipeline: configuration error", e.Phase)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	for i, m := range e.Missing {
		if i == 0 {
			b.WriteString(": unresolved ")
		} else {
			b.WriteString(", ")
		}
		if m.Type == nil {
			fmt.Fprintf(&b, "%s(nil slot)", m.System)
		} else {
			fmt.Fprintf(&b, "%s(%s)", m.System, m.Type)
		}
	}
	return b.String()
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigError) Unwrap() error { return e.Cause }

// SystemError reports a failing system callback.
type SystemError struct {
	Phase    Phase
	System   string
	Callback string
	Cause    error
	Stack    []byte
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s pipeline: system %s failed in %s: %v", e.Phase, e.System, e.Callback, e.Cause)
}

func (e *SystemError) Is(target error) bool { return target == ErrSystemFailure }

func (e *SystemError) Unwrap() error { return e.Cause }
