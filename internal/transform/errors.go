package transform

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for the failure kinds of this package. The typed errors
// below match them through errors.Is.
var (
	// ErrConfiguration is a registration-time failure. It is never retried.
	ErrConfiguration = errors.New("transform configuration error")

	// ErrUnknownService is returned when a lookup has no matching capability.
	ErrUnknownService = errors.New("unknown service")

	// ErrExecution wraps instantiation and action failures of an invocation.
	ErrExecution = errors.New("transform execution failed")

	// ErrOutputContract is returned when an action's outputs break the
	// placement rules.
	ErrOutputContract = errors.New("transform output contract violated")

	// ErrUnknownImplementation is returned by catalog lookups.
	ErrUnknownImplementation = errors.New("unknown transform implementation")
)

// ConfigurationError reports a fatal problem found while registering a
// transform.
type ConfigurationError struct {
	Implementation string
	Msg            string
	Err            error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// UnknownServiceError is returned by strict lookups that found nothing.
type UnknownServiceError struct {
	Type reflect.Type
	Kind Kind
}

func (e *UnknownServiceError) Error() string {
	if e.Kind == KindNone {
		return fmt.Sprintf("no service of type %s available", e.Type)
	}
	return fmt.Sprintf("no service of type %s available for %s", e.Type, e.Kind)
}

func (e *UnknownServiceError) Is(target error) bool { return target == ErrUnknownService }

// InjectionError reports a field that could not be populated while
// constructing an action.
type InjectionError struct {
	Implementation string
	Field          string
	Kind           Kind
	Err            error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("cannot inject %s.%s (%s): %v", e.Implementation, e.Field, e.Kind, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }

// ExecutionError carries the implementation and input of a failed
// invocation. The cause is either a construction failure or an error raised
// by the action itself.
type ExecutionError struct {
	Implementation string
	Input          string
	Err            error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed for %s: %s: %v", e.Implementation, e.Input, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// OutputReason classifies output contract violations.
type OutputReason int

const (
	// NullResult means the action returned a nil output list.
	NullResult OutputReason = iota + 1
	// MissingOutput means a returned file does not exist.
	MissingOutput
	// MisplacedOutput means a returned file is outside both the input and
	// the output directory.
	MisplacedOutput
)

func (r OutputReason) String() string {
	switch r {
	case NullResult:
		return "null result"
	case MissingOutput:
		return "missing output"
	case MisplacedOutput:
		return "misplaced output"
	default:
		return fmt.Sprintf("OutputReason(%d)", int(r))
	}
}

// OutputError is an output contract violation.
type OutputError struct {
	Reason OutputReason
	Path   string
}

func (e *OutputError) Error() string {
	switch e.Reason {
	case NullResult:
		return "transform returned null result"
	case MissingOutput:
		return fmt.Sprintf("transform output file %s does not exist", e.Path)
	default:
		return fmt.Sprintf("transform output file %s is not a child of the transform's input file or output directory", e.Path)
	}
}

func (e *OutputError) Is(target error) bool { return target == ErrOutputContract }
