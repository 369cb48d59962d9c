package common

import (
	"errors"
	"fmt"
)

// ErrKind classifies the failures a sequencer node can run into. The kind
// decides how far an error travels: bootstrap kinds abort startup, runtime
// kinds end the node's background task.
type ErrKind uint32

const (
	// ConfigError is an invalid or contradictory configuration. It is raised
	// before any resource is opened.
	ConfigError ErrKind = iota
	// BackendInitError means the query storage could not be opened or
	// reached.
	BackendInitError
	// ModuleRegistrationError is a route conflict or a missing dependency
	// while composing the HTTP server.
	ModuleRegistrationError
	// EventPipelineError means the ordering contract of an event stream was
	// broken. It is never retried.
	EventPipelineError
	// RuntimeTaskError is a failure of a background task after startup, such
	// as a backend write or a network bind.
	RuntimeTaskError
)

// String ...
func (k ErrKind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case BackendInitError:
		return "BackendInitError"
	case ModuleRegistrationError:
		return "ModuleRegistrationError"
	case EventPipelineError:
		return "EventPipelineError"
	case RuntimeTaskError:
		return "RuntimeTaskError"
	default:
		return "Unknown"
	}
}

// NodeErr is an error tagged with an ErrKind and the operation that produced
// it.
type NodeErr struct {
	Kind ErrKind
	Op   string
	Err  error
}

// NewNodeErr wraps err with a kind and an operation name.
func NewNodeErr(kind ErrKind, op string, err error) *NodeErr {
	return &NodeErr{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// Errorf builds a NodeErr from a format string. %w verbs are honoured.
func Errorf(kind ErrKind, op string, format string, args ...interface{}) *NodeErr {
	return NewNodeErr(kind, op, fmt.Errorf(format, args...))
}

// Error ...
func (e *NodeErr) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeErr) Unwrap() error {
	return e.Err
}

// IsKind reports whether any error in err's chain is a NodeErr of the given
// kind.
func IsKind(err error, kind ErrKind) bool {
	for err != nil {
		var nodeErr *NodeErr
		if !errors.As(err, &nodeErr) {
			return false
		}
		if nodeErr.Kind == kind {
			return true
		}
		err = nodeErr.Err
	}
	return false
}
