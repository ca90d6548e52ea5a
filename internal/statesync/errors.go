package statesync

import (
	"fmt"
	"strings"
)

// ServiceUnavailableError reports that the coordination service stayed
// unreachable for a full retry budget. Callers treat it as recoverable:
// routing degrades, the process does not.
type ServiceUnavailableError struct {
	Attempts int
	Err      error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("state manager unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// MalformedStateError reports remote state that cannot be used: an
// environment with no active build, a build with no manifest. This is a
// deployment or configuration bug, so it is never retried.
type MalformedStateError struct {
	Msg string
}

func (e *MalformedStateError) Error() string { return e.Msg }

// queryError is a server-reported GraphQL failure. Transient by assumption,
// so it counts against the retry budget rather than aborting.
type queryError struct {
	messages []string
}

func (e *queryError) Error() string {
	return "state manager query failed: " + strings.Join(e.messages, "; ")
}
