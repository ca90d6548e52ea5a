package dispatch

import (
	"fmt"
	"strings"
)

// RemoteExecutionError reports a failed remote invocation: a non-2xx HTTP
// answer, a transport failure, or a job result carrying an error. It always
// reaches the original caller; this layer never swallows or retries it.
type RemoteExecutionError struct {
	// Function is the decorated name being called.
	Function string
	// Resource is the owning resource, when known.
	Resource string
	// Method and URL describe the HTTP attempt, for load-balanced targets.
	Method string
	URL    string
	// StatusCode is the HTTP status, when one was received.
	StatusCode int
	// Detail carries the response body or job error message.
	Detail string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *RemoteExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote execution of %q failed", e.Function)
	if e.Resource != "" {
		fmt.Fprintf(&b, " on %q", e.Resource)
	}
	if e.Method != "" || e.URL != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Method, e.URL)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteExecutionError) Unwrap() error { return e.Err }
