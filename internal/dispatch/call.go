package dispatch

import (
	"context"

	"github.com/vk/fnmesh/internal/routing"
)

// HandlerFunc is the in-process implementation of a decorated function.
// Positional args arrive in declaration order; kwargs by name.
type HandlerFunc func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Function describes one decorated function as the build pipeline recorded
// it: its registry name, its parameter names in declaration order (used to
// bind positional args for queue payloads), and its local implementation.
type Function struct {
	Name    string
	Params  []string
	Handler HandlerFunc
}

// ClassHandlerFunc is the in-process implementation of a class method call.
type ClassHandlerFunc func(ctx context.Context, call *ClassCall) (any, error)

// ClassCall is a request to invoke a method on a decorated class.
type ClassCall struct {
	ClassName  string
	MethodName string
	Args       []any
	Kwargs     map[string]any
	// Handler executes the call locally when routing decides it is not
	// remote.
	Handler ClassHandlerFunc
}

// Call is the unit of work a Dispatcher executes.
type Call struct {
	Function Function
	// Info is the routing answer for remote dispatchers; nil for local.
	Info   *routing.RoutingInfo
	Args   []any
	Kwargs map[string]any
	// Payload, when non-nil, is a pre-built queue input that bypasses
	// positional-arg binding (class method calls use this).
	Payload map[string]any
}

// Dispatcher executes a call by one strategy. The routing decision selects
// which implementation runs; the call is then invoked uniformly.
type Dispatcher interface {
	Execute(ctx context.Context, call *Call) (any, error)
}

// queueInput binds positional args to the function's declared parameter
// names and merges keyword args over them.
func (c *Call) queueInput() map[string]any {
	if c.Payload != nil {
		return c.Payload
	}
	input := make(map[string]any, len(c.Args)+len(c.Kwargs))
	for i, arg := range c.Args {
		if i < len(c.Function.Params) {
			input[c.Function.Params[i]] = arg
		}
	}
	for k, v := range c.Kwargs {
		input[k] = v
	}
	return input
}
