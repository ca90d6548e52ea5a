package dispatch

import (
	"context"
	"net/http"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/resource"
	"github.com/vk/fnmesh/internal/routing"
)

// Wrapper is the call-interception layer: one routing decision, one
// dispatch. Construct it once at bootstrap and share it.
type Wrapper struct {
	registry *routing.Registry
	local    Dispatcher
	queue    Dispatcher
	http     Dispatcher
}

// NewWrapper wires a Wrapper from its collaborators. client is the
// authenticated HTTP client used for load-balanced targets; mgr is the
// external resource manager used for queue targets.
func NewWrapper(reg *routing.Registry, mgr resource.Manager, client *http.Client) *Wrapper {
	return &Wrapper{
		registry: reg,
		local:    LocalExecutor{},
		queue:    &QueueDispatcher{Manager: mgr},
		http:     &HTTPDispatcher{Client: client},
	}
}

// NewWrapperWithDispatchers is the fully-explicit constructor, for tests
// and callers with custom strategies.
func NewWrapperWithDispatchers(reg *routing.Registry, local, queue, httpd Dispatcher) *Wrapper {
	return &Wrapper{registry: reg, local: local, queue: queue, http: httpd}
}

// CallFunction routes one decorated-function invocation. A function the
// manifest does not know is executed locally (build mismatch, or plain
// undecorated local code); a local decision executes in-process; a remote
// decision dispatches by the target's transport. Genuine remote failures
// surface as *RemoteExecutionError; nothing is retried here.
func (w *Wrapper) CallFunction(ctx context.Context, fn Function, args []any, kwargs map[string]any) (any, error) {
	logger := ctxlog.FromContext(ctx)

	d := w.registry.Resolve(ctx, fn.Name)
	call := &Call{Function: fn, Info: d.Info, Args: args, Kwargs: kwargs}

	switch d.Kind {
	case routing.Unknown:
		logger.Debug("function not in manifest, executing locally", "function", fn.Name)
		return w.local.Execute(ctx, call)
	case routing.Local:
		logger.Debug("executing local function", "function", fn.Name)
		return w.local.Execute(ctx, call)
	}

	if d.Info.IsLoadBalanced {
		logger.Debug("routing to load-balanced endpoint",
			"function", fn.Name, "resource", d.Info.ResourceName)
		return w.http.Execute(ctx, call)
	}
	logger.Debug("routing to queue endpoint",
		"function", fn.Name, "resource", d.Info.ResourceName)
	return w.queue.Execute(ctx, call)
}

// CallClassMethod routes a class-method invocation, keyed on the class
// name. Remote class targets are always queue-based; the payload marks the
// execution type so the remote runtime instantiates the class before
// invoking the method.
func (w *Wrapper) CallClassMethod(ctx context.Context, call *ClassCall) (any, error) {
	logger := ctxlog.FromContext(ctx)

	if call.ClassName == "" {
		return call.Handler(ctx, call)
	}

	d := w.registry.Resolve(ctx, call.ClassName)
	switch d.Kind {
	case routing.Unknown:
		logger.Debug("class not in manifest, executing locally", "class", call.ClassName)
		return call.Handler(ctx, call)
	case routing.Local:
		logger.Debug("executing local class method",
			"class", call.ClassName, "method", call.MethodName)
		return call.Handler(ctx, call)
	}

	logger.Debug("routing class to queue endpoint",
		"class", call.ClassName, "resource", d.Info.ResourceName)
	args := call.Args
	if args == nil {
		args = []any{}
	}
	kwargs := call.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return w.queue.Execute(ctx, &Call{
		Function: Function{Name: call.ClassName},
		Info:     d.Info,
		Payload: map[string]any{
			"function_name":  call.ClassName,
			"execution_type": "class",
			"method_name":    call.MethodName,
			"args":           args,
			"kwargs":         kwargs,
		},
	})
}
