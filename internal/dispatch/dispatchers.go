package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/resource"
)

// maxErrorBody caps how much of a failed response lands in the error text.
const maxErrorBody = 500

// LocalExecutor runs the call's own handler in-process.
type LocalExecutor struct{}

// Execute implements Dispatcher.
func (LocalExecutor) Execute(ctx context.Context, call *Call) (any, error) {
	if call.Function.Handler == nil {
		return nil, fmt.Errorf("no local handler bound for function %q", call.Function.Name)
	}
	return call.Function.Handler(ctx, call.Args, call.Kwargs)
}

// QueueDispatcher submits calls to a queue-based endpoint through the
// external resource manager.
type QueueDispatcher struct {
	Manager resource.Manager
}

// Execute implements Dispatcher: binds the call into a job input, submits
// it as {"input": ...} via the resource's synchronous run, and surfaces a
// job-level error as *RemoteExecutionError.
func (d *QueueDispatcher) Execute(ctx context.Context, call *Call) (any, error) {
	info := call.Info
	if info == nil || info.EndpointURL == "" {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: resourceName(call),
			Detail:   "no endpoint URL for resource",
		}
	}

	endpointID, err := resource.EndpointIDFromURL(info.EndpointURL)
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: info.ResourceName,
			Err:      err,
		}
	}

	handle, err := d.Manager.GetOrDeployResource(ctx, resource.Config{
		Name:       "remote_" + info.ResourceName,
		EndpointID: endpointID,
	})
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: info.ResourceName,
			Err:      err,
		}
	}

	result, err := handle.RunSync(ctx, map[string]any{"input": call.queueInput()})
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: info.ResourceName,
			Err:      err,
		}
	}
	if result.Error != "" {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: info.ResourceName,
			Detail:   result.Error,
		}
	}
	return result.Output, nil
}

// HTTPDispatcher calls a load-balanced endpoint's own HTTP server directly.
type HTTPDispatcher struct {
	Client *http.Client
}

// Execute implements Dispatcher: positional args travel as an "args" array
// merged with keyword args; no-arg calls send no body at all.
func (d *HTTPDispatcher) Execute(ctx context.Context, call *Call) (any, error) {
	info := call.Info
	if info == nil || info.EndpointURL == "" {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name,
			Resource: resourceName(call),
			Detail:   "no endpoint URL for resource",
		}
	}

	method := info.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}
	path := info.HTTPPath
	if path == "" {
		path = "/"
	}
	url := strings.TrimRight(info.EndpointURL, "/") + path

	body := make(map[string]any, len(call.Kwargs)+1)
	if len(call.Args) > 0 {
		body["args"] = call.Args
	}
	for k, v := range call.Kwargs {
		body[k] = v
	}

	var reader io.Reader
	if len(body) > 0 {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body for %q: %w", call.Function.Name, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name, Method: method, URL: url, Err: err,
		}
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ctxlog.FromContext(ctx).Debug("dispatching remote call",
		"function", call.Function.Name, "method", method, "url", url)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name, Method: method, URL: url, Err: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteExecutionError{
			Function:   call.Function.Name,
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Detail:     string(bytes.TrimSpace(detail)),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name, Method: method, URL: url, Err: err,
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &RemoteExecutionError{
			Function: call.Function.Name, Method: method, URL: url,
			Detail: "response is not valid JSON", Err: err,
		}
	}
	return out, nil
}

func resourceName(call *Call) string {
	if call.Info != nil {
		return call.Info.ResourceName
	}
	return ""
}
