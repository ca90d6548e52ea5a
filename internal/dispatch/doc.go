// Package dispatch intercepts decorated calls and executes them where they
// belong. The routing registry decides local vs remote once per call; the
// decision selects one Dispatcher implementation (in-process, job-queue
// submission, or direct HTTP), which then performs exactly one execution
// attempt. Retry policy lives in the transports below this layer, never
// here.
package dispatch
