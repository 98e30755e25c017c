package schema

import "errors"

// Error taxonomy. Everything except ErrFatalConfig is recovered locally by
// the component that hit it and only surfaces in WorkflowState.Errors.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEmptyResult         = errors.New("empty result")
	ErrMalformedOutput     = errors.New("malformed backend output")
	ErrTimeout             = errors.New("timeout exceeded")
	ErrFatalConfig         = errors.New("fatal configuration error")
)
