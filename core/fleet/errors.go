package fleet

import "errors"

// ErrTimeout is returned when the coordinator does not answer before the
// request deadline. A timeout never means the request failed for good:
// the claim or route may still have landed, so callers verify through
// fresh state instead of assuming.
var ErrTimeout = errors.New("timeout waiting for coordinator reply")

// ErrClosed is returned for requests issued after the channel shut down.
var ErrClosed = errors.New("fleet channel closed")
