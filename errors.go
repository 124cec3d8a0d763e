package poolz

import "errors"

// Sentinel errors returned by the public pool surface. Internal CAS
// failures, queue-extension retries, and similar transient conditions are
// never surfaced as errors - they retry within a bounded spin.
var (
	// ErrInvalidArgument is returned by New when construction parameters
	// violate the documented constraints.
	ErrInvalidArgument = errors.New("poolz: invalid argument")

	// ErrClosed is returned by Submit and Prewarm once the pool has
	// started stopping; no further submissions are accepted (TrySubmit
	// reports this as false).
	ErrClosed = errors.New("poolz: pool closed")

	// ErrCanceled is returned when a caller's context is canceled while
	// waiting on the pool (a Submit blocked on a full bounded queue).
	ErrCanceled = errors.New("poolz: wait canceled")

	// ErrInterrupted is returned when a wait is unblocked by the pool
	// itself being disposed, rather than by timeout or caller cancellation.
	ErrInterrupted = errors.New("poolz: wait interrupted by shutdown")
)
