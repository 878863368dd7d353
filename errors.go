package qsub

import "errors"

// Failure taxonomy. Errors returned by the engine and its collaborators wrap
// one of these sentinels; use errors.Is to classify.
var (
	// ErrProvision indicates queue creation failed for a reason other than
	// the queue already existing. Fatal to engine startup.
	ErrProvision = errors.New("queue provisioning failed")

	// ErrReceive indicates a poll attempt failed. The engine logs it and
	// retries on the next scheduled poll.
	ErrReceive = errors.New("receive failed")

	// ErrDeliver indicates a publish failed. No retry is performed at this
	// layer; retry policy belongs to the caller.
	ErrDeliver = errors.New("delivery failed")

	// ErrDelete indicates the service rejected a deletion, typically
	// because the receipt handle was already used or its visibility window
	// expired. Not retried; the message may be redelivered by the service.
	ErrDelete = errors.New("deletion failed")
)

// Engine lifecycle errors
var (
	ErrEngineRunning = errors.New("engine already running")
	ErrEngineStopped = errors.New("engine stopped")
	ErrNilClient     = errors.New("queue client is required")
	ErrNilProcessor  = errors.New("processor is required")
)
