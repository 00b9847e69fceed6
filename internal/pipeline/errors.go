package pipeline

import "errors"

var (
	// ErrInvalidPartition is returned for a negative total or a non-positive batch size.
	ErrInvalidPartition = errors.New("invalid partition")
	// ErrEmptyReferenceData is returned when trades are requested without products or counterparties.
	ErrEmptyReferenceData = errors.New("empty reference data")
	// ErrBatchFailed wraps the failure of a single generation batch.
	ErrBatchFailed = errors.New("batch failed")
	// ErrSinkClosed is returned when appending to a sink that was already flushed.
	ErrSinkClosed = errors.New("sink is closed")
	// ErrExecutorClosed is returned when submitting to a closed flush executor.
	ErrExecutorClosed = errors.New("flush executor is closed")
	// ErrFlushTimeout is returned when outstanding flushes outlive the flush timeout.
	ErrFlushTimeout = errors.New("timed out waiting for flushes")
)
