package conversation

import "errors"

var (
	// ErrSynthesisFailed means template synthesis produced no valid message
	// after retries. Callers move on to the remote fallback chain.
	ErrSynthesisFailed = errors.New("conversation: synthesis produced no valid message")

	// ErrHistoryUnavailable means the conversation store could not serve
	// the lead's history.
	ErrHistoryUnavailable = errors.New("conversation: history unavailable")

	// ErrRemoteGeneration wraps failures from the remote fallback service.
	ErrRemoteGeneration = errors.New("conversation: remote generation failed")
)
