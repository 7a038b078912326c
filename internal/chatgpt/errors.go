package chatgpt

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeMissingConversationID   ErrorCode = "MISSING_CONVERSATION_ID"
	CodeSessionFetchFailed      ErrorCode = "SESSION_FETCH_FAILED"
	CodeMissingAccessToken      ErrorCode = "MISSING_ACCESS_TOKEN"
	CodeConversationFetchFailed ErrorCode = "CONVERSATION_FETCH_FAILED"
)

// FetchError is the only failure a fetch can end with. Status is the upstream
// HTTP status for the two *_FETCH_FAILED codes, or 0 when no response arrived.
type FetchError struct {
	Code   ErrorCode
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Code {
	case CodeMissingConversationID:
		return "Could not find a conversation ID. Please ensure you're on a valid ChatGPT conversation page."
	case CodeSessionFetchFailed:
		return fmt.Sprintf("Failed to fetch session (status: %d). Are you logged in?", e.Status)
	case CodeMissingAccessToken:
		return "Could not retrieve access token."
	case CodeConversationFetchFailed:
		return fmt.Sprintf("Failed to fetch conversation data (status: %d).", e.Status)
	default:
		return fmt.Sprintf("fetch failed: %s", e.Code)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError extracts a *FetchError from err's chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func IsCode(err error, code ErrorCode) bool {
	fe, ok := AsFetchError(err)
	return ok && fe.Code == code
}
