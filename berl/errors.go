package berl

import (
	"fmt"
)

// Error codes passed to NewError.
const (
	AlreadyConnectedError = iota

	ConnectionError

	ConnectionRefusedError

	DisconnectedError

	EncodeError

	InvalidURIError

	TimedOutError

	ConnectionClosedError

	UnknownError
)

// Sentinels surfaced by expectation waiters. Exactly one of a match,
// ErrTimedOut, or ErrConnectionClosed resolves any given expectation, and
// waiters compare with errors.Is against these variables.
var (
	ErrTimedOut         = NewError(TimedOutError, "expectation timed out")
	ErrConnectionClosed = NewError(ConnectionClosedError, "connection closed")
)

// NewError builds a typed client error from a code and optional detail.
func NewError(errorCode int, message ...interface{}) error {
	var errorName string

	switch errorCode {
	case AlreadyConnectedError:
		errorName = "AlreadyConnectedError"
	case ConnectionError:
		errorName = "ConnectionError"
	case ConnectionRefusedError:
		errorName = "ConnectionRefusedError"
	case DisconnectedError:
		errorName = "DisconnectedError"
	case EncodeError:
		errorName = "EncodeError"
	case InvalidURIError:
		errorName = "InvalidURIError"
	case TimedOutError:
		errorName = "TimedOutError"
	case ConnectionClosedError:
		errorName = "ConnectionClosedError"
	default:
		errorName = "UnknownError"
	}

	if len(message) > 0 {
		return fmt.Errorf("%s: %s", errorName, message[0])
	}

	return fmt.Errorf("%s", errorName)
}
