package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when the platform rejects the session
// credentials. Callers should trigger a re-authentication flow rather than
// retrying the request as-is.
var ErrUnauthenticated = errors.New("platform rejected session credentials")

// Platform envelope codes that indicate an expired or invalid session.
var authExpiredCodes = map[int]bool{
	-100: true, // session expired
	-101: true, // session invalid
}

// PlatformError is a structured rejection returned by the platform API.
// It is not retried automatically.
type PlatformError struct {
	Code int
	Msg  string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform rejected request: code %d: %s", e.Code, e.Msg)
}
