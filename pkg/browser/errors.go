package browser

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable   = errors.New("browser runtime unavailable")
	ErrSessionClosed = errors.New("browser session closed")
	ErrLaunchFailed  = errors.New("browser launch failed")
)

// RuntimeError wraps errors from the browser daemon with a code.
type RuntimeError struct {
	Code    string
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser runtime [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("browser runtime [%s]: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
