package simulate

import (
	"errors"
	"fmt"
)

// Sentinel kinds for simulation errors.
var (
	ErrUnhealthy = errors.New("service unhealthy")
	ErrMismatch  = errors.New("result mismatch")
	ErrFailed    = errors.New("sessions failed")
)

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}
