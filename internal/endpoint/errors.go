package endpoint

import (
	"errors"
	"fmt"
)

// ErrInvalidEndpoint is matched by every *InvalidEndpointError via errors.Is.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// InvalidEndpointError reports an endpoint string that cannot be parsed.
// Input holds the caller's string verbatim.
type InvalidEndpointError struct {
	Input  string
	Reason string
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %s", e.Input, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidEndpoint) true.
func (e *InvalidEndpointError) Is(target error) bool {
	return target == ErrInvalidEndpoint
}

func invalid(input, format string, args ...any) error {
	return &InvalidEndpointError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
