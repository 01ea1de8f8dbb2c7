package provider

import "fmt"

// TransportError is a non-success HTTP response from the provider.
// It is fatal to the current sync cycle.
type TransportError struct {
	StatusCode int
	Endpoint   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d from %s", e.StatusCode, e.Endpoint)
}

// UpstreamError is a successful response carrying an application-level
// error code (invalid cursor, expired token). It is fatal to the current
// sync cycle, same as a transport failure.
type UpstreamError struct {
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider rejected request: %s", e.Code)
	}
	return fmt.Sprintf("provider rejected request: %s: %s", e.Code, e.Message)
}
