// Package types holds the JSON envelopes shared by the API and its clients.
package types

// Envelope is the success body {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// SuccessEnvelope is what handlers write; clients decode into Envelope[*T].
type SuccessEnvelope = Envelope[any]

// APIError is the body of every non-2xx response. Code is one of the pkg/errors codes.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Failed reports whether the envelope carried an error code.
func (e ErrorEnvelope) Failed() bool {
	return e.Error.Code != ""
}
