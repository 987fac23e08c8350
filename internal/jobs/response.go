package jobs

import "fmt"

// ErrorKind tags a failed Response with the reason class.
type ErrorKind string

const (
	KindConfigurationMissing ErrorKind = "configuration_missing"
	KindTransportFailure     ErrorKind = "transport_failure"
	KindUnsupported          ErrorKind = "unsupported_operation"
)

// Response is the envelope returned by every adapter operation.
// Data is dropped only when it is the zero value, so an empty non-nil slice encodes as [].
type Response[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitzero"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

func OK[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

func Fail[T any](kind ErrorKind, message string) Response[T] {
	return Response[T]{Error: message, Kind: kind}
}

// NotConfigured builds the credentials failure for a platform.
func NotConfigured[T any](p Platform) Response[T] {
	return Fail[T](KindConfigurationMissing, fmt.Sprintf("%s API credentials not configured", p.Title()))
}
