package utils

import (
	"errors"
	"net/http"
)

// Error types. RECORD_EXISTS is internal: the engine's ID retry loop consumes
// it and it never reaches a caller. WRITE_CONFLICT is retried inside the
// backends and surfaces as a server failure only when contention outlasts
// the retries.
const (
	NOT_FOUND = iota
	RECORD_EXISTS
	WRITE_CONFLICT
	PAYLOAD_TOO_LARGE_DECLARED
	PAYLOAD_TOO_LARGE_ACTUAL
	INVALID_REQUEST
	TTL_EXCEEDED
	RATE_LIMITED
	UNAUTHORIZED
	BACKEND_UNAVAILABLE
)

var errTypeToMessage = map[int]string{
	NOT_FOUND:                  "record not found or expired",
	RECORD_EXISTS:              "a record already exists under the provided key",
	WRITE_CONFLICT:             "concurrent write conflict",
	PAYLOAD_TOO_LARGE_DECLARED: "declared payload size exceeds the tier limit",
	PAYLOAD_TOO_LARGE_ACTUAL:   "serialized payload size exceeds the tier limit",
	INVALID_REQUEST:            "invalid request",
	TTL_EXCEEDED:               "requested ttl exceeds the tier limit",
	RATE_LIMITED:               "rate limit exceeded",
	UNAUTHORIZED:               "missing or invalid API key",
	BACKEND_UNAVAILABLE:        "storage backend unavailable",
}

var errTypeToStatus = map[int]int{
	NOT_FOUND:                  http.StatusNotFound,
	RECORD_EXISTS:              http.StatusInternalServerError,
	WRITE_CONFLICT:             http.StatusInternalServerError,
	PAYLOAD_TOO_LARGE_DECLARED: http.StatusRequestEntityTooLarge,
	PAYLOAD_TOO_LARGE_ACTUAL:   http.StatusRequestEntityTooLarge,
	INVALID_REQUEST:            http.StatusBadRequest,
	TTL_EXCEEDED:               http.StatusBadRequest,
	RATE_LIMITED:               http.StatusTooManyRequests,
	UNAUTHORIZED:               http.StatusUnauthorized,
	BACKEND_UNAVAILABLE:        http.StatusServiceUnavailable,
}

// StashError is the single error type the whole service speaks. Backends
// translate substrate-specific failures into it and the HTTP layer maps its
// StatusCode straight onto the response.
type StashError struct {
	Type       int
	StatusCode int
	msg        string
}

// NewStashError returns a StashError of the given type. An optional custom
// message overrides the type's canonical one.
func NewStashError(errType int, msgs ...string) StashError {
	msg := ""
	if len(msgs) > 0 {
		msg = msgs[0]
	} else if m, ok := errTypeToMessage[errType]; ok {
		msg = m
	}

	status, ok := errTypeToStatus[errType]
	if !ok {
		status = http.StatusInternalServerError
	}

	return StashError{
		Type:       errType,
		StatusCode: status,
		msg:        msg,
	}
}

func (e StashError) Error() string {
	return e.msg
}

// IsType reports whether err is a StashError of the given type.
func IsType(err error, errType int) bool {
	var se StashError
	if errors.As(err, &se) {
		return se.Type == errType
	}
	return false
}
