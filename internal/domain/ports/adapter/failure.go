package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FailureKind classifies a failed provider call.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureRateLimited FailureKind = "rate_limited"
	FailureServer      FailureKind = "server"
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureMalformed   FailureKind = "malformed"
	FailureRejected    FailureKind = "rejected"
	FailureUnavailable FailureKind = "unavailable"
)

// Retryable reports whether a caller may try the same request again.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureRateLimited, FailureServer, FailureTimeout:
		return true
	}
	return false
}

// TransportError is returned by provider adapters when the remote side
// answered with a status code.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s http %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrEmptyCompletion is returned when a provider answered without content.
var ErrEmptyCompletion = errors.New("empty completion")

// Classify maps an adapter error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var te *TransportError
	if errors.As(err, &te) {
		switch {
		case te.StatusCode == http.StatusTooManyRequests:
			return FailureRateLimited
		case te.StatusCode == http.StatusRequestTimeout || te.StatusCode == http.StatusGatewayTimeout:
			return FailureTimeout
		case te.StatusCode >= 500:
			return FailureServer
		case te.StatusCode >= 400:
			return FailureRejected
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return FailureMalformed
	}
	return FailureServer
}
