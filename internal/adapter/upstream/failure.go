package upstream

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a fetch produced no payload.
type FailureKind string

const (
	// FailureTransport: the request could not be sent or the body not read.
	FailureTransport FailureKind = "transport"
	// FailureStatus: the endpoint answered with a non-2xx status.
	FailureStatus FailureKind = "status"
	// FailureDecode: the body was not a JSON object with "aligned_results".
	FailureDecode FailureKind = "decode"
)

// FetchFailure is the single error type returned by Client.Fetch.
type FetchFailure struct {
	Kind       FailureKind
	StatusCode int // set for FailureStatus
	Err        error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("fetch event impact (%s): %v", f.Kind, f.Err)
}

func (f *FetchFailure) Unwrap() error { return f.Err }

func failureKind(err error) FailureKind {
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return ff.Kind
	}
	return FailureTransport
}
