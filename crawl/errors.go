package crawl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind labels a crawl failure for metrics and the run report.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindStructure   ErrorKind = "structure"
	KindOther       ErrorKind = "other"
)

// FetchError wraps a failed page fetch with its classification. Any fetch
// failure is fatal for the remainder of the crawl; the partial output written
// so far stays valid.
type FetchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// classify buckets a transport error and/or HTTP status into an ErrorKind.
func classify(err error, statusCode int) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	switch statusCode {
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimited
	}
	return KindOther
}
