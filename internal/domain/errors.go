package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Fetch failures. Every provider adapter returns one of these (wrapped), never
// a raw transport error.
var (
	ErrNoData      = errors.New("no data")
	ErrRateLimited = errors.New("rate limited")
	ErrMalformed   = errors.New("malformed response")
	ErrTimeout     = errors.New("timeout")
)

var ErrInvalidSymbol = errors.New("invalid symbol")

// IsRateLimited reports whether err signals provider throttling.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsNoData reports whether err should be handled as missing data. Malformed
// payloads and timeouts count as missing data.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrMalformed) || errors.Is(err, ErrTimeout)
}

// ClassifyFetchError maps an arbitrary transport error onto the fetch taxonomy.
// Errors already in the taxonomy are returned unchanged.
func ClassifyFetchError(source string, err error) error {
	if err == nil {
		return nil
	}
	if IsRateLimited(err) || IsNoData(err) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s: %v: %w", source, err, ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", source, err, ErrNoData)
}
