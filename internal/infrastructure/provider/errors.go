package provider

import (
	"errors"
	"fmt"
	"net/http"

	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/httpx"
)

// fetchError maps transport and decode failures onto the domain taxonomy.
func fetchError(source string, err error) error {
	switch code := httpx.StatusCode(err); {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", source, domain.ErrRateLimited)
	case code != 0:
		return fmt.Errorf("%s: status %d: %w", source, code, domain.ErrNoData)
	}
	if errors.Is(err, httpx.ErrDecode) {
		return fmt.Errorf("%s: %v: %w", source, err, domain.ErrMalformed)
	}
	return domain.ClassifyFetchError(source, err)
}
