package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrDecode marks a response body that could not be decoded.
var ErrDecode = errors.New("decode response")

// StatusError is a non-200 response that was not retried away.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Code) }

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

const maxBody = 8 << 20

type Client struct {
	HTTP      *http.Client
	UserAgent string
	// MaxElapsed bounds the whole retry sequence. Zero means 3s.
	MaxElapsed time.Duration
}

// New returns a client with a tuned transport and the given overall timeout.
func New(timeout time.Duration, userAgent string) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{HTTP: &http.Client{Transport: tr, Timeout: timeout}, UserAgent: userAgent}
}

// DoJSON executes req, retrying transport errors and 5xx with exponential
// backoff, and decodes a 200 body into out.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any, log *zap.Logger) error {
	body, err := c.DoRaw(ctx, req, log)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// DoRaw is DoJSON without decoding.
func (c *Client) DoRaw(ctx context.Context, req *http.Request, log *zap.Logger) ([]byte, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req = req.WithContext(ctx)
	where := logURL(req.URL)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second
	if c.MaxElapsed > 0 {
		exp.MaxElapsedTime = c.MaxElapsed
	}

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		resp, err := hc.Do(req)
		if err != nil {
			var ue *url.Error
			if errors.As(err, &ue) {
				ue.URL = where
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Warn("http.retry", zap.String("url", where), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			log.Warn("http.retry", zap.String("url", where), zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return &StatusError{Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(exp, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// logURL drops the query, which carries provider API keys.
func logURL(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
