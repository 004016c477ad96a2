package provider_test

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"stocktracker-service/internal/infrastructure/httpx"
)

type rtFunc func(*http.Request) *http.Response

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func httpClient(resBody string, code int) *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: rtFunc(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
				Request:    r,
			}
		}),
	}}
}

type route struct {
	code int
	body string
}

// router answers by URL path and records every request it sees.
type router struct {
	mu     sync.Mutex
	routes map[string]route
	seen   []*http.Request
}

func (rt *router) client() *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: rtFunc(func(r *http.Request) *http.Response {
			rt.mu.Lock()
			rt.seen = append(rt.seen, r)
			res, ok := rt.routes[r.URL.Path]
			rt.mu.Unlock()
			if !ok {
				res = route{code: 404, body: "not found"}
			}
			return &http.Response{
				StatusCode: res.code,
				Body:       io.NopCloser(strings.NewReader(res.body)),
				Header:     make(http.Header),
				Request:    r,
			}
		}),
	}}
}

func (rt *router) calls(path string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	n := 0
	for _, r := range rt.seen {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}
