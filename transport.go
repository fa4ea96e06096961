package hlsfeed

import (
	"errors"
	"net"
	"net/http"
	"time"
)

const requestIDHeader = "X-Request-ID"

// defaultTransport returns an http.Transport with connection pooling and
// keep-alive suited to a single feed host.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// retryTransport fills in the User-Agent and retries replayable requests on
// transport errors. Status codes are never retried here.
type retryTransport struct {
	base      http.RoundTripper
	userAgent string

	// retryMax does not count the first attempt: 2 means at most 3 attempts.
	retryMax int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.base == nil {
		return nil, errors.New("nil base transport")
	}

	// Only GET/HEAD without a body can be replayed safely.
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
	retries := t.retryMax
	if retries < 0 || !canRetry {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.userAgent != "" {
			r.Header.Set("User-Agent", t.userAgent)
		}

		resp, err := t.base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach the base.
func (t *retryTransport) CloseIdleConnections() {
	if ci, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}
