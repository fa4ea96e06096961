package hlsfeed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const (
	defaultUserAgent = "hlsfeed/1.0"
	defaultBaseURL   = "http://localhost:5000"
	defaultTimeout   = 15 * time.Second
	defaultRetryMax  = 2

	// DefaultFeedPath is the ranked feed (top videos by likes).
	DefaultFeedPath = "/api/videos"
)

// Transport performs the two network operations a Feed depends on.
type Transport interface {
	FetchFeed(ctx context.Context) ([]Video, error)
	PostLike(ctx context.Context, id int) error
}

var _ Transport = (*Client)(nil)

// Client talks to the video feed service over plain HTTP. It rewrites the
// placeholder host of every stream URL to reachableHost at decode time.
type Client struct {
	client    *http.Client
	rt        *retryTransport
	proxy     string
	userAgent string
	baseURL   string
	feedPath  string
	logger    logrus.FieldLogger

	reachableHost string

	// Likes are throttled per client; zero disables.
	likeDelay time.Duration
	lastLike  time.Time
	likeMu    sync.Mutex
}

// New creates a Client with sensible defaults pointing at a local server.
func New() *Client {
	rt := &retryTransport{
		base:      defaultTransport(),
		userAgent: defaultUserAgent,
		retryMax:  defaultRetryMax,
	}
	return &Client{
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: rt,
		},
		rt:        rt,
		userAgent: defaultUserAgent,
		baseURL:   defaultBaseURL,
		feedPath:  DefaultFeedPath,
		logger:    logrus.StandardLogger(),
	}
}

// WithBaseURL sets the service root, e.g. "http://192.168.0.21:5000".
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// WithFeedPath sets the list endpoint path. "/videos" returns every video in
// insertion order instead of the ranked feed.
func (c *Client) WithFeedPath(path string) *Client {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.feedPath = path
	return c
}

// WithReachableHost sets the host substituted for the placeholder in stream
// URLs. When unset, the host of the base URL is used.
func (c *Client) WithReachableHost(host string) *Client {
	c.reachableHost = host
	return c
}

// WithLikeDelay sets the minimum delay between like requests. Zero or
// negative disables the throttle.
func (c *Client) WithLikeDelay(d time.Duration) *Client {
	c.likeDelay = max(d, 0)
	return c
}

// WithRetryMax sets how many times a failed feed read is retried.
func (c *Client) WithRetryMax(n int) *Client {
	c.rt.retryMax = n
	return c
}

// WithTimeout sets the overall per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.client.Timeout = d
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua == "" {
		ua = defaultUserAgent
	}
	c.userAgent = ua
	c.rt.userAgent = ua
	return c
}

// WithLogger sets the logger used for request logs.
func (c *Client) WithLogger(l logrus.FieldLogger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// ReachableHost returns the host stream URLs are rewritten to: the
// configured one, or else the base URL's host.
func (c *Client) ReachableHost() string {
	if c.reachableHost != "" {
		return c.reachableHost
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	if host := u.Hostname(); ValidReachableHost(host) {
		return host
	}
	return ""
}

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy for the HTTP client.
// Retry and keep-alive settings are preserved.
func (c *Client) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		c.rt.base = defaultTransport()
		c.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return errors.Wrap(err, "parse proxy url")
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return errors.Wrap(err, "socks5 proxy")
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return errors.New("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
	default:
		return errors.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	c.rt.base = base
	c.proxy = proxyAddr
	return nil
}

// doRequest builds and executes an HTTP request with the standard headers.
// Any non-2xx status is turned into an *HTTPStatusError and the body closed.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"url":        urlStr,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("elapsed", time.Since(start)).Warn("request failed")
		return nil, errors.Wrap(err, "do request")
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(start)})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		log.Warn("unexpected status")
		return nil, &HTTPStatusError{Method: method, URL: urlStr, StatusCode: resp.StatusCode}
	}

	log.Debug("request done")
	return resp, nil
}

// FetchFeed reads the video list. Failures come back as *FetchError.
func (c *Client) FetchFeed(ctx context.Context) ([]Video, error) {
	start := time.Now()

	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+c.feedPath, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: errors.Wrap(err, "read feed body")}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &FetchError{Kind: FetchNetwork, Err: ErrEmptyBody}
	}

	videos, err := DecodeVideos(body, c.ReachableHost())
	if err != nil {
		return nil, &FetchError{Kind: FetchDecode, Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"op":      "fetch_feed",
		"count":   len(videos),
		"bytes":   len(body),
		"elapsed": time.Since(start),
	}).Debug("feed fetched")
	return videos, nil
}

// PostLike records one like for id. The response body is ignored; the
// server does not return the new count.
func (c *Client) PostLike(ctx context.Context, id int) error {
	if err := c.waitForLike(ctx); err != nil {
		return &LikeError{ID: id, Err: err}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("%s/like/%d", c.baseURL, id), nil)
	if err != nil {
		return &LikeError{ID: id, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// waitForLike enforces the minimum delay between like requests.
func (c *Client) waitForLike(ctx context.Context) error {
	c.likeMu.Lock()
	defer c.likeMu.Unlock()
	return throttle(ctx, &c.lastLike, c.likeDelay)
}

// throttle waits if needed to enforce min delay + jitter between requests.
// It gives up early when ctx ends, leaving lastReq untouched.
func throttle(ctx context.Context, lastReq *time.Time, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	elapsed := time.Since(*lastReq)
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	if wait := delay + jitter - elapsed; wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	*lastReq = time.Now()
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
