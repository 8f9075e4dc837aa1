// Package client implements the SDK for the candlekeep artifact store.
//
// A [Client] maps every exported method onto exactly one HTTP request
// against the store's REST surface and decodes the response into the value
// types of the [astore] package. It performs no retries and keeps no state
// between calls beyond the configuration and the underlying connection
// pool; see the package documentation of [astore] for the data model.
package client

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quay/zlog"

	"github.com/candlekeep/astore-go"
	"github.com/candlekeep/astore-go/internal/httputil"
)

// DefaultTimeout is applied when Config.Timeout is unset and no custom HTTP
// client is provided.
const DefaultTimeout = 60 * time.Second

// Config carries the caller-supplied client configuration. BaseURL is the
// only required field.
type Config struct {
	// BaseURL is the artifact store endpoint, e.g.
	// "https://artifacts.example.com". A trailing slash is stripped.
	BaseURL string

	// Token is the bearer token sent in the Authorization header. May be
	// empty; may be changed later via [Client.SetToken].
	Token string

	// HTTPClient, when non-nil, is used as-is for all requests and the
	// Timeout and InsecureSkipVerify fields are ignored.
	HTTPClient *http.Client

	// Timeout bounds every request, connection establishment through
	// response body read. Defaults to [DefaultTimeout].
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate validation for this
	// client instance only.
	InsecureSkipVerify bool

	// UserAgent overrides the default "astore-go/<version>" User-Agent.
	UserAgent string
}

// Client is an artifact store API client. It is safe for concurrent use,
// with the exception of [Client.SetToken].
type Client struct {
	base      *url.URL
	hc        *http.Client
	token     string
	userAgent string
}

// New creates a Client from the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &astore.Error{
			Kind:    astore.ErrBadRequest,
			Message: "BaseURL is required",
			Op:      "New",
		}
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, &astore.Error{
			Kind:    astore.ErrBadRequest,
			Message: "invalid BaseURL",
			Op:      "New",
			Inner:   err,
		}
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, &astore.Error{
			Kind:    astore.ErrBadRequest,
			Message: "BaseURL must use the http or https scheme",
			Op:      "New",
		}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		tr := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		if cfg.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: tr,
		}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "astore-go/" + astore.Version
	}

	return &Client{
		base:      base,
		hc:        hc,
		token:     cfg.Token,
		userAgent: ua,
	}, nil
}

// SetToken replaces the bearer token used for subsequent requests.
//
// Not synchronized: callers rotating tokens while requests are in flight
// must provide their own coordination.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do issues a single HTTP request and checks the response status.
//
// op names the SDK operation for errors, logs, and metrics. Per-call
// headers win over the client defaults on key collision. A non-nil error is
// either transport-kind (the request never completed) or the mapped error
// for a >=400 status; in both cases no response is returned and any
// response body has been closed.
func (c *Client) do(ctx context.Context, op, method, upath string, query url.Values, headers map[string]string, body io.Reader, size int64) (*http.Response, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "client/Client."+op)

	u := *c.base
	u.Path = path.Join(u.Path, upath)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &astore.Error{
			Kind:    astore.ErrTransport,
			Message: "unable to construct request",
			Op:      op,
			Inner:   err,
		}
	}
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	id := uuid.NewString()
	req.Header.Set("X-Request-Id", id)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	zlog.Debug(ctx).
		Str("method", method).
		Str("url", u.String()).
		Str("request_id", id).
		Msg("issuing request")

	done := startTimer(op)
	res, err := c.hc.Do(req)
	if err != nil {
		done(false)
		return nil, &astore.Error{
			Kind:    astore.ErrTransport,
			Message: "request failed",
			Op:      op,
			Inner:   err,
		}
	}
	if err := httputil.CheckResponse(op, res); err != nil {
		res.Body.Close()
		done(false)
		zlog.Debug(ctx).
			Str("request_id", id).
			Int("status", res.StatusCode).
			Msg("request failed")
		return nil, err
	}
	done(true)
	return res, nil
}

// decodeErr wraps a JSON or field-level decode failure.
func decodeErr(op string, err error) error {
	return &astore.Error{
		Kind:    astore.ErrDecode,
		Message: "unable to decode response",
		Op:      op,
		Inner:   err,
	}
}
