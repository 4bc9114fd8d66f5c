// Package httpmgmt implements the management services against a remote
// management endpoint speaking JSON over HTTP. It is the production
// counterpart of the sqlite stores: same service contracts, same error
// semantics, different backing.
//
// HTTP status codes map onto the domain sentinels: 404 is
// [domain.ErrNotFound], 409 is [domain.ErrAlreadyExists], 412 is
// [domain.ErrBlocked], any other non-2xx is [domain.ErrRejected].
// Transport failures map to [domain.ErrConnection].
package httpmgmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/patchwave/patchwave/internal/domain"
)

// Client holds the connection to one management endpoint. Construct it
// with [NewClient] and obtain the per-kind services from [Client.Groups],
// [Client.Packages], and [Client.Rules].
type Client struct {
	httpclient *http.Client
	api        string
	username   string
	password   string
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default [http.Client], for custom TLS or
// timeout settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpclient = hc }
}

// WithBasicAuth attaches basic-auth credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// NewClient returns a client rooted at apiRoot, e.g.
// "https://mgmt.example.com/api/v1".
func NewClient(apiRoot string, opts ...Option) *Client {
	c := &Client{
		httpclient: new(http.Client),
		api:        strings.TrimSuffix(apiRoot, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Groups returns the [domain.GroupService] backed by this client.
func (c *Client) Groups() *GroupClient { return &GroupClient{c: c} }

// Packages returns the [domain.PackageService] backed by this client.
func (c *Client) Packages() *PackageClient { return &PackageClient{c: c} }

// Rules returns the [domain.RuleService] backed by this client.
func (c *Client) Rules() *RuleClient { return &RuleClient{c: c} }

func (c *Client) apipath(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, c.api)
	for _, p := range path {
		parts = append(parts, url.PathEscape(strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")))
	}
	return strings.Join(parts, "/")
}

// do executes one request and decodes the JSON response into out when out
// is non-nil. Non-2xx statuses are mapped to domain sentinels before any
// decoding happens.
func (c *Client) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrConnection, method, url, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrRejected, method, url, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusConflict:
		sentinel = domain.ErrAlreadyExists
	case http.StatusPreconditionFailed:
		sentinel = domain.ErrBlocked
	default:
		sentinel = domain.ErrRejected
	}

	msg := serverMessage(resp.Body)
	if msg == "" {
		return fmt.Errorf("%w: endpoint returned status %d", sentinel, resp.StatusCode)
	}
	return fmt.Errorf("%w: endpoint returned status %d: %s", sentinel, resp.StatusCode, msg)
}

// serverMessage extracts the endpoint's error message. The endpoint wraps
// errors as {"message": "..."}; anything else is reported raw, truncated.
func serverMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var wrapped struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Message != "" {
		return wrapped.Message
	}
	return strings.TrimSpace(string(raw))
}
