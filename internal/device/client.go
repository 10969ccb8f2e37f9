// Package device talks to the router's cgi-bin SMS HTTP API.
//
// The API is four GET endpoints under http://<host>:<port>/cgi-bin/, each
// authenticated with username/password query parameters:
//
//	sms_list    view the stored message list (plain text dump)
//	sms_send    send to a single number or a named group
//	sms_delete  delete a stored message by index
//	sms_total   count of stored messages
package device

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielfett/miqro-rutos-sms/internal/config"
	"go.uber.org/zap"
)

// Client is an HTTP client for one router. It is safe for concurrent
// independent requests.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *zap.Logger
}

// New creates a client for the device described by cfg. All requests carry
// the configured bounded timeout; the device API itself never asks for one,
// but an unbounded hang would stall the poll loop forever.
func New(cfg config.Device, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  fmt.Sprintf("http://%s:%d/cgi-bin/", cfg.Host, cfg.Port),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout.Std()},
		logger:   logger,
	}
}

// List fetches the raw sms_list text dump.
func (c *Client) List(ctx context.Context) (string, error) {
	return c.get(ctx, "sms_list", url.Values{})
}

// Send sends text to a single number and returns the device's raw
// confirmation text.
func (c *Client) Send(ctx context.Context, number, text string) (string, error) {
	return c.get(ctx, "sms_send", url.Values{"number": {number}, "text": {text}})
}

// SendGroup sends text to a named recipient group configured on the device.
func (c *Client) SendGroup(ctx context.Context, group, text string) (string, error) {
	return c.get(ctx, "sms_send", url.Values{"group": {group}, "text": {text}})
}

// Delete removes the message at the given device index. Deleting an index
// that no longer exists is a device-side no-op.
func (c *Client) Delete(ctx context.Context, index string) (string, error) {
	return c.get(ctx, "sms_delete", url.Values{"number": {index}})
}

// Total returns the number of messages stored on the device.
func (c *Client) Total(ctx context.Context) (int, error) {
	body, err := c.get(ctx, "sms_total", url.Values{})
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("unexpected sms_total response %q", strings.TrimSpace(body))
	}
	return n, nil
}

// get performs one API call and returns the response body verbatim. The
// device reports its own failures (bad auth, bad number) as plain text with
// varying status codes; that text is passed through to the caller unparsed.
// Only transport-level failures become errors.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	params.Set("username", c.username)
	params.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", endpoint, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("device returned non-OK status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
	}
	return string(body), nil
}
