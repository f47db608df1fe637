package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/logging"
)

const (
	// DefaultBaseURL is the vendor cloud endpoint used by the mobile app
	DefaultBaseURL = "https://be-standard.sabianawm.cloud"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 15 * time.Second

	// UserAgent is the browser fingerprint of the vendor's mobile app
	UserAgent = "Mozilla/5.0 (Linux; Android 11; IN2013) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.82 Mobile Safari/537.36"

	// CommandStart is the register offset every command is written to.
	CommandStart = 2304

	loginPath   = "/users/login"
	devicesPath = "/devices/getDeviceForUserV2"
	commandPath = "/devices/cmd"

	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 1 << 20
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Sabiana cloud API.
//
// It holds no session state: the token is passed to every call, and the
// client never retries, refreshes tokens or backs off. A Client is safe for
// concurrent use as long as its HTTPClient is.
type Client struct {
	// BaseURL is the API root (e.g., "https://be-standard.sabianawm.cloud")
	BaseURL string

	// HTTPClient is the injected transport
	HTTPClient Doer

	// Metrics records request outcomes (nil disables metrics)
	Metrics *Metrics
}

// NewClient creates a client for the production cloud endpoint
func NewClient() *Client {
	return NewClientWithURL(DefaultBaseURL)
}

// NewClientWithURL creates a client with a custom API root
// baseURL: Full base URL (e.g., "http://127.0.0.1:8080")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetHTTPClient replaces the transport. The same Doer may be shared by
// several clients.
func (c *Client) SetHTTPClient(doer Doer) {
	c.HTTPClient = doer
}

// SetTimeout sets the HTTP request timeout when the transport is an
// *http.Client. Other transports manage their own timeouts.
func (c *Client) SetTimeout(timeout time.Duration) {
	if hc, ok := c.HTTPClient.(*http.Client); ok {
		hc.Timeout = timeout
	}
}

// Authenticate exchanges credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	logging.Debug("Authenticating with Sabiana API", zap.String("email", email))

	env, err := c.do(ctx, EndpointLogin, http.MethodPost, loginPath, "", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	token, ok := extractToken(env)
	if !ok {
		return "", NewParseError("login response missing body.user.token", env.HTTPStatus, nil)
	}

	logging.Debug("Successfully authenticated with Sabiana API", zap.String("token", logging.RedactToken(token)))
	return token, nil
}

// ListDevices returns the units registered to the account. A response
// without a usable device list yields an empty slice, not an error.
func (c *Client) ListDevices(ctx context.Context, token string) ([]Device, error) {
	if token == "" {
		return nil, NewAuthError("missing session token", 0, 0)
	}

	logging.Debug("Fetching devices from Sabiana API")

	env, err := c.do(ctx, EndpointDevices, http.MethodGet, devicesPath, token, nil)
	if err != nil {
		return nil, err
	}

	devices := extractDevices(env)
	logging.Debug("Retrieved devices from Sabiana API", zap.Int("count", len(devices)))
	return devices, nil
}

// SendCommand writes an encoded command to a device and returns the
// acknowledgement flag from the response (false when absent).
func (c *Client) SendCommand(ctx context.Context, token, deviceID, data string) (bool, error) {
	if token == "" {
		return false, NewAuthError("missing session token", 0, 0)
	}

	logging.Debug("Sending command to device", zap.String("device_id", deviceID), zap.String("data", data))

	payload := commandRequest{
		DeviceID: deviceID,
		Start:    CommandStart,
		Data:     data,
		Restart:  false,
	}
	env, err := c.do(ctx, EndpointCommand, http.MethodPost, commandPath, token, payload)
	if err != nil {
		return false, err
	}

	result := extractResult(env)
	logging.Debug("Command result for device", zap.String("device_id", deviceID), zap.Bool("result", result))
	return result, nil
}

// do performs a single request and runs the response through ValidateResponse.
func (c *Client) do(ctx context.Context, endpoint, method, path, token string, payload any) (env *Envelope, err error) {
	started := time.Now()
	defer func() { c.Metrics.observe(endpoint, started, err) }()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewParseError("failed to encode request body", 0, err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, NewTransportError("failed to create request", err)
	}
	setHeaders(req.Header, token)

	logging.LogAPIRequest(method, url, token != "")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewTransportError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransportError("failed to read response body", err)
	}

	logging.LogAPIResponse(url, resp.StatusCode, len(body), time.Since(started).Milliseconds())

	return ValidateResponse(resp.StatusCode, body)
}

// fingerprint is the header set of the vendor's mobile app. The backend
// rejects requests that do not look like they came from it.
var fingerprint = map[string]string{
	"content-type":    "application/json",
	"accept":          "application/json, text/plain, */*",
	"sec-fetch-site":  "cross-site",
	"accept-language": "it-IT,it;q=0.9",
	"sec-fetch-mode":  "cors",
	"origin":          "capacitor://sabianawm.cloud",
	"user-agent":      UserAgent,
	"sec-fetch-dest":  "empty",
}

// Headers returns the request headers for a call. token is added as the
// "auth" header when non-empty. The Host header comes from the request URL.
func Headers(token string) http.Header {
	h := http.Header{}
	setHeaders(h, token)
	return h
}

func setHeaders(h http.Header, token string) {
	// Set canonicalizes keys, so the transport sees our User-Agent and
	// does not add its own
	for k, v := range fingerprint {
		h.Set(k, v)
	}
	if token != "" {
		h.Set("auth", token)
	}
}
