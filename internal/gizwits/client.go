// Package gizwits talks to the Gizwits cloud that backs Heatzy pilot-wire
// heaters.
package gizwits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"heatzy_bridge/internal/models"
)

const (
	DefaultBaseURL       = "https://euapi.gizwits.com"
	DefaultApplicationID = "c70a66ff039d41b4a220e198b0fcc8b3"
	DefaultTimeout       = 12 * time.Second

	headerApplicationID = "X-Gizwits-Application-Id"
	headerUserToken     = "X-Gizwits-User-token"

	loginPath    = "/app/login"
	bindingsPath = "/app/bindings?limit=20&skip=0"

	maxErrorBody = 4 << 10
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token    string
	UID      string
	ExpireAt time.Time
}

// State is the latest reported state of a device.
type State struct {
	RawMode   string
	UpdatedAt time.Time
}

// Client is a thin HTTP client over the Gizwits app API.
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. Empty values fall back to the
// public EU endpoint and the Heatzy application id.
func NewClient(baseURL, applicationID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if applicationID == "" {
		applicationID = DefaultApplicationID
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      applicationID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Lang     string `json:"lang"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UID      string `json:"uid"`
	ExpireAt int64  `json:"expire_at"`
}

// Login exchanges credentials for a user token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out loginResponse
	body := loginRequest{Username: username, Password: password, Lang: "en"}
	if err := c.do(ctx, "login", http.MethodPost, loginPath, "", body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, &APIError{Op: "login", StatusCode: http.StatusOK, Err: errEmptyToken}
	}

	res := LoginResult{Token: out.Token, UID: out.UID}
	if out.ExpireAt > 0 {
		res.ExpireAt = time.Unix(out.ExpireAt, 0)
	}
	return res, nil
}

type bindingsResponse struct {
	Devices []struct {
		DID      string `json:"did"`
		DevAlias string `json:"dev_alias"`
	} `json:"devices"`
}

// ListDevices returns the devices bound to the account.
func (c *Client) ListDevices(ctx context.Context, token string) ([]models.Device, error) {
	var out bindingsResponse
	if err := c.do(ctx, "list devices", http.MethodGet, bindingsPath, token, nil, &out); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(out.Devices))
	for _, d := range out.Devices {
		devices = append(devices, models.Device{ID: d.DID, Name: d.DevAlias})
	}
	return devices, nil
}

type latestResponse struct {
	UpdatedAt int64 `json:"updated_at"`
	Attr      *struct {
		Mode *string `json:"mode"`
	} `json:"attr"`
}

// ReadState fetches the latest reported state of device did.
func (c *Client) ReadState(ctx context.Context, token, did string) (State, error) {
	var out latestResponse
	path := "/app/devdata/" + url.PathEscape(did) + "/latest"
	if err := c.do(ctx, "read state", http.MethodGet, path, token, nil, &out); err != nil {
		return State{}, err
	}
	if out.Attr == nil {
		return State{}, &APIError{Op: "read state", StatusCode: http.StatusOK, Err: errMissingAttr}
	}
	if out.Attr.Mode == nil {
		return State{}, &APIError{Op: "read state", StatusCode: http.StatusOK, Err: errMissingModeKey}
	}

	st := State{RawMode: *out.Attr.Mode}
	if out.UpdatedAt > 0 {
		st.UpdatedAt = time.Unix(out.UpdatedAt, 0)
	}
	return st, nil
}

type controlRequest struct {
	Attrs struct {
		Mode int `json:"mode"`
	} `json:"attrs"`
}

// WriteMode sends a control command setting the device mode to code.
func (c *Client) WriteMode(ctx context.Context, token, did string, code int) error {
	var body controlRequest
	body.Attrs.Mode = code
	path := "/app/control/" + url.PathEscape(did)
	return c.do(ctx, "write mode", http.MethodPost, path, token, body, nil)
}

type vendorError struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("marshaling request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerApplicationID, c.appID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(headerUserToken, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var ve vendorError
		if json.Unmarshal(raw, &ve) == nil {
			apiErr.VendorCode = ve.ErrorCode
			apiErr.Message = ve.ErrorMessage
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
