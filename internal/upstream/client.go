package upstream

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
)

const defaultTimeout = 30 * time.Second

// Client wraps the LMS backend API the console depends on. Every call
// carries the caller's bearer token; the client itself holds no ambient
// credential state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Ping checks if the LMS backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return netErr("ping lms", err)
	}
	defer closeBody(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("lms returned status %d", resp.StatusCode)
	}
	return nil
}

// Login forwards credentials and returns the upstream session grant.
func (c *Client) Login(ctx context.Context, creds LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, "", http.MethodPost, "/login", nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections fetches one page of collection records. The query is
// built by the collections package and passed through untouched.
func (c *Client) ListCollections(ctx context.Context, token string, query url.Values) (*ListResponse, error) {
	var out ListResponse
	path := "/collections"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	if err := c.do(ctx, token, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve submits a bank-reconciled approval for one record.
func (c *Client) Approve(ctx context.Context, token, recordID string, req ApproveRequest) (*ApproveResponse, error) {
	var out ApproveResponse
	path := fmt.Sprintf("/collections/%s/approve", url.PathEscape(recordID))
	if err := c.do(ctx, token, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchImage retrieves one evidence image by record and slot. The
// returned string is the base64 payload as the backend sent it.
func (c *Client) FetchImage(ctx context.Context, token, recordID, partner, slot string) (string, error) {
	query := url.Values{}
	query.Set("partner", partner)
	query.Set("type", slot)
	path := fmt.Sprintf("/collections/%s/images", url.PathEscape(recordID))
	var out struct {
		Image string `json:"image"`
	}
	if err := c.do(ctx, token, http.MethodGet, path, query, nil, &out); err != nil {
		return "", err
	}
	return out.Image, nil
}

// ListUsers returns the agent directory used for filter options. The
// backend has shipped both a bare array and a {data: []} envelope, so
// both shapes are accepted.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, token, http.MethodGet, "/users", nil, nil, &raw); err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err == nil {
		return users, nil
	}
	var envelope struct {
		Data []User `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	return envelope.Data, nil
}

// FetchReceipt streams the receipt document for one record. The body is
// opaque to the console and handed to the caller to relay; the caller
// owns closing it.
func (c *Client) FetchReceipt(ctx context.Context, token, recordID, partner string) (io.ReadCloser, string, error) {
	query := url.Values{}
	query.Set("partner", partner)
	path := fmt.Sprintf("%s/collections/%s/receipt?%s", c.baseURL, url.PathEscape(recordID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	setAuth(req, token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", netErr("fetch receipt", err)
	}
	if resp.StatusCode >= 400 {
		defer closeBody(resp.Body)
		return nil, "", decodeError(resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if query != nil {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return netErr(method+" "+path, err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func closeBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
