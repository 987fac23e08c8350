package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	defaultTimeout  = 15 * time.Second
)

// Client carries the HTTP plumbing shared by the adapters.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func NewClient(logger *zap.Logger, userAgent string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
		logger:    logger,
	}
}

// GetJSON makes a GET request and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, endpoint string, q url.Values, headers http.Header, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req, headers)
	req.Header.Set("Accept", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// PostJSON sends payload as a JSON body and expects a 2xx status.
func (c *Client) PostJSON(ctx context.Context, endpoint string, headers http.Header, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	c.setHeaders(req, headers)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.Redacted()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, headers http.Header) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept-Encoding", contentEncoding)
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// Bearer returns an Authorization header for the token.
func Bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return h
}

// Decode maps loosely typed JSON items into typed structs using their json tags.
// Numbers and strings are converted into each other so ids survive schema drift.
func Decode(input any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
