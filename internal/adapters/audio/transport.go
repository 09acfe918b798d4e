package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client habla con el servidor de audio (el que efectivamente está en el canal de voz).
type Client struct {
	password string
	http     *http.Client
	baseURL  string
	maxWait  time.Duration
}

func New(baseURL, password string, opts ...Option) *Client {
	c := &Client{
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxWait:  10 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// doJSON: arma el request, agrega Authorization y reintenta una vez ante 429 con Retry-After.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, method, path, in, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, retry bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("audio encode: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("audio request: %w", err)
	}
	if c.password != "" {
		req.Header.Set("Authorization", "Bearer "+c.password)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("audio http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if wait := retryAfter(res.Header.Get("Retry-After"), c.maxWait); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			return c.do(ctx, method, path, in, out, false)
		}
	}

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// retryAfter sólo entiende segundos; 0 = no reintentar.
func retryAfter(v string, max time.Duration) time.Duration {
	sec, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || sec <= 0 {
		return 0
	}
	return min(time.Duration(sec)*time.Second, max)
}
