package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultLookupTimeout = 5 * time.Second

// HTTPLookup resolves letters through a remote lookup service
// (GET {BaseURL}/api/{letter}).
type HTTPLookup struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPLookup creates a lookup client with the given request timeout.
func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &HTTPLookup{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPLookup) Lookup(ctx context.Context, letter rune) (int64, error) {
	u := h.BaseURL + "/api/" + url.PathEscape(string(letter))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("lookup %c: %w", letter, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: %c", ErrLetterNotFound, letter)
	case resp.StatusCode != http.StatusOK:
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return 0, fmt.Errorf("lookup %c: status %d: %s", letter, resp.StatusCode, body.Error)
	}

	var rec LetterRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return 0, fmt.Errorf("decode lookup response: %w", err)
	}
	return rec.Value, nil
}
