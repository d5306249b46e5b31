// Package client is an HTTP client for the snippetcorpus API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/valueobject"
)

const (
	userAgent       = "snippetcorpus-client/1.0"
	contentTypeJSON = "application/json"

	pathHealth    = "/health"
	pathRandom    = "/challenges/random"
	pathLanguages = "/languages"
	pathImport    = "/challenges/import"
)

// APIError is a non-2xx answer. Code and Message come from the error body when the server
// sent one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API request failed: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNoChallenges reports whether err is the server's no-content answer.
func IsNoChallenges(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == string(dto.ErrorCodeNoChallenges)
}

// Client calls the snippetcorpus API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	return NewClientWithHTTPClient(config, nil)
}

// NewClientWithHTTPClient creates a client that sends its requests through httpClient, or
// through a client with the configured timeout when httpClient is nil.
func NewClientWithHTTPClient(config *Config, httpClient *http.Client) (*Client, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.APIURL, "/"),
		httpClient: httpClient,
	}, nil
}

// doRequest sends body as JSON when non-nil and decodes the answer into result when non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Code = errBody.Error
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health performs a health check against the API server. An unhealthy server answers 503,
// which is returned as an *APIError.
func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var result dto.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, pathHealth, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RandomChallenge fetches one challenge, optionally restricted to language.
func (c *Client) RandomChallenge(ctx context.Context, language string) (*dto.ChallengeResponse, error) {
	path := pathRandom
	if language != "" {
		path += "?" + url.Values{"language": {language}}.Encode()
	}
	var result dto.ChallengeResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Languages lists the languages of the stored challenges.
func (c *Client) Languages(ctx context.Context) ([]valueobject.LanguageInfo, error) {
	var result []valueobject.LanguageInfo
	if err := c.doRequest(ctx, http.MethodGet, pathLanguages, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ImportChallenges stores externally produced challenges.
func (c *Client) ImportChallenges(ctx context.Context, challenges []dto.ChallengeImport) (*dto.UpsertReport, error) {
	var result dto.UpsertReport
	if err := c.doRequest(ctx, http.MethodPost, pathImport, challenges, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
