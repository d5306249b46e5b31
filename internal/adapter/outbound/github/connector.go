// Package github implements the remote repository connector on the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snippetcorpus/internal/application/common/retry"
	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/domain/valueobject"
	"snippetcorpus/internal/port/outbound"

	gh "github.com/google/go-github/v61/github"
)

// Personal access token prefixes accepted as credentials.
var tokenPrefixes = []string{"ghp_", "github_pat_"} //nolint:gochecknoglobals // fixed table

const defaultHTTPTimeout = 30 * time.Second

// Config configures the connector.
type Config struct {
	// Token is an optional personal access token. Without one the API's lower
	// unauthenticated rate limit applies.
	Token string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	Retry   *retry.RetryConfig
	// HTTPClient is used when set; a client with a 30s timeout otherwise.
	HTTPClient *http.Client
}

// Connector implements outbound.RemoteRepositoryConnector.
type Connector struct {
	client   *gh.Client
	executor *retry.RetryExecutor
}

// NewConnector builds a connector. A token that does not look like a personal access token is
// ignored with a warning and the connector runs unauthenticated.
func NewConnector(cfg Config) (*Connector, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	client := gh.NewClient(httpClient)

	if token := strings.TrimSpace(cfg.Token); token != "" {
		if IsValidToken(token) {
			client = client.WithAuthToken(token)
		} else {
			slogger.WarnNoCtx("GitHub token has an unknown format; continuing unauthenticated", nil)
		}
	}

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = base
	}

	return &Connector{
		client:   client,
		executor: retry.NewRetryExecutorWithChecker(cfg.Retry, retryChecker{}),
	}, nil
}

// IsValidToken reports whether token has a personal access token prefix.
func IsValidToken(token string) bool {
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(token, prefix) && len(token) > len(prefix) {
			return true
		}
	}
	return false
}

// FetchRepository fetches repository metadata.
func (c *Connector) FetchRepository(ctx context.Context, fullName string) (*outbound.RemoteRepository, error) {
	name, err := valueobject.NewProjectName(fullName)
	if err != nil {
		return nil, err
	}

	var repo *gh.Repository
	err = c.do(ctx, "get repository", name, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var callErr error
		repo, resp, callErr = c.client.Repositories.Get(ctx, name.Owner(), name.Repo())
		return resp, callErr
	})
	if err != nil {
		return nil, err
	}

	return &outbound.RemoteRepository{
		FullName:      repo.GetFullName(),
		HTMLURL:       repo.GetHTMLURL(),
		Language:      repo.GetLanguage(),
		Stars:         repo.GetStargazersCount(),
		LicenseName:   repo.GetLicense().GetName(),
		OwnerAvatar:   repo.GetOwner().GetAvatarURL(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

// FetchTree lists the repository tree at sha recursively.
func (c *Connector) FetchTree(ctx context.Context, fullName, sha string) (*outbound.RemoteTree, error) {
	name, err := valueobject.NewProjectName(fullName)
	if err != nil {
		return nil, err
	}

	var tree *gh.Tree
	err = c.do(ctx, "get tree", name, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var callErr error
		tree, resp, callErr = c.client.Git.GetTree(ctx, name.Owner(), name.Repo(), sha, true)
		return resp, callErr
	})
	if err != nil {
		return nil, err
	}

	result := &outbound.RemoteTree{
		Sha:       tree.GetSHA(),
		Truncated: tree.GetTruncated(),
		Entries:   make([]outbound.RemoteTreeEntry, 0, len(tree.Entries)),
	}
	for _, entry := range tree.Entries {
		result.Entries = append(result.Entries, outbound.RemoteTreeEntry{
			Path: entry.GetPath(),
			Sha:  entry.GetSHA(),
			Type: entry.GetType(),
			Size: entry.GetSize(),
		})
	}
	if result.Truncated {
		slogger.Warn(ctx, "Repository tree listing was truncated", slogger.Fields2(
			"project", fullName,
			"entries", len(result.Entries),
		))
	}
	return result, nil
}

// FetchBlob fetches the raw content of a blob.
func (c *Connector) FetchBlob(ctx context.Context, fullName, sha string) ([]byte, error) {
	name, err := valueobject.NewProjectName(fullName)
	if err != nil {
		return nil, err
	}

	var content []byte
	err = c.do(ctx, "get blob", name, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var callErr error
		content, resp, callErr = c.client.Git.GetBlobRaw(ctx, name.Owner(), name.Repo(), sha)
		return resp, callErr
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// do runs call with retries, logging the rate limit reported by every response.
func (c *Connector) do(
	ctx context.Context,
	operation string,
	name valueobject.ProjectName,
	call func(context.Context) (*gh.Response, error),
) error {
	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		resp, err := call(ctx)
		logRateLimit(ctx, operation, name, resp)
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("github %s %s: %w", operation, name, err)
	}
	return nil
}

func logRateLimit(ctx context.Context, operation string, name valueobject.ProjectName, resp *gh.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	slogger.Debug(ctx, "GitHub rate limit", slogger.Fields{
		"operation": operation,
		"project":   name.String(),
		"limit":     resp.Rate.Limit,
		"remaining": resp.Rate.Remaining,
		"reset":     resp.Rate.Reset.Time.UTC().Format(time.RFC3339),
	})
}

// RateLimitedError is returned when the API budget is exhausted. It tells the retry executor
// how long to wait.
type RateLimitedError struct {
	Reset time.Time
	Err   error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded until %s: %v", e.Reset.UTC().Format(time.RFC3339), e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// RetryAfter implements retry.DelayHint.
func (e *RateLimitedError) RetryAfter() time.Duration {
	return time.Until(e.Reset)
}

// ErrNotFound is returned when the repository, tree or blob does not exist.
var ErrNotFound = errors.New("not found on github")

// classify turns go-github errors into errors the retry executor understands.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitedError{Reset: rateErr.Rate.Reset.Time, Err: err}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitedError{Reset: time.Now().Add(abuseErr.GetRetryAfter()), Err: err}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch status := respErr.Response.StatusCode; {
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case status >= http.StatusInternalServerError:
			return &serverError{status: status, err: err}
		}
	}
	return err
}

type serverError struct {
	status int
	err    error
}

func (e *serverError) Error() string { return fmt.Sprintf("server error %d: %v", e.status, e.err) }
func (e *serverError) Unwrap() error { return e.err }

// retryChecker retries rate limits, server errors and transient network failures.
type retryChecker struct{}

func (retryChecker) IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return true
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		return false
	}
	return (&retry.DefaultRetryableChecker{}).IsRetryable(err)
}
