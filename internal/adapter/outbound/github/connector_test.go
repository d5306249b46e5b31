package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"snippetcorpus/internal/application/common/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *retry.RetryConfig {
	return &retry.RetryConfig{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func newTestConnector(t *testing.T, handler http.Handler, token string) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	connector, err := NewConnector(Config{Token: token, BaseURL: server.URL, Retry: fastRetry()})
	require.NoError(t, err)
	return connector
}

func withRateHeaders(w http.ResponseWriter, remaining int) {
	w.Header().Set("X-RateLimit-Limit", "60")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Second).Unix(), 10))
}

func TestConnector_FetchRepository(t *testing.T) {
	var auth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/nzlz/speedtyper", func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		withRateHeaders(w, 59)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"full_name": "nzlz/speedtyper",
			"html_url": "https://github.com/nzlz/speedtyper",
			"language": "TypeScript",
			"stargazers_count": 42,
			"license": {"name": "MIT License"},
			"owner": {"avatar_url": "https://avatars.example/nzlz.png"},
			"default_branch": "main"
		}`)
	})

	connector := newTestConnector(t, mux, "ghp_secret")

	repo, err := connector.FetchRepository(context.Background(), "nzlz/speedtyper")
	require.NoError(t, err)
	assert.Equal(t, "nzlz/speedtyper", repo.FullName)
	assert.Equal(t, "https://github.com/nzlz/speedtyper", repo.HTMLURL)
	assert.Equal(t, "TypeScript", repo.Language)
	assert.Equal(t, 42, repo.Stars)
	assert.Equal(t, "MIT License", repo.LicenseName)
	assert.Equal(t, "https://avatars.example/nzlz.png", repo.OwnerAvatar)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.Equal(t, "Bearer ghp_secret", auth.Load())
}

func TestConnector_InvalidTokenRunsUnauthenticated(t *testing.T) {
	var auth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b", func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"full_name": "a/b"}`)
	})

	connector := newTestConnector(t, mux, "not-a-token")

	_, err := connector.FetchRepository(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "", auth.Load())
}

func TestConnector_FetchTreeAndBlob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{
			"sha": "tree123",
			"truncated": false,
			"tree": [
				{"path": "src", "type": "tree", "sha": "d1"},
				{"path": "src/lib.rs", "type": "blob", "sha": "b1", "size": 120}
			]
		}`)
	})
	mux.HandleFunc("GET /repos/a/b/git/blobs/b1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "fn main() {}\n")
	})

	connector := newTestConnector(t, mux, "")

	tree, err := connector.FetchTree(context.Background(), "a/b", "main")
	require.NoError(t, err)
	assert.Equal(t, "tree123", tree.Sha)
	require.Len(t, tree.Entries, 2)
	assert.False(t, tree.Entries[0].IsBlob())
	assert.True(t, tree.Entries[1].IsBlob())
	assert.Equal(t, "src/lib.rs", tree.Entries[1].Path)
	assert.Equal(t, 120, tree.Entries[1].Size)

	blob, err := connector.FetchBlob(context.Background(), "a/b", "b1")
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(blob))
}

func TestConnector_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/missing", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	connector := newTestConnector(t, mux, "")

	_, err := connector.FetchRepository(context.Background(), "a/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestConnector_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message": "bad gateway"}`)
			return
		}
		fmt.Fprint(w, `{"full_name": "a/b"}`)
	})

	connector := newTestConnector(t, mux, "")

	repo, err := connector.FetchRepository(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", repo.FullName)
	assert.Equal(t, int32(2), calls.Load())
}

func TestConnector_RateLimitIsRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			withRateHeaders(w, 0)
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
			return
		}
		withRateHeaders(w, 10)
		fmt.Fprint(w, `{"full_name": "a/b"}`)
	})

	connector := newTestConnector(t, mux, "")

	_, err := connector.FetchRepository(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestConnector_RejectsInvalidProjectName(t *testing.T) {
	connector := newTestConnector(t, http.NotFoundHandler(), "")

	_, err := connector.FetchRepository(context.Background(), "no-slash")
	assert.Error(t, err)
	_, err = connector.FetchTree(context.Background(), "/repo", "main")
	assert.Error(t, err)
	_, err = connector.FetchBlob(context.Background(), "owner/", "sha")
	assert.Error(t, err)
}

func TestRateLimitedError_RetryAfter(t *testing.T) {
	err := &RateLimitedError{Reset: time.Now().Add(time.Minute), Err: assert.AnError}
	assert.InDelta(t, time.Minute.Seconds(), err.RetryAfter().Seconds(), 1)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, retryChecker{}.IsRetryable(err))
}

func TestIsValidToken(t *testing.T) {
	assert.True(t, IsValidToken("ghp_abc"))
	assert.True(t, IsValidToken("github_pat_abc"))
	assert.False(t, IsValidToken("ghp_"))
	assert.False(t, IsValidToken("gho_abc"))
	assert.False(t, IsValidToken(""))
}
