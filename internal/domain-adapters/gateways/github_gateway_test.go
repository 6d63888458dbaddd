package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/thirdparty-tool/internal/testutil"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestGateway(server *httptest.Server, opts ...GatewayOption) *HTTPGitHubGateway {
	opts = append([]GatewayOption{WithBaseURL(server.URL), withSleep(noSleep)}, opts...)
	return NewHTTPGitHubGateway("test-token", opts...)
}

// Test creating a new GitHub gateway
func TestNewHTTPGitHubGateway(t *testing.T) {
	gateway := NewHTTPGitHubGateway("test-token")

	require.NotNil(t, gateway)
	assert.Equal(t, "test-token", gateway.token)
	assert.Equal(t, defaultBaseURL, gateway.baseURL)
}

func TestGitHubGateway_ListReleases_Paginated(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/yugabyte/yugabyte-db-thirdparty/releases", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?per_page=100&page=2>; rel="next", <%s%s?page=2>; rel="last"`,
				server.URL, r.URL.Path, server.URL, r.URL.Path))
			_, _ = w.Write([]byte(`[{
				"id": 1,
				"tag_name": "v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17",
				"target_commitish": "4c3e5d2aa5b6c7d8e9f00112233445566778899a",
				"created_at": "2024-02-15T04:01:23Z",
				"assets": [{"id": 10, "name": "yugabyte-db-thirdparty-v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17.tar.gz", "size": 42, "browser_download_url": "https://example.com/a.tar.gz"}]
			}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 2, "tag_name": "v2.18-20230417231539-9b2c12d4fc-macos-arm64", "target_commitish": "2.18", "created_at": "2023-04-17T23:15:39Z", "assets": []}]`))
	}))
	defer server.Close()

	releases, err := newTestGateway(server).ListReleases(context.Background(), "yugabyte", "yugabyte-db-thirdparty")
	require.NoError(t, err)
	require.Len(t, releases, 2)

	first := releases[0]
	assert.Equal(t, "v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17", first.TagName)
	assert.Equal(t, "4c3e5d2aa5b6c7d8e9f00112233445566778899a", first.TargetCommitish)
	assert.Equal(t, time.Date(2024, 2, 15, 4, 1, 23, 0, time.UTC), first.CreatedAt.UTC())
	require.Len(t, first.Assets, 1)
	assert.Equal(t, "yugabyte-db-thirdparty-v20240215040123-4c3e5d2aa5-almalinux8-x86_64-clang17.tar.gz", first.Assets[0].Name)
	assert.Equal(t, "https://example.com/a.tar.gz", first.Assets[0].BrowserDownloadURL)

	assert.Equal(t, "2.18", releases[1].TargetCommitish)
	assert.Empty(t, releases[1].Assets)
}

func TestGitHubGateway_ListReleases_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server).ListReleases(context.Background(), "test", "repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Not Found")
}

func TestGitHubGateway_AnonymousRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway("", WithBaseURL(server.URL))
	releases, err := gateway.ListReleases(context.Background(), "test", "repo")
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestGitHubGateway_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"sha": "4c3e5d2aa5b6c7d8e9f00112233445566778899a"}`))
	}))
	defer server.Close()

	sha, err := newTestGateway(server).ResolveCommitSHA(context.Background(), "test", "repo", "2.18")
	require.NoError(t, err)
	assert.Equal(t, "4c3e5d2aa5b6c7d8e9f00112233445566778899a", sha)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGitHubGateway_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestGateway(server).ResolveCommitSHA(context.Background(), "test", "repo", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestGitHubGateway_ResolveCommitSHA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/yugabyte/yugabyte-db-thirdparty/commits/v20240215040123-tag", r.URL.Path)
		_, _ = w.Write([]byte(`{"sha": "4c3e5d2aa5b6c7d8e9f00112233445566778899a", "commit": {}}`))
	}))
	defer server.Close()

	sha, err := newTestGateway(server).ResolveCommitSHA(context.Background(),
		"yugabyte", "yugabyte-db-thirdparty", "v20240215040123-tag")
	require.NoError(t, err)
	assert.Equal(t, "4c3e5d2aa5b6c7d8e9f00112233445566778899a", sha)
}

func TestGitHubGateway_ResolveCommitSHA_EmptySHA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server).ResolveCommitSHA(context.Background(), "test", "repo", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty SHA")
}

func TestGitHubGateway_RateLimit(t *testing.T) {
	t.Run("exhausted", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1700000000")
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestGateway(server).ListReleases(context.Background(), "test", "repo")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRateLimited))
		assert.Contains(t, err.Error(), "resets at")
		assert.Equal(t, int32(1), calls.Load(), "rate limit errors are not retried")
	})

	t.Run("low", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "5")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		logger := &testutil.RecordingLogger{}
		_, err := newTestGateway(server, WithLogger(logger)).ListReleases(context.Background(), "test", "repo")
		require.NoError(t, err)
		assert.Equal(t, 1, logger.Count("WARN"))
	})
}

func TestGitHubGateway_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gateway := NewHTTPGitHubGateway("test-token", WithBaseURL(server.URL))
	_, err := gateway.ListReleases(ctx, "test", "repo")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Second, calculateBackoff(0))
	assert.Equal(t, 4*time.Second, calculateBackoff(2))
	assert.Equal(t, maxBackoff, calculateBackoff(10))
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{
			name:   "next and last",
			header: `<https://api.github.com/repositories/1/releases?page=2>; rel="next", <https://api.github.com/repositories/1/releases?page=5>; rel="last"`,
			want:   "https://api.github.com/repositories/1/releases?page=2",
		},
		{
			name:   "last page",
			header: `<https://api.github.com/repositories/1/releases?page=1>; rel="first", <https://api.github.com/repositories/1/releases?page=4>; rel="prev"`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageURL(tt.header))
		})
	}
}
