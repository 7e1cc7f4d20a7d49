package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/cache"
)

const reposJSON = `[
	{"name": "hello-world", "html_url": "https://github.com/octocat/hello-world", "description": "My first repo", "language": "Go", "stargazers_count": 42, "forks_count": 7},
	{"name": "empty", "html_url": "https://github.com/octocat/empty", "description": null, "language": null, "stargazers_count": 0, "forks_count": 0}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, cache.Cache) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := cache.NewMemory()
	return NewClient(c, cache.Keys{Prefix: "tm"}, Options{BaseURL: server.URL, Timeout: 200 * time.Millisecond}), c
}

func TestGetUserRepositories(t *testing.T) {
	var calls atomic.Int32

	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/users/Octocat/repos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reposJSON))
	})

	ctx := context.Background()

	repos, err := client.GetUserRepositories(ctx, "Octocat")
	if err != nil {
		t.Fatalf("GetUserRepositories failed: %v", err)
	}

	if len(repos) != 2 {
		t.Fatalf("len(repos) = %d, want 2", len(repos))
	}

	want := Repository{
		Name: "hello-world", URL: "https://github.com/octocat/hello-world",
		Description: "My first repo", Language: "Go", StarCount: 42, ForkCount: 7,
	}
	if repos[0] != want {
		t.Errorf("repos[0] = %+v, want %+v", repos[0], want)
	}
	if repos[1].Description != "" || repos[1].Language != "" {
		t.Errorf("null fields not mapped to empty strings: %+v", repos[1])
	}

	if ok, _ := c.Exists(ctx, "tm:github:repos:octocat"); !ok {
		t.Error("listing was not cached under the lower-cased username")
	}

	if _, err := client.GetUserRepositories(ctx, "octocat"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second call served from cache)", calls.Load())
	}
}

func TestGetUserRepositories_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	_, err := client.GetUserRepositories(context.Background(), "ghost")

	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if notFound.ResourceID != "ghost" {
		t.Errorf("ResourceID = %q", notFound.ResourceID)
	}
}

func TestGetUserRepositories_UpstreamFailure(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	_, err := client.GetUserRepositories(context.Background(), "octocat")

	var external *apperrors.ExternalServiceError
	if !errors.As(err, &external) {
		t.Fatalf("error = %v, want ExternalServiceError", err)
	}
	if external.StatusCode != http.StatusForbidden || external.Message != "API rate limit exceeded" {
		t.Errorf("external = %+v", external)
	}
	if external.Timeout {
		t.Error("Timeout = true for a status failure")
	}

	if ok, _ := c.Exists(context.Background(), "tm:github:repos:octocat"); ok {
		t.Error("failed listing was cached")
	}
}

func TestGetUserRepositories_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := client.GetUserRepositories(context.Background(), "slow")

	var external *apperrors.ExternalServiceError
	if !errors.As(err, &external) {
		t.Fatalf("error = %v, want ExternalServiceError", err)
	}
	if !external.Timeout {
		t.Errorf("Timeout = false: %+v", external)
	}
}

func TestGetUserRepositories_RequiresUsername(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream called for an empty username")
	})

	if _, err := client.GetUserRepositories(context.Background(), "  "); err == nil {
		t.Error("empty username accepted")
	}
}
