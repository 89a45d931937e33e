package catalog

import (
	"EasyDockerDeploy/internal/fetch"
	"EasyDockerDeploy/internal/testutils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name      string
		desc      string
		repo      *string
		wantReady bool
		wantURL   string
	}{
		{"keyword only", "Runs great in DOCKER", ptr("https://example.com"), true, ""},
		{"whale", "Ships with a 🐳 image", nil, true, ""},
		{"containerized", "A containerized wiki", nil, true, ""},
		{"docker hub", "Image at hub.docker.com/r/acme/app", nil, true, "https://hub.docker.com/r/acme/app"},
		{"docker hub in parens", "Pull it (hub.docker.com/r/user/app2)", nil, true, "https://hub.docker.com/r/user/app2"},
		{"ghcr", "Published to ghcr.io/acme/tool as well", nil, true, "ghcr.io/acme/tool"},
		{"docker hub before comma", "hub.docker.com/r/acme/app, updated nightly", nil, true, "https://hub.docker.com/r/acme/app"},
		{"docker hub before semicolon", "See hub.docker.com/r/acme/app; it is small", nil, true, "https://hub.docker.com/r/acme/app"},
		{"ghcr at sentence end", "Images live at ghcr.io/acme/tool.", nil, true, "ghcr.io/acme/tool"},
		{"hub beats ghcr", "hub.docker.com/r/a/b and ghcr.io/c/d", nil, true, "https://hub.docker.com/r/a/b"},
		{"dockerfile repo", "Plain", ptr("https://github.com/user/app/Dockerfile"), true, "https://github.com/user/app/Dockerfile"},
		{"nothing", "A calendar server", ptr("https://example.com/cal"), false, ""},
		{"nil repo", "A calendar server", nil, false, ""},
	}

	h := NewHeuristic(nil)
	var cases []testutils.TestCase
	for _, tt := range tests {
		ready, url := h.Classify(context.Background(), tt.desc, tt.repo)
		got := fmt.Sprintf("%v %s", ready, deref(url))
		want := fmt.Sprintf("%v %s", tt.wantReady, tt.wantURL)
		cases = append(cases, testutils.TestCase{
			Name:     tt.name,
			Input:    tt.desc,
			Expected: want,
			Actual:   got,
			Pass:     got == want && (url == nil) == (tt.wantURL == ""),
		})
	}
	testutils.PrintTestTable(t, cases)
}

func TestHeuristicProbe(t *testing.T) {
	var calls atomic.Int32
	probe := ProbeFunc(func(ctx context.Context, url string) (bool, error) {
		calls.Add(1)
		if _, ok := ctx.Deadline(); !ok {
			t.Error("probe context should carry a deadline")
		}
		return strings.Contains(url, "gitea"), nil
	})
	h := NewHeuristic(probe)
	ctx := context.Background()

	ready, url := h.Classify(ctx, "Git service", ptr("https://github.com/go-gitea/gitea.git"))
	if !ready || deref(url) != "ghcr.io/go-gitea/gitea" {
		t.Errorf("Classify = (%v, %q), want ghcr reference", ready, deref(url))
	}

	// Memoized per repository
	_, _ = h.Classify(ctx, "Git service again", ptr("https://github.com/go-gitea/gitea"))
	if n := calls.Load(); n != 1 {
		t.Errorf("probe called %d times, want 1", n)
	}

	// Keyword still wins readiness when the probe finds nothing
	ready, url = h.Classify(ctx, "docker friendly", ptr("https://github.com/acme/plain"))
	if !ready || url != nil {
		t.Errorf("Classify = (%v, %v), want ready with nil URL", ready, url)
	}

	// Non-GitHub hosts are never probed
	before := calls.Load()
	_, _ = h.Classify(ctx, "x", ptr("https://gitlab.com/acme/app"))
	if calls.Load() != before {
		t.Error("non-GitHub URL was probed")
	}
}

func TestHeuristicProbeErrorsAreSwallowed(t *testing.T) {
	probe := ProbeFunc(func(ctx context.Context, url string) (bool, error) {
		return true, errors.New("network down")
	})
	ready, url := NewHeuristic(probe).Classify(context.Background(), "plain", ptr("https://github.com/acme/app"))
	if ready || url != nil {
		t.Errorf("Classify = (%v, %v), want not ready", ready, url)
	}
}

func TestHeuristicProbeTimeout(t *testing.T) {
	probe := ProbeFunc(func(ctx context.Context, url string) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	})
	h := NewHeuristic(probe)
	h.timeout = 20 * time.Millisecond

	start := time.Now()
	ready, _ := h.Classify(context.Background(), "plain", ptr("https://github.com/acme/slow"))
	if ready {
		t.Error("timed out probe must count as not found")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("probe timeout was not applied")
	}
}

func TestGithubRepo(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/go-gitea/gitea", "go-gitea", "gitea", true},
		{"https://github.com/go-gitea/gitea.git", "go-gitea", "gitea", true},
		{"https://www.github.com/a/b/tree/main/docker", "a", "b", true},
		{"https://GitHub.com/A/B/", "A", "B", true},
		{"https://github.com/only-owner", "", "", false},
		{"https://gitlab.com/a/b", "", "", false},
		{"https://github.com/a/.git", "", "", false},
		{"::not a url", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := githubRepo(tt.url)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("githubRepo(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.url, owner, repo, ok, tt.owner, tt.repo, tt.ok)
		}
	}
}

func TestGitHubProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/with-docker/contents":
			_, _ = w.Write([]byte(`[{"name":"README.md","type":"file"},{"name":"Dockerfile","type":"file"}]`))
		case "/repos/acme/with-dir/contents":
			_, _ = w.Write([]byte(`[{"name":"docker","type":"dir"}]`))
		case "/repos/acme/plain/contents":
			_, _ = w.Write([]byte(`[{"name":"main.go","type":"file"},{"name":"Dockerfile.dev","type":"file"}]`))
		case "/repos/acme/garbage/contents":
			_, _ = w.Write([]byte(`{"message":"not a list"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := fetch.NewFetcher()
	defer f.Close()
	probe := NewGitHubProbe(fetch.NewBreakerFetcher(f), server.URL)
	ctx := context.Background()

	tests := []struct {
		repo    string
		want    bool
		wantErr bool
	}{
		{"https://github.com/acme/with-docker", true, false},
		{"https://github.com/acme/with-dir", true, false},
		{"https://github.com/acme/plain", false, false},
		{"https://github.com/acme/missing", false, false},
		{"https://github.com/acme/garbage", false, true},
		{"https://example.com/acme/x", false, true},
	}
	for _, tt := range tests {
		got, err := probe.HasDockerFiles(ctx, tt.repo)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("HasDockerFiles(%q) = (%v, %v), want (%v, err=%v)", tt.repo, got, err, tt.want, tt.wantErr)
		}
	}
}
