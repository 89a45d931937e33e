package catalog

import (
	"EasyDockerDeploy/internal/logger"
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ProbeTimeout bounds a single repository probe. Expiry counts as "not found".
const ProbeTimeout = 10 * time.Second

// dockerKeywords mark a description as Docker-ready on their own.
var dockerKeywords = []string{
	"docker",
	"container",
	"docker-compose",
	"dockerfile",
	"containerized",
	"docker hub",
	"docker image",
	"docker container",
	"🐳",
}

var (
	dockerHubRegex = regexp.MustCompile(`hub\.docker\.com/r/([A-Za-z0-9._-]+/[A-Za-z0-9._-]+)`)
	ghcrRegex      = regexp.MustCompile(`ghcr\.io/[A-Za-z0-9._-]+/[A-Za-z0-9._-]+`)
)

// Heuristic decides whether an application looks deployable with Docker and
// which image reference to suggest.
type Heuristic struct {
	probe   RepositoryProbe
	timeout time.Duration

	mu   sync.Mutex
	memo map[string]bool
}

// NewHeuristic creates a heuristic backed by probe. A nil probe disables
// repository probing.
func NewHeuristic(probe RepositoryProbe) *Heuristic {
	if probe == nil {
		probe = NoopProbe{}
	}
	return &Heuristic{
		probe:   probe,
		timeout: ProbeTimeout,
		memo:    make(map[string]bool),
	}
}

// Classify returns whether the application is Docker-ready and, when one can
// be inferred, a Docker reference. A reference is never returned without ready.
func (h *Heuristic) Classify(ctx context.Context, description string, repositoryURL *string) (bool, *string) {
	keyword := hasDockerKeyword(description)

	if m := dockerHubRegex.FindStringSubmatch(description); m != nil {
		return true, ptr("https://hub.docker.com/r/" + trimSentence(m[1]))
	}
	if m := ghcrRegex.FindString(description); m != "" {
		return true, ptr(trimSentence(m))
	}

	if repositoryURL != nil && *repositoryURL != "" {
		repo := *repositoryURL
		if strings.Contains(strings.ToLower(repo), "dockerfile") {
			return true, ptr(repo)
		}
		if owner, name, ok := githubRepo(repo); ok && h.probeRepository(ctx, repo, owner, name) {
			return true, ptr("ghcr.io/" + owner + "/" + name)
		}
	}

	return keyword, nil
}

func hasDockerKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range dockerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// probeRepository asks the probe once per repository. Errors are logged and
// treated as no Docker files.
func (h *Heuristic) probeRepository(ctx context.Context, repositoryURL, owner, name string) bool {
	key := strings.ToLower(owner + "/" + name)

	h.mu.Lock()
	found, seen := h.memo[key]
	h.mu.Unlock()
	if seen {
		return found
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	found, err := h.probe.HasDockerFiles(probeCtx, repositoryURL)
	if err != nil {
		logger.Debug(ctx, "Repository probe for {{_URL_}}%s{{|-|}} failed: %v", repositoryURL, err)
		found = false
	}

	h.mu.Lock()
	h.memo[key] = found
	h.mu.Unlock()
	return found
}

// trimSentence drops the punctuation a reference picks up at the end of a sentence.
func trimSentence(ref string) string {
	return strings.TrimRight(ref, "._-")
}
