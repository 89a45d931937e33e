package catalog

import (
	"EasyDockerDeploy/internal/fetch"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// RepositoryProbe reports whether a repository ships Docker build files.
type RepositoryProbe interface {
	HasDockerFiles(ctx context.Context, repositoryURL string) (bool, error)
}

// NoopProbe never finds anything. It is used when probing is disabled.
type NoopProbe struct{}

func (NoopProbe) HasDockerFiles(context.Context, string) (bool, error) {
	return false, nil
}

// ProbeFunc adapts a function to RepositoryProbe.
type ProbeFunc func(ctx context.Context, repositoryURL string) (bool, error)

func (f ProbeFunc) HasDockerFiles(ctx context.Context, repositoryURL string) (bool, error) {
	return f(ctx, repositoryURL)
}

// DefaultGitHubAPI is the base URL of the GitHub REST API.
const DefaultGitHubAPI = "https://api.github.com"

// dockerFileNames are matched case-insensitively against the repository root.
var dockerFileNames = map[string]struct{}{
	"dockerfile":          {},
	"docker-compose.yml":  {},
	"docker-compose.yaml": {},
	".docker":             {},
	"docker":              {},
}

// GitHubProbe lists the root of a GitHub repository through the contents API.
type GitHubProbe struct {
	getter  fetch.Getter
	apiBase string
}

// NewGitHubProbe creates a probe using getter for requests. An empty apiBase
// selects DefaultGitHubAPI.
func NewGitHubProbe(getter fetch.Getter, apiBase string) *GitHubProbe {
	if apiBase == "" {
		apiBase = DefaultGitHubAPI
	}
	return &GitHubProbe{getter: getter, apiBase: strings.TrimSuffix(apiBase, "/")}
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (p *GitHubProbe) HasDockerFiles(ctx context.Context, repositoryURL string) (bool, error) {
	owner, repo, ok := githubRepo(repositoryURL)
	if !ok {
		return false, fmt.Errorf("not a GitHub repository: %s", repositoryURL)
	}

	body, err := fetch.Get(ctx, p.getter, fmt.Sprintf("%s/repos/%s/%s/contents", p.apiBase, owner, repo))
	if errors.Is(err, fetch.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return false, fmt.Errorf("decoding contents of %s/%s: %w", owner, repo, err)
	}
	for _, e := range entries {
		if _, ok := dockerFileNames[strings.ToLower(e.Name)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// githubRepo extracts owner and repository from a github.com URL. The
// repository is the second path segment with any ".git" suffix removed.
func githubRepo(rawURL string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", false
	}
	host := strings.ToLower(u.Host)
	if host != "github.com" && host != "www.github.com" {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	repo = strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return "", "", false
	}
	return parts[0], repo, true
}
