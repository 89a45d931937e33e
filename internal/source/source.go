// Package source provides the places the application list document can come
// from: an HTTP URL, a shallow git clone, or a local file.
package source

import (
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/fetch"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/version"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Source provides the raw application list.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// HTTPSource downloads the document from a URL.
type HTTPSource struct {
	getter fetch.Getter
	url    string
}

// NewHTTPSource creates a source reading docURL through getter.
func NewHTTPSource(getter fetch.Getter, docURL string) *HTTPSource {
	return &HTTPSource{getter: getter, url: docURL}
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	body, err := fetch.Get(ctx, s.getter, s.url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *HTTPSource) String() string {
	return s.url
}

// FileSource reads the document from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileSource) String() string {
	return s.path
}

// New builds the source selected by the catalog configuration. The returned
// close function releases network resources and is never nil.
func New(conf config.CatalogConfig) (Source, func(), error) {
	switch conf.Source {
	case config.SourceFile:
		return NewFileSource(config.ExpandVariables(conf.URL)), func() {}, nil
	case config.SourceGit:
		return NewGitSource(conf.RepositoryURL(), conf.GitHubBranch, paths.GetCatalogRepoDir(), constants.CatalogFileName, conf.GitHubToken), func() {}, nil
	case config.SourceHTTP, "":
		bf := NewFetcher(conf)
		return NewHTTPSource(bf, conf.DocumentURL()), bf.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown catalog source %q", conf.Source)
	}
}

// NewFetcher builds the circuit-breaking fetcher used for the document and
// GitHub API requests.
func NewFetcher(conf config.CatalogConfig) *fetch.BreakerFetcher {
	opts := []fetch.Option{
		fetch.WithUserAgent(version.UserAgent()),
		fetch.WithMaxRetries(conf.MaxRetries),
	}
	if auth := fetch.BearerToken(conf.GitHubToken); auth != nil {
		opts = append(opts, fetch.WithAuthFunc(func(rawURL string) (string, string) {
			if !isGitHubURL(rawURL) {
				return "", ""
			}
			return auth(rawURL)
		}))
	}
	return fetch.NewBreakerFetcher(fetch.NewFetcher(opts...))
}

// isGitHubURL reports whether the token may be sent to rawURL.
func isGitHubURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com") || strings.HasSuffix(host, ".githubusercontent.com")
}
