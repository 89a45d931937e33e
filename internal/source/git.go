package source

import (
	"EasyDockerDeploy/internal/logger"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitSource keeps a shallow clone of the list repository and reads the
// document from its working tree.
type GitSource struct {
	repoURL string
	branch  string
	dir     string
	file    string
	token   string
}

// NewGitSource creates a source cloning repoURL at branch into dir and
// reading file from it.
func NewGitSource(repoURL, branch, dir, file, token string) *GitSource {
	return &GitSource{repoURL: repoURL, branch: branch, dir: dir, file: file, token: token}
}

func (s *GitSource) String() string {
	return fmt.Sprintf("%s (%s)", s.repoURL, s.branch)
}

func (s *GitSource) auth() transport.AuthMethod {
	if s.token == "" {
		return nil
	}
	// GitHub accepts any non-empty user name with a token.
	return &githttp.BasicAuth{Username: "edd", Password: s.token}
}

func (s *GitSource) Fetch(ctx context.Context) (string, error) {
	if err := s.sync(ctx); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, s.file))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sync clones the repository, or pulls when a clone already exists. A clone
// that cannot be pulled is removed and cloned again.
func (s *GitSource) sync(ctx context.Context) error {
	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return s.clone(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to open catalog repository: %w", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get catalog worktree: %w", err)
	}
	err = w.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
		Depth:         1,
		Force:         true,
		Auth:          s.auth(),
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.Warn(ctx, "Failed to update {{_Folder_}}%s{{|-|}} (%v), cloning again.", s.dir, err)
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove stale catalog repository: %w", err)
	}
	return s.clone(ctx)
}

func (s *GitSource) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.dir), 0755); err != nil {
		return err
	}
	logger.Info(ctx, "Cloning {{_URL_}}%s{{|-|}} into {{_Folder_}}%s{{|-|}}", s.repoURL, s.dir)
	_, err := git.PlainCloneContext(ctx, s.dir, false, &git.CloneOptions{
		URL:           s.repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
		Depth:         1,
		Auth:          s.auth(),
	})
	if err != nil {
		_ = os.RemoveAll(s.dir)
		return fmt.Errorf("failed to clone %s: %w", s.repoURL, err)
	}
	return nil
}
