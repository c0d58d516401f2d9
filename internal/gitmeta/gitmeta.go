// Package gitmeta reads metadata from the git repository enclosing the docs
// tree. The descriptor's `:github:` sidebar option may leave its slug empty,
// meaning "derive it from the repository remote"; build reports also record
// the commit the navigation was built from.
package gitmeta

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrNoRepository is returned when the path is not inside a git repository.
var ErrNoRepository = errors.New("not inside a git repository")

// Info holds the repository metadata navigation building consumes.
type Info struct {
	RemoteURL  string // origin remote URL, verbatim
	GitHubSlug string // "owner/repo" when the remote points at github.com
	Commit     string // HEAD commit hash, empty on an unborn branch
}

// Detect opens the repository containing path and extracts its metadata.
func Detect(path string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	info := &Info{}

	if remote, err := repo.Remote("origin"); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			info.RemoteURL = urls[0]
			info.GitHubSlug = githubSlug(urls[0])
		}
	}

	if head, err := repo.Head(); err == nil {
		info.Commit = head.Hash().String()
	}

	return info, nil
}

// githubSlug extracts "owner/repo" from a github.com remote URL in either
// SSH (git@github.com:owner/repo.git) or HTTPS form. Other hosts yield "".
func githubSlug(remote string) string {
	var path string
	switch {
	case strings.HasPrefix(remote, "git@github.com:"):
		path = strings.TrimPrefix(remote, "git@github.com:")
	case strings.HasPrefix(remote, "ssh://git@github.com/"):
		path = strings.TrimPrefix(remote, "ssh://git@github.com/")
	case strings.HasPrefix(remote, "https://github.com/"):
		path = strings.TrimPrefix(remote, "https://github.com/")
	case strings.HasPrefix(remote, "http://github.com/"):
		path = strings.TrimPrefix(remote, "http://github.com/")
	default:
		return ""
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if strings.Count(path, "/") != 1 {
		return ""
	}
	return path
}
