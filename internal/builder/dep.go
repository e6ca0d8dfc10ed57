package builder

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"

	"github.com/qobs-build/wgslpp/internal/msg"
)

var depShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var (
	errIllegalDep = errors.New("empty or illegal dependency string")
)

// remoteURL returns the git URL of a dependency string, or "" for a local path
func remoteURL(dep string) string {
	// check for `git:` prefix, e.g. git:https://github.com/someone/shaderlib.git
	if rest, ok := strings.CutPrefix(dep, gitPrefix); ok {
		return rest
	}

	// check for shortcut prefix, e.g. gh:someone/shaderlib
	for shortcut, url := range depShortcuts {
		if rest, ok := strings.CutPrefix(dep, shortcut); ok {
			return url + rest
		}
	}

	// a bare URL is cloned as well
	if isURL(dep) {
		return dep
	}
	return ""
}

// fetchDependency makes a dependency available on disk and returns its directory.
// Remote dependencies are cloned into toWhere once; local paths are resolved
// against basedir and used in place.
func fetchDependency(dep, basedir, toWhere string) (string, error) {
	if dep == "" {
		return "", errIllegalDep
	}

	remote := remoteURL(dep)
	if remote == "" {
		path := dep
		if !filepath.IsAbs(path) {
			path = filepath.Join(basedir, path)
		}
		if st, err := os.Stat(path); err != nil || !st.IsDir() {
			return "", fmt.Errorf("%w: %q is not a directory", errIllegalDep, dep)
		}
		return path, nil
	}

	if st, err := os.Stat(toWhere); err == nil && st.IsDir() {
		return toWhere, nil // already fetched
	}
	if err := os.MkdirAll(filepath.Dir(toWhere), 0755); err != nil {
		return "", err
	}
	msg.Info("fetching %s", remote)
	path, err := cloneGitRepo(remote, toWhere)
	if err != nil {
		os.RemoveAll(toWhere) // don't leave a half clone that looks fetched
		return "", err
	}
	return path, nil
}

func isURL(maybeURL string) bool {
	u, err := url.Parse(maybeURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	baseURL, rev, found := strings.Cut(rawURL, "#")
	if found {
		res.commitOrTag = rev
	}

	res.cleanURL, res.branch, _ = strings.Cut(baseURL, "@")

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(url, toWhere string) (string, error) {
	parsedURL := parseGitURL(url)

	cloneOptions := &git.CloneOptions{
		URL:               parsedURL.cleanURL,
		Progress:          &msg.IndentWriter{Indent: "    ", W: msg.Output},
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return toWhere, err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return toWhere, fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return toWhere, fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return toWhere, fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return toWhere, nil
}
