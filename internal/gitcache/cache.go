// Package gitcache resolves git+ remote specifiers to local paths, keeping
// one clone per (repository, ref) pair under a cache directory.
//
// Distinct keys resolve in parallel; concurrent resolutions of the same key
// serialize on a per-key lock so the second caller reuses the first clone
// instead of racing the filesystem. Locks are created lazily and kept for
// the life of the process. An in-flight fetch is never torn down on caller
// cancellation — the populated cache serves future callers.
package gitcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/bmad-mcp/internal/logging"
)

const (
	cloneTimeout = 60 * time.Second
	fetchTimeout = 30 * time.Second
)

// runGit is a package-level var to allow test injection.
var runGit = execGit

// Cache resolves specifiers into per-(repo, ref) clone directories.
type Cache struct {
	dir string
	log *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Cache rooted at dir.
func New(dir string, log *logging.Logger) *Cache {
	return &Cache{
		dir:   dir,
		log:   log.Sub("gitcache"),
		locks: make(map[string]*sync.Mutex),
	}
}

// CacheKey derives the clone directory name for a (repository, ref) pair.
// The key is a deterministic function of url and ref only — never of the
// subpath — so multiple subpaths of one ref share a single clone, and two
// refs of the same repository can never collide.
func CacheKey(repoURL, ref string) string {
	slug := repoSlug(repoURL)
	h := sha256.Sum256([]byte(repoURL + "\x00" + ref))
	short := hex.EncodeToString(h[:4])
	if ref == "" {
		ref = "HEAD"
	}
	return slug + "-" + sanitizeRef(ref) + "-" + short
}

// Resolve parses raw, clones or updates the keyed clone, and returns the
// local path for the specifier's subpath. The passed context gates waiting
// only; the git commands themselves run to completion under their own
// timeouts so an abandoned request still populates the cache.
func (c *Cache) Resolve(ctx context.Context, raw string) (string, error) {
	spec, err := ParseSpecifier(raw)
	if err != nil {
		return "", err
	}
	return c.ResolveSpecifier(ctx, spec)
}

// ResolveSpecifier is Resolve for an already-parsed specifier.
func (c *Cache) ResolveSpecifier(ctx context.Context, spec Specifier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := CacheKey(spec.RepoURL, spec.Ref)
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	cloneDir := filepath.Join(c.dir, key)
	if dirExists(filepath.Join(cloneDir, ".git")) {
		if err := c.update(cloneDir, spec); err != nil {
			return "", err
		}
	} else {
		if err := c.clone(cloneDir, spec); err != nil {
			return "", err
		}
	}

	local := cloneDir
	if spec.Subpath != "" {
		local = filepath.Join(cloneDir, filepath.FromSlash(spec.Subpath))
		if !dirExists(local) {
			return "", fmt.Errorf("subpath %q not found in %s@%s", spec.Subpath, spec.RepoURL, refLabel(spec.Ref))
		}
	}
	return local, nil
}

// keyLock returns the lock for a cache key, creating it on first use.
// Locks are never removed — the arena lives as long as the process.
func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.locks[key] = l
	return l
}

// clone performs the first resolution for a key: a shallow clone of the
// requested ref into the keyed directory.
func (c *Cache) clone(cloneDir string, spec Specifier) error {
	if err := os.MkdirAll(filepath.Dir(cloneDir), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	args := []string{"clone", "--depth", "1"}
	if spec.Ref != "" {
		args = append(args, "--branch", spec.Ref)
	}
	args = append(args, spec.RepoURL, cloneDir)

	c.log.Debug().Str("url", spec.RepoURL).Str("ref", refLabel(spec.Ref)).Msg("cloning remote source")
	if output, err := runGit("", cloneTimeout, args...); err != nil {
		_ = os.RemoveAll(cloneDir)
		return classifyGitError(spec.RepoURL, spec.Ref, output)
	}
	return nil
}

// update refreshes an existing clone to the requested ref. The clone is
// never recreated — only fetched and checked out in place.
func (c *Cache) update(cloneDir string, spec Specifier) error {
	c.log.Debug().Str("url", spec.RepoURL).Str("ref", refLabel(spec.Ref)).Msg("updating cached clone")

	if spec.Ref == "" {
		if output, err := runGit(cloneDir, fetchTimeout, "pull", "--ff-only"); err != nil {
			return classifyGitError(spec.RepoURL, spec.Ref, output)
		}
		return nil
	}

	if output, err := runGit(cloneDir, fetchTimeout, "fetch", "--depth", "1", "origin", spec.Ref); err != nil {
		return classifyGitError(spec.RepoURL, spec.Ref, output)
	}
	if output, err := runGit(cloneDir, fetchTimeout, "checkout", "--detach", "FETCH_HEAD"); err != nil {
		return classifyGitError(spec.RepoURL, spec.Ref, output)
	}
	return nil
}

// execGit runs git with a hard timeout, returning combined output.
func execGit(dir string, timeout time.Duration, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	done := make(chan struct{})
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		close(done)
	}()

	select {
	case <-done:
		return string(output), cmdErr
	case <-time.After(timeout):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), timeout)
	}
}

// repoSlug extracts a human-readable directory prefix from a repo URL,
// e.g. "https://github.com/org/repo.git" → "org-repo".
func repoSlug(repoURL string) string {
	s := strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git"))
	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
		if slash := strings.Index(s, "/"); slash >= 0 {
			s = s[slash+1:]
		}
	}
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "repo"
	}
	return s
}

// sanitizeRef makes a ref safe for use in a directory name.
func sanitizeRef(ref string) string {
	ref = strings.ReplaceAll(ref, "/", "-")
	ref = strings.ReplaceAll(ref, string(filepath.Separator), "-")
	return ref
}

func refLabel(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
