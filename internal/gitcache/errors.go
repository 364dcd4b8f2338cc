package gitcache

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors forming the cache's failure taxonomy. Callers match with
// errors.Is; the cache never retries on its own.
var (
	// ErrInvalidSpecifier means the specifier syntax is wrong. Fatal,
	// non-retryable.
	ErrInvalidSpecifier = errors.New("invalid remote specifier")
	// ErrRemoteUnavailable means the remote could not be reached or read.
	// Retryable by the caller once the network recovers.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrRefNotFound means the requested ref does not exist on the remote.
	ErrRefNotFound = errors.New("ref not found")
)

// GitError carries the raw git output alongside the taxonomy sentinel it
// was classified into.
type GitError struct {
	Sentinel  error
	URL       string
	Ref       string
	RawOutput string
}

// Error implements the error interface.
func (e *GitError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Sentinel, e.URL, e.firstLine())
}

// Unwrap lets errors.Is match the taxonomy sentinel.
func (e *GitError) Unwrap() error { return e.Sentinel }

// firstLine returns the first informative line of raw git output.
func (e *GitError) firstLine() string {
	for _, line := range strings.Split(e.RawOutput, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Cloning into") {
			return line
		}
	}
	return "git command failed"
}

// classifyGitError pattern-matches git stderr to pick the right sentinel.
// Ref misses are distinguished from everything else; the rest (auth, DNS,
// refused connections, missing repos) is ErrRemoteUnavailable — retryable
// from the caller's point of view.
func classifyGitError(url, ref, output string) *GitError {
	lower := strings.ToLower(output)

	sentinel := ErrRemoteUnavailable
	switch {
	case strings.Contains(lower, "remote branch") && strings.Contains(lower, "not found"),
		strings.Contains(lower, "couldn't find remote ref"),
		strings.Contains(lower, "could not find remote branch"),
		strings.Contains(lower, "unknown revision or path"),
		strings.Contains(lower, "pathspec") && strings.Contains(lower, "did not match"):
		sentinel = ErrRefNotFound
	}

	return &GitError{
		Sentinel:  sentinel,
		URL:       url,
		Ref:       ref,
		RawOutput: strings.TrimSpace(output),
	}
}
