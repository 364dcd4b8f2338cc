package gitcache

import (
	"fmt"
	"net/url"
	"strings"
)

// Specifier is a parsed remote source specifier of the form
//
//	git+<scheme>://<host>/<path>[.git]#<ref>:<subpath>
//
// Ref defaults to the repository's default branch when omitted; subpath
// defaults to the repository root.
type Specifier struct {
	RepoURL string
	Ref     string
	Subpath string
}

// String reassembles the canonical specifier form.
func (s Specifier) String() string {
	out := "git+" + s.RepoURL
	if s.Ref != "" || s.Subpath != "" {
		out += "#" + s.Ref
		if s.Subpath != "" {
			out += ":" + s.Subpath
		}
	}
	return out
}

// ParseSpecifier parses a raw git+ specifier. Syntax violations return
// ErrInvalidSpecifier (wrapped) — fatal and non-retryable.
func ParseSpecifier(raw string) (Specifier, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "git+") {
		return Specifier{}, fmt.Errorf("%w: %q must start with git+", ErrInvalidSpecifier, raw)
	}

	rest := strings.TrimPrefix(raw, "git+")

	var frag string
	if idx := strings.Index(rest, "#"); idx >= 0 {
		frag = rest[idx+1:]
		rest = rest[:idx]
	}

	u, err := url.Parse(rest)
	if err != nil {
		return Specifier{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, raw, err)
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
	default:
		return Specifier{}, fmt.Errorf("%w: %q has unsupported scheme %q", ErrInvalidSpecifier, raw, u.Scheme)
	}
	if u.Host == "" {
		return Specifier{}, fmt.Errorf("%w: %q has no host", ErrInvalidSpecifier, raw)
	}
	if strings.Trim(u.Path, "/") == "" {
		return Specifier{}, fmt.Errorf("%w: %q has no repository path", ErrInvalidSpecifier, raw)
	}

	spec := Specifier{RepoURL: rest}
	if frag != "" {
		if idx := strings.Index(frag, ":"); idx >= 0 {
			spec.Ref = frag[:idx]
			spec.Subpath = strings.Trim(frag[idx+1:], "/")
		} else {
			spec.Ref = frag
		}
	}

	return spec, nil
}
