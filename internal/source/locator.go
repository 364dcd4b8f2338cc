// Package source locates BMAD content sources and orders them by priority.
//
// A source is one origin of BMAD content: the project-local bmad/ directory,
// the user-global directory, or a pre-registered remote git repository. The
// locator only decides WHICH sources are active and in what order — it does
// not touch manifests and does not resolve git specifiers to paths.
package source

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/HendryAvila/bmad-mcp/internal/config"
)

// ErrNoSourcesConfigured is returned when the active discovery mode yields
// an empty source list. Fatal for the calling request, not for the process.
var ErrNoSourcesConfigured = errors.New("no sources configured for discovery")

// Kind classifies a source location's origin.
type Kind string

const (
	KindProject Kind = "project"
	KindUser    Kind = "user"
	KindGit     Kind = "git"
)

// Location is one candidate source, tagged with provenance. Immutable once
// created; never persisted across sessions.
type Location struct {
	Kind Kind
	// Label is the provenance string recorded on every entry merged from
	// this source: "project", "user", or "git:<remote-name>".
	Label string
	// Root is the local filesystem root. Empty for git sources until the
	// git cache resolves the specifier.
	Root string
	// RemoteName and Specifier are set for git sources only.
	RemoteName string
	Specifier  string
}

// Options are the inputs to one discovery run.
type Options struct {
	// WorkDir is the directory project-local detection starts from.
	WorkDir string
	// ProjectRoot, when set, bypasses project-local detection entirely.
	ProjectRoot string
	// UserRoot is the user-global BMAD directory.
	UserRoot string
	// Remotes are the pre-registered git sources, in priority order.
	Remotes []config.Remote
	Mode    config.DiscoveryMode
}

// installMarkers are the files whose presence makes a directory a BMAD
// installation root. Kept in sync with the installation detector.
var installMarkers = []string{
	filepath.Join("_cfg", "manifest.yaml"),
	"agent-manifest.csv",
}

// Locate produces the ordered candidate source list for the given options.
// Ordering in auto mode (project, user, remotes) is also the tie-break
// priority used during manifest merge.
func Locate(opts Options) ([]Location, error) {
	var locs []Location

	switch opts.Mode {
	case config.ModeStrict:
		locs = remoteLocations(opts.Remotes)
	case config.ModeLocal:
		if root, ok := projectRoot(opts); ok {
			locs = append(locs, Location{Kind: KindProject, Label: "project", Root: root})
		}
	case config.ModeUser:
		if isInstallRoot(opts.UserRoot) {
			locs = append(locs, Location{Kind: KindUser, Label: "user", Root: opts.UserRoot})
		}
	default: // auto
		if root, ok := projectRoot(opts); ok {
			locs = append(locs, Location{Kind: KindProject, Label: "project", Root: root})
		}
		if isInstallRoot(opts.UserRoot) {
			locs = append(locs, Location{Kind: KindUser, Label: "user", Root: opts.UserRoot})
		}
		locs = append(locs, remoteLocations(opts.Remotes)...)
	}

	if len(locs) == 0 {
		return nil, ErrNoSourcesConfigured
	}
	return locs, nil
}

func remoteLocations(remotes []config.Remote) []Location {
	locs := make([]Location, 0, len(remotes))
	for _, r := range remotes {
		locs = append(locs, Location{
			Kind:       KindGit,
			Label:      "git:" + r.Name,
			RemoteName: r.Name,
			Specifier:  r.Specifier,
		})
	}
	return locs
}

// projectRoot resolves the project-local BMAD root. An explicit override
// wins; otherwise walk up from WorkDir looking for a bmad/ installation.
func projectRoot(opts Options) (string, bool) {
	if opts.ProjectRoot != "" {
		if isInstallRoot(opts.ProjectRoot) {
			return opts.ProjectRoot, true
		}
		return "", false
	}

	dir := opts.WorkDir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", false
		}
	}

	for {
		candidate := filepath.Join(dir, "bmad")
		if isInstallRoot(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// isInstallRoot reports whether dir carries either dialect's marker file.
func isInstallRoot(dir string) bool {
	if dir == "" {
		return false
	}
	for _, marker := range installMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
