// Package installation classifies a filesystem path as one of the two BMAD
// installation dialects.
//
// The classification is marker-driven and never guesses: a modular
// installation is defined by _cfg/manifest.yaml, a legacy flat installation
// by a top-level agents/ directory plus agent-manifest.csv at the root.
// Anything else is invalid, with the missing marker named in the error.
package installation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidInstallation means the path carries neither dialect's marker.
var ErrInvalidInstallation = errors.New("invalid installation")

// Type is the installation dialect.
type Type string

const (
	// TypeModular is a v6-style install: _cfg/manifest.yaml plus
	// per-module subdirectories holding agents/, workflows/, tasks/.
	TypeModular Type = "modular"
	// TypeFlat is a legacy install: top-level agents/ directory and a
	// CSV registry at the root, no module subdivision.
	TypeFlat Type = "flat"
)

// Marker file names, exact.
const (
	ModularManifest = "manifest.yaml"
	ModularCfgDir   = "_cfg"
	FlatManifest    = "agent-manifest.csv"
	FlatAgentsDir   = "agents"
)

// Installation is the detector's verdict for one root path.
type Installation struct {
	Type Type
	Root string
	// ManifestPath is the dialect's machine-readable manifest:
	// _cfg/manifest.yaml for modular, agent-manifest.csv for flat.
	ManifestPath string
	// AgentsDir is set for flat installations only.
	AgentsDir string
}

// Detect inspects root and classifies it. Modular is checked first; the
// presence of its marker is authoritative even if flat markers also exist.
func Detect(root string) (Installation, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Installation{}, fmt.Errorf("%w: %s: %v", ErrInvalidInstallation, root, err)
	}
	if !info.IsDir() {
		return Installation{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidInstallation, root)
	}

	modularManifest := filepath.Join(root, ModularCfgDir, ModularManifest)
	if fileExists(modularManifest) {
		return Installation{
			Type:         TypeModular,
			Root:         root,
			ManifestPath: modularManifest,
		}, nil
	}

	flatManifest := filepath.Join(root, FlatManifest)
	agentsDir := filepath.Join(root, FlatAgentsDir)
	hasManifest := fileExists(flatManifest)
	hasAgents := dirExists(agentsDir)

	switch {
	case hasManifest && hasAgents:
		return Installation{
			Type:         TypeFlat,
			Root:         root,
			ManifestPath: flatManifest,
			AgentsDir:    agentsDir,
		}, nil
	case hasManifest:
		return Installation{}, fmt.Errorf("%w: %s has %s but no %s/ directory",
			ErrInvalidInstallation, root, FlatManifest, FlatAgentsDir)
	case hasAgents:
		return Installation{}, fmt.Errorf("%w: %s has an %s/ directory but no %s",
			ErrInvalidInstallation, root, FlatAgentsDir, FlatManifest)
	default:
		return Installation{}, fmt.Errorf("%w: %s has neither %s/%s nor %s",
			ErrInvalidInstallation, root, ModularCfgDir, ModularManifest, FlatManifest)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
