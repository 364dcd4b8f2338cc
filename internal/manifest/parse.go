package manifest

import (
	"fmt"

	"github.com/HendryAvila/bmad-mcp/internal/installation"
)

// Parse dispatches to the dialect parser selected by the installation
// detector. The two parsers are pure functions over the filesystem and
// converge on the same Result shape.
func Parse(inst installation.Installation, provenance string) (*Result, error) {
	switch inst.Type {
	case installation.TypeFlat:
		return ParseFlat(inst, provenance)
	case installation.TypeModular:
		return ParseModular(inst, provenance)
	default:
		return nil, fmt.Errorf("%w: unknown installation type %q", ErrManifestInvalid, inst.Type)
	}
}
