// Package manifest parses the two BMAD on-disk manifest dialects into one
// canonical in-memory shape.
//
// The flat (legacy) dialect is a CSV registry plus agent markdown files;
// the modular dialect is a YAML per-module registry plus per-module
// agents/, workflows/ and tasks/ directories. Both converge on the same
// AgentEntry/WorkflowEntry/TaskEntry types. Validation violations are
// reported as warnings, never silently dropped.
package manifest

import (
	"errors"
	"fmt"
)

// ErrManifestInvalid means a manifest is structurally unreadable (missing
// or malformed registry file). Per-entry violations become Warnings instead.
var ErrManifestInvalid = errors.New("manifest validation failed")

// Key builds the canonical registry key for a (module, name) pair.
func Key(module, name string) string {
	return module + ":" + name
}

// AgentRef identifies an agent by its canonical key parts.
type AgentRef struct {
	Module string `json:"module"`
	Name   string `json:"name"`
}

// WorkflowRef is a workflow reference declared by an agent, either in a CSV
// row's workflows column or in a menu entry's workflow target.
type WorkflowRef struct {
	Module string `json:"module"`
	// Name is derived from the workflow path (its directory name).
	Name string `json:"name"`
	// Path is the declared workflow definition path, as written.
	Path string `json:"path"`
	// Trigger is the menu trigger that offers this workflow, when the
	// reference came from a menu entry.
	Trigger string `json:"trigger,omitempty"`
}

// Persona holds an agent's role/identity metadata from its embedded block.
type Persona struct {
	Role               string   `yaml:"role" json:"role,omitempty"`
	Identity           string   `yaml:"identity" json:"identity,omitempty"`
	CommunicationStyle string   `yaml:"communication_style" json:"communication_style,omitempty"`
	Principles         []string `yaml:"principles" json:"principles,omitempty"`
}

// MenuEntry is one invocable command in an agent's menu. Exactly one
// command-target field must be set; Trigger must be kebab-case and unique
// within the agent.
type MenuEntry struct {
	Trigger     string `yaml:"trigger" json:"trigger"`
	Description string `yaml:"description" json:"description,omitempty"`

	// Command targets — one of:
	Workflow         string `yaml:"workflow" json:"workflow,omitempty"`
	Exec             string `yaml:"exec" json:"exec,omitempty"`
	Action           string `yaml:"action" json:"action,omitempty"`
	Template         string `yaml:"tmpl" json:"tmpl,omitempty"`
	Data             string `yaml:"data" json:"data,omitempty"`
	ValidateWorkflow string `yaml:"validate-workflow" json:"validate_workflow,omitempty"`
}

// HasTarget reports whether the entry declares at least one command target.
func (m MenuEntry) HasTarget() bool {
	return m.Workflow != "" || m.Exec != "" || m.Action != "" ||
		m.Template != "" || m.Data != "" || m.ValidateWorkflow != ""
}

// AgentEntry is the canonical in-memory shape for one agent definition.
// Canonical key is module:name. Entries are never mutated in place once
// merged into a registry — ranking scores live in a side-car view.
type AgentEntry struct {
	Module      string `json:"module"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	DisplayName string `json:"display_name,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Role        string `json:"role,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Provenance  string `json:"provenance"`

	Persona Persona     `json:"persona,omitempty"`
	Menu    []MenuEntry `json:"menu,omitempty"`

	Workflows []WorkflowRef `json:"workflows,omitempty"`
	// WorkflowHandler is the agent's workflow handler instructions,
	// appended verbatim to workflow activation payloads.
	WorkflowHandler string `json:"workflow_handler,omitempty"`

	// Order is the declaration index within the source, used only as the
	// final ranking tie-break.
	Order int `json:"order"`
}

// Key returns the canonical module:name key.
func (a AgentEntry) Key() string { return Key(a.Module, a.Name) }

// Ref returns the entry's AgentRef.
func (a AgentEntry) Ref() AgentRef { return AgentRef{Module: a.Module, Name: a.Name} }

// WorkflowEntry is the canonical in-memory shape for one workflow. A
// workflow referenced by N agents has exactly one entry with OwningAgents
// of size N — it is never duplicated per agent.
type WorkflowEntry struct {
	Module      string     `json:"module"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Standalone  bool       `json:"standalone"`
	OwningAgents []AgentRef `json:"owning_agents,omitempty"`
	FilePath    string     `json:"file_path,omitempty"`
	Provenance  string     `json:"provenance"`
	Order       int        `json:"order"`
}

// Key returns the canonical module:name key.
func (w WorkflowEntry) Key() string { return Key(w.Module, w.Name) }

// TaskEntry is a per-module task file.
type TaskEntry struct {
	Module     string `json:"module"`
	Name       string `json:"name"`
	FilePath   string `json:"file_path,omitempty"`
	Provenance string `json:"provenance"`
}

// Key returns the canonical module:name key.
func (t TaskEntry) Key() string { return Key(t.Module, t.Name) }

// Warning is a validation violation attached to a source. Warnings never
// abort parsing — the rest of the source keeps merging.
type Warning struct {
	Provenance string `json:"provenance"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
}

// Result is one source's parsed output.
type Result struct {
	Agents    []AgentEntry
	Workflows []WorkflowEntry
	Tasks     []TaskEntry
	Warnings  []Warning
}

func (r *Result) warnf(provenance, path, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Provenance: provenance,
		Path:       path,
		Message:    fmt.Sprintf(format, args...),
	})
}
