// Package registry merges per-source manifest parses into one master
// registry and answers lookup queries against it.
//
// Merge rule: sources are visited in priority order; the first entry for a
// (module, name) key becomes canonical, later ones are shadowed but remain
// reachable through source-qualified lookup — no entry is ever silently
// discarded. The registry is rebuilt whole and swapped in atomically, so a
// concurrent resolution never observes a torn state.
package registry

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/HendryAvila/bmad-mcp/internal/manifest"
)

// MasterManifest is one immutable build of the merged registry.
type MasterManifest struct {
	Agents    []manifest.AgentEntry    `json:"agents"`
	Workflows []manifest.WorkflowEntry `json:"workflows"`
	Tasks     []manifest.TaskEntry     `json:"tasks"`

	// Shadowed entries lost the priority tie-break for their key but stay
	// queryable via source-qualified lookup.
	ShadowedAgents    []manifest.AgentEntry    `json:"shadowed_agents,omitempty"`
	ShadowedWorkflows []manifest.WorkflowEntry `json:"shadowed_workflows,omitempty"`

	Warnings    []manifest.Warning `json:"warnings,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`

	agentByKey    map[string]int
	workflowByKey map[string]int
	taskByKey     map[string]int
}

// Agent returns the canonical agent for an exact (module, name) key.
func (m *MasterManifest) Agent(module, name string) (manifest.AgentEntry, bool) {
	i, ok := m.agentByKey[manifest.Key(module, name)]
	if !ok {
		return manifest.AgentEntry{}, false
	}
	return m.Agents[i], true
}

// AgentsByName returns every canonical agent sharing a bare name across
// modules — the ambiguity candidate set for unqualified lookups.
func (m *MasterManifest) AgentsByName(name string) []manifest.AgentEntry {
	var out []manifest.AgentEntry
	for _, a := range m.Agents {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// Workflow returns the canonical workflow for an exact (module, name) key.
func (m *MasterManifest) Workflow(module, name string) (manifest.WorkflowEntry, bool) {
	i, ok := m.workflowByKey[manifest.Key(module, name)]
	if !ok {
		return manifest.WorkflowEntry{}, false
	}
	return m.Workflows[i], true
}

// WorkflowsByName returns every canonical workflow sharing a bare name.
func (m *MasterManifest) WorkflowsByName(name string) []manifest.WorkflowEntry {
	var out []manifest.WorkflowEntry
	for _, w := range m.Workflows {
		if w.Name == name {
			out = append(out, w)
		}
	}
	return out
}

// AgentFromSource looks an agent up by provenance label, searching canonical
// entries first and then the shadowed side list. Module may be empty.
func (m *MasterManifest) AgentFromSource(label, module, name string) (manifest.AgentEntry, bool) {
	match := func(a manifest.AgentEntry) bool {
		return a.Provenance == label && a.Name == name && (module == "" || a.Module == module)
	}
	for _, a := range m.Agents {
		if match(a) {
			return a, true
		}
	}
	for _, a := range m.ShadowedAgents {
		if match(a) {
			return a, true
		}
	}
	return manifest.AgentEntry{}, false
}

// WorkflowFromSource is AgentFromSource for workflows.
func (m *MasterManifest) WorkflowFromSource(label, module, name string) (manifest.WorkflowEntry, bool) {
	match := func(w manifest.WorkflowEntry) bool {
		return w.Provenance == label && w.Name == name && (module == "" || w.Module == module)
	}
	for _, w := range m.Workflows {
		if match(w) {
			return w, true
		}
	}
	for _, w := range m.ShadowedWorkflows {
		if match(w) {
			return w, true
		}
	}
	return manifest.WorkflowEntry{}, false
}

// Merge folds one source's parse result into the build, in call order.
// Duplicate (module, name) keys from lower-priority sources are shadowed,
// never dropped.
func (m *MasterManifest) Merge(res *manifest.Result) {
	m.Warnings = append(m.Warnings, res.Warnings...)

	for _, a := range res.Agents {
		if _, seen := m.agentByKey[a.Key()]; seen {
			m.ShadowedAgents = append(m.ShadowedAgents, a)
			continue
		}
		m.agentByKey[a.Key()] = len(m.Agents)
		m.Agents = append(m.Agents, a)
	}

	for _, w := range res.Workflows {
		if i, seen := m.workflowByKey[w.Key()]; seen {
			// Same key from the same build: a standalone manifest and a
			// linkage-created entry must converge on one entry.
			if w.Provenance == m.Workflows[i].Provenance {
				merged := m.Workflows[i]
				merged.Standalone = merged.Standalone || w.Standalone
				if merged.Description == "" {
					merged.Description = w.Description
				}
				m.Workflows[i] = merged
			} else {
				m.ShadowedWorkflows = append(m.ShadowedWorkflows, w)
			}
			continue
		}
		m.workflowByKey[w.Key()] = len(m.Workflows)
		m.Workflows = append(m.Workflows, w)
	}

	for _, t := range res.Tasks {
		if _, seen := m.taskByKey[t.Key()]; seen {
			continue
		}
		m.taskByKey[t.Key()] = len(m.Tasks)
		m.Tasks = append(m.Tasks, t)
	}
}

// linkWorkflows walks every canonical agent's workflow references and folds
// them into the workflow table: an existing entry (standalone or not) gains
// the agent as an owner; an unknown reference creates a menu-only entry.
// A workflow referenced by N agents ends up with exactly one entry whose
// OwningAgents has size N.
func (m *MasterManifest) linkWorkflows() {
	for _, a := range m.Agents {
		for _, ref := range a.Workflows {
			key := manifest.Key(ref.Module, ref.Name)
			if i, ok := m.workflowByKey[key]; ok {
				m.Workflows[i].OwningAgents = appendOwner(m.Workflows[i].OwningAgents, a.Ref())
				continue
			}
			m.workflowByKey[key] = len(m.Workflows)
			m.Workflows = append(m.Workflows, manifest.WorkflowEntry{
				Module:       ref.Module,
				Name:         ref.Name,
				Standalone:   false,
				OwningAgents: []manifest.AgentRef{a.Ref()},
				FilePath:     ref.Path,
				Provenance:   a.Provenance,
				Order:        len(m.Workflows),
			})
		}
	}
}

func appendOwner(owners []manifest.AgentRef, ref manifest.AgentRef) []manifest.AgentRef {
	for _, o := range owners {
		if o == ref {
			return owners
		}
	}
	return append(owners, ref)
}

// Modules returns the sorted set of module names present in the registry.
func (m *MasterManifest) Modules() []string {
	set := make(map[string]bool)
	for _, a := range m.Agents {
		set[a.Module] = true
	}
	for _, w := range m.Workflows {
		set[w.Module] = true
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// newMaster creates an empty build.
func newMaster() *MasterManifest {
	return &MasterManifest{
		GeneratedAt:   time.Now().UTC(),
		agentByKey:    make(map[string]int),
		workflowByKey: make(map[string]int),
		taskByKey:     make(map[string]int),
	}
}

// Registry holds the active MasterManifest behind an atomic pointer. Swap
// publishes a fully built manifest; Current never sees a partial build.
type Registry struct {
	ptr atomic.Pointer[MasterManifest]
}

// NewRegistry returns a Registry holding an empty manifest.
func NewRegistry() *Registry {
	r := &Registry{}
	m := newMaster()
	m.linkWorkflows()
	r.ptr.Store(m)
	return r
}

// Current returns the active manifest. Never nil.
func (r *Registry) Current() *MasterManifest { return r.ptr.Load() }

// Swap atomically publishes a new manifest build.
func (r *Registry) Swap(m *MasterManifest) { r.ptr.Store(m) }
