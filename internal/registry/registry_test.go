package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/bmad-mcp/internal/manifest"
)

func agent(module, name, provenance string, refs ...manifest.WorkflowRef) manifest.AgentEntry {
	return manifest.AgentEntry{
		Module:     module,
		Name:       name,
		Title:      name + " title",
		Provenance: provenance,
		Workflows:  refs,
	}
}

func TestMergeFirstSourceWins(t *testing.T) {
	m := newMaster()
	m.Merge(&manifest.Result{Agents: []manifest.AgentEntry{agent("bmm", "analyst", "project")}})
	m.Merge(&manifest.Result{Agents: []manifest.AgentEntry{agent("bmm", "analyst", "user")}})
	m.linkWorkflows()

	a, ok := m.Agent("bmm", "analyst")
	require.True(t, ok)
	assert.Equal(t, "project", a.Provenance)

	// The losing entry is shadowed, not dropped.
	require.Len(t, m.ShadowedAgents, 1)
	assert.Equal(t, "user", m.ShadowedAgents[0].Provenance)

	shadowed, ok := m.AgentFromSource("user", "bmm", "analyst")
	require.True(t, ok)
	assert.Equal(t, "user", shadowed.Provenance)
}

func TestMergeIsIdempotentPerBuild(t *testing.T) {
	res := &manifest.Result{Agents: []manifest.AgentEntry{agent("bmm", "analyst", "project")}}

	m1 := newMaster()
	m1.Merge(res)
	m1.linkWorkflows()

	m2 := newMaster()
	m2.Merge(res)
	m2.linkWorkflows()

	assert.Equal(t, len(m1.Agents), len(m2.Agents))
	assert.Equal(t, m1.Agents[0].Key(), m2.Agents[0].Key())
}

func TestLinkWorkflowsSingleEntryManyOwners(t *testing.T) {
	ref := manifest.WorkflowRef{Module: "bmm", Name: "brainstorm", Path: "workflows/brainstorm/workflow.yaml"}

	m := newMaster()
	m.Merge(&manifest.Result{
		Agents: []manifest.AgentEntry{
			agent("bmm", "analyst", "project", ref),
			agent("bmm", "pm", "project", ref),
		},
		Workflows: []manifest.WorkflowEntry{{
			Module: "bmm", Name: "brainstorm", Standalone: true, Provenance: "project",
		}},
	})
	m.linkWorkflows()

	w, ok := m.Workflow("bmm", "brainstorm")
	require.True(t, ok)
	assert.True(t, w.Standalone)
	require.Len(t, w.OwningAgents, 2, "one entry owned by both agents, never duplicated")
	assert.Len(t, m.Workflows, 1)
}

func TestLinkWorkflowsCreatesMenuOnlyEntries(t *testing.T) {
	ref := manifest.WorkflowRef{Module: "bmm", Name: "secret", Path: "workflows/secret/workflow.yaml"}

	m := newMaster()
	m.Merge(&manifest.Result{Agents: []manifest.AgentEntry{agent("bmm", "analyst", "project", ref)}})
	m.linkWorkflows()

	w, ok := m.Workflow("bmm", "secret")
	require.True(t, ok)
	assert.False(t, w.Standalone, "menu-only entries are not standalone")
	require.Len(t, w.OwningAgents, 1)
	assert.Equal(t, "analyst", w.OwningAgents[0].Name)
}

func TestMergeSameProvenanceWorkflowConverges(t *testing.T) {
	m := newMaster()
	m.Merge(&manifest.Result{Workflows: []manifest.WorkflowEntry{
		{Module: "bmm", Name: "prd", Standalone: false, Provenance: "project"},
		{Module: "bmm", Name: "prd", Standalone: true, Description: "Write a PRD", Provenance: "project"},
	}})
	m.linkWorkflows()

	require.Len(t, m.Workflows, 1)
	w, _ := m.Workflow("bmm", "prd")
	assert.True(t, w.Standalone, "standalone-ness converges to true")
	assert.Equal(t, "Write a PRD", w.Description)
	assert.Empty(t, m.ShadowedWorkflows)
}

func TestMergeCrossSourceWorkflowShadows(t *testing.T) {
	m := newMaster()
	m.Merge(&manifest.Result{Workflows: []manifest.WorkflowEntry{
		{Module: "bmm", Name: "prd", Standalone: true, Provenance: "project"},
	}})
	m.Merge(&manifest.Result{Workflows: []manifest.WorkflowEntry{
		{Module: "bmm", Name: "prd", Standalone: true, Provenance: "git:up"},
	}})
	m.linkWorkflows()

	require.Len(t, m.Workflows, 1)
	require.Len(t, m.ShadowedWorkflows, 1)

	w, ok := m.WorkflowFromSource("git:up", "bmm", "prd")
	require.True(t, ok)
	assert.Equal(t, "git:up", w.Provenance)
}

func TestLookupsByBareName(t *testing.T) {
	m := newMaster()
	m.Merge(&manifest.Result{Agents: []manifest.AgentEntry{
		agent("bmm", "analyst", "project"),
		agent("cis", "analyst", "project"),
		agent("bmm", "pm", "project"),
	}})
	m.linkWorkflows()

	assert.Len(t, m.AgentsByName("analyst"), 2)
	assert.Len(t, m.AgentsByName("pm"), 1)
	assert.Empty(t, m.AgentsByName("ghost"))
	assert.Equal(t, []string{"bmm", "cis"}, m.Modules())
}

func TestRegistrySwap(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.Current(), "a fresh registry serves an empty build, never nil")
	assert.Empty(t, r.Current().Agents)

	m := newMaster()
	m.Merge(&manifest.Result{Agents: []manifest.AgentEntry{agent("bmm", "analyst", "project")}})
	m.linkWorkflows()
	r.Swap(m)

	assert.Len(t, r.Current().Agents, 1)
}
