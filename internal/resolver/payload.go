package resolver

import (
	"fmt"
	"os"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/manifest"
)

// Activation is the rendered payload returned by an execute-class
// resolution. Content is what the client is expected to adopt (agent
// persona) or follow (workflow instructions).
type Activation struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// agentActivation renders an agent's persona and menu plus its definition
// file. A missing or unreadable definition file degrades to the parsed
// metadata — activation never fails on I/O.
func (e *Engine) agentActivation(a *manifest.AgentEntry) *Activation {
	var b strings.Builder

	heading := a.Title
	if heading == "" {
		heading = a.Name
	}
	if a.Icon != "" {
		heading = a.Icon + " " + heading
	}
	fmt.Fprintf(&b, "# %s (%s)\n\n", heading, a.Key())
	if a.DisplayName != "" {
		fmt.Fprintf(&b, "Known as %s.\n\n", a.DisplayName)
	}

	p := a.Persona
	if p.Role != "" || p.Identity != "" || p.CommunicationStyle != "" || len(p.Principles) > 0 {
		b.WriteString("## Persona\n\n")
		writeField(&b, "Role", p.Role)
		writeField(&b, "Identity", p.Identity)
		writeField(&b, "Communication style", p.CommunicationStyle)
		if len(p.Principles) > 0 {
			b.WriteString("Principles:\n")
			for _, pr := range p.Principles {
				fmt.Fprintf(&b, "- %s\n", pr)
			}
		}
		b.WriteString("\n")
	} else if a.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n\n", a.Role)
	}

	if len(a.Menu) > 0 {
		b.WriteString("## Menu\n\n")
		for _, m := range a.Menu {
			fmt.Fprintf(&b, "- *%s — %s\n", m.Trigger, menuLine(m))
		}
		b.WriteString("\n")
	}

	if body := e.readDefinition(a.FilePath, a.Key()); body != "" {
		b.WriteString("## Definition\n\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}

	b.WriteString("\nAdopt this persona for the remainder of the session and offer the menu commands above.\n")

	return &Activation{
		Kind:    KindAgent,
		Key:     a.Key(),
		Title:   a.Title,
		Content: b.String(),
	}
}

// workflowActivation renders a workflow's definition and, when an owning
// agent carries workflow handler instructions, appends them verbatim so the
// client executes the workflow the way its agent would.
func (e *Engine) workflowActivation(w *manifest.WorkflowEntry) *Activation {
	var b strings.Builder

	fmt.Fprintf(&b, "# Workflow %s\n\n", w.Key())
	if w.Description != "" {
		b.WriteString(w.Description)
		b.WriteString("\n\n")
	}
	if !w.Standalone {
		b.WriteString("This workflow is menu-only: it is normally launched from its owning agent's menu.\n\n")
	}

	if body := e.readDefinition(w.FilePath, w.Key()); body != "" {
		b.WriteString("## Definition\n\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if handler, owner := e.handlerFor(w); handler != "" {
		fmt.Fprintf(&b, "## Handler instructions (from %s)\n\n", owner)
		b.WriteString(handler)
		if !strings.HasSuffix(handler, "\n") {
			b.WriteString("\n")
		}
	}

	return &Activation{
		Kind:    KindWorkflow,
		Key:     w.Key(),
		Title:   w.Name,
		Content: b.String(),
	}
}

// handlerFor returns the first owning agent's workflow handler instructions.
// Owners are checked in declaration order.
func (e *Engine) handlerFor(w *manifest.WorkflowEntry) (handler, owner string) {
	m := e.registry.Current()
	for _, ref := range w.OwningAgents {
		a, ok := m.Agent(ref.Module, ref.Name)
		if ok && a.WorkflowHandler != "" {
			return a.WorkflowHandler, a.Key()
		}
	}
	return "", ""
}

func (e *Engine) readDefinition(path, key string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("definition file unreadable, activating from parsed metadata")
		return ""
	}
	return string(data)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func menuLine(m manifest.MenuEntry) string {
	desc := m.Description
	target := ""
	switch {
	case m.Workflow != "":
		target = "workflow " + m.Workflow
	case m.Exec != "":
		target = "exec " + m.Exec
	case m.Action != "":
		target = "action " + m.Action
	case m.Template != "":
		target = "template " + m.Template
	case m.Data != "":
		target = "data " + m.Data
	case m.ValidateWorkflow != "":
		target = "validate " + m.ValidateWorkflow
	}
	if desc == "" {
		return target
	}
	if target == "" {
		return desc
	}
	return desc + " (" + target + ")"
}
