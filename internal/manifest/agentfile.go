package manifest

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// triggerPattern is the kebab-case shape every menu trigger must match.
var triggerPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// fencePattern matches fenced yaml code blocks in agent markdown.
var fencePattern = regexp.MustCompile("(?s)```ya?ml\\s*\n(.*?)\n```")

// agentBlock is the embedded structured block inside an agent markdown
// file. Field names are load-bearing — external tooling writes these files.
type agentBlock struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Title   string      `yaml:"title"`
	Icon    string      `yaml:"icon"`
	Persona Persona     `yaml:"persona"`
	Menu    []MenuEntry `yaml:"menu"`

	Handlers struct {
		Workflow string `yaml:"workflow"`
	} `yaml:"handlers"`
}

// ParseAgentFile reads an agent markdown file and extracts its embedded
// structured block. The returned AgentEntry has Module and Provenance left
// for the caller to fill. Validation violations are appended to res as
// warnings against the given provenance; an entry failing a required-field
// check returns ok=false and is reported, not silently dropped.
func ParseAgentFile(filePath, module, provenance string, res *Result) (AgentEntry, bool) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		res.warnf(provenance, filePath, "reading agent file: %v", err)
		return AgentEntry{}, false
	}
	return parseAgentContent(raw, filePath, module, provenance, res)
}

func parseAgentContent(raw []byte, filePath, module, provenance string, res *Result) (AgentEntry, bool) {
	block, err := extractAgentBlock(raw)
	if err != nil {
		res.warnf(provenance, filePath, "%v", err)
		return AgentEntry{}, false
	}

	if block.ID == "" || block.Name == "" || block.Title == "" {
		res.warnf(provenance, filePath, "agent must declare non-empty id, name and title (id=%q name=%q title=%q)",
			block.ID, block.Name, block.Title)
		return AgentEntry{}, false
	}

	entry := AgentEntry{
		Module:          module,
		Name:            block.ID,
		DisplayName:     block.Name,
		Title:           block.Title,
		Icon:            block.Icon,
		Role:            block.Persona.Role,
		FilePath:        filePath,
		Provenance:      provenance,
		Persona:         block.Persona,
		WorkflowHandler: block.Handlers.Workflow,
	}

	entry.Menu = validateMenu(block.Menu, filePath, provenance, res)
	for _, m := range entry.Menu {
		if m.Workflow == "" {
			continue
		}
		entry.Workflows = append(entry.Workflows, WorkflowRef{
			Module:  module,
			Name:    WorkflowNameFromPath(m.Workflow),
			Path:    m.Workflow,
			Trigger: m.Trigger,
		})
	}

	return entry, true
}

// extractAgentBlock finds the first fenced yaml block whose top-level key
// is "agent" and unmarshals it.
func extractAgentBlock(raw []byte) (*agentBlock, error) {
	for _, m := range fencePattern.FindAllSubmatch(raw, -1) {
		var doc struct {
			Agent *agentBlock `yaml:"agent"`
		}
		if err := yaml.Unmarshal(m[1], &doc); err != nil {
			return nil, fmt.Errorf("parsing embedded agent block: %w", err)
		}
		if doc.Agent != nil {
			return doc.Agent, nil
		}
	}
	return nil, fmt.Errorf("no embedded agent block found")
}

// validateMenu checks every menu entry's trigger shape, command target and
// trigger uniqueness. Invalid entries are reported and excluded; valid
// entries pass through unchanged.
func validateMenu(menu []MenuEntry, filePath, provenance string, res *Result) []MenuEntry {
	seen := make(map[string]bool, len(menu))
	var out []MenuEntry
	for _, m := range menu {
		switch {
		case !triggerPattern.MatchString(m.Trigger):
			res.warnf(provenance, filePath, "menu trigger %q is not kebab-case", m.Trigger)
		case !m.HasTarget():
			res.warnf(provenance, filePath, "menu trigger %q declares no command target", m.Trigger)
		case seen[m.Trigger]:
			res.warnf(provenance, filePath, "duplicate menu trigger %q", m.Trigger)
		default:
			seen[m.Trigger] = true
			out = append(out, m)
		}
	}
	return out
}

// WorkflowNameFromPath derives a workflow's registry name from its declared
// definition path: the name of the directory holding workflow.yaml.
func WorkflowNameFromPath(p string) string {
	p = strings.TrimSuffix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	dir, file := path.Split(p)
	if file == "workflow.yaml" || file == "workflow.yml" {
		return path.Base(strings.TrimSuffix(dir, "/"))
	}
	// A bare directory reference names the workflow directly.
	return strings.TrimSuffix(file, path.Ext(file))
}
