package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HendryAvila/bmad-mcp/internal/installation"
)

// flatHeader is the exact agent-manifest.csv column set, in order. External
// tooling reads and writes this file directly, so the header is load-bearing.
var flatHeader = []string{"id", "name", "title", "display_name", "module", "role", "file", "workflows"}

// defaultModule is assigned to flat entries whose module column is empty.
const defaultModule = "core"

// ParseFlat parses a legacy flat installation: the CSV registry at the root
// plus the agent markdown files under agents/. CSV rows are the registry;
// the markdown files are authoritative for persona and menu content. Agent
// files present on disk but missing from the CSV are still included.
func ParseFlat(inst installation.Installation, provenance string) (*Result, error) {
	res := &Result{}

	f, err := os.Open(inst.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrManifestInvalid, inst.ManifestPath, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(flatHeader)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrManifestInvalid, inst.ManifestPath, err)
	}
	if len(records) == 0 || !headerMatches(records[0]) {
		return nil, fmt.Errorf("%w: %s header must be exactly %q",
			ErrManifestInvalid, inst.ManifestPath, strings.Join(flatHeader, ","))
	}

	referenced := make(map[string]bool)
	for _, row := range records[1:] {
		entry, filePath, ok := flatRowEntry(row, inst, provenance, res)
		if !ok {
			continue
		}
		if filePath != "" {
			referenced[filePath] = true
		}
		entry.Order = len(res.Agents)
		res.Agents = append(res.Agents, entry)
	}

	// Agent markdown files not listed in the CSV still count — the files
	// are the definitions, the CSV is only the registry view of them.
	for _, path := range agentFiles(inst.AgentsDir) {
		if referenced[path] {
			continue
		}
		entry, ok := ParseAgentFile(path, defaultModule, provenance, res)
		if !ok {
			continue
		}
		entry.Order = len(res.Agents)
		res.Agents = append(res.Agents, entry)
	}

	return res, nil
}

// flatRowEntry converts one CSV row into an AgentEntry, overlaying the
// referenced markdown file's embedded block when the file exists.
func flatRowEntry(row []string, inst installation.Installation, provenance string, res *Result) (AgentEntry, string, bool) {
	col := func(name string) string {
		for i, h := range flatHeader {
			if h == name {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	id, name, title, file := col("id"), col("name"), col("title"), col("file")
	if id == "" || name == "" || title == "" || file == "" {
		res.warnf(provenance, inst.ManifestPath,
			"agent row must declare id, name, title and file (id=%q name=%q title=%q file=%q)", id, name, title, file)
		return AgentEntry{}, "", false
	}

	module := col("module")
	if module == "" {
		module = defaultModule
	}

	filePath := filepath.Join(inst.Root, filepath.FromSlash(file))
	entry := AgentEntry{
		Module:      module,
		Name:        id,
		DisplayName: name,
		Title:       title,
		Role:        col("role"),
		FilePath:    filePath,
		Provenance:  provenance,
	}
	if dn := col("display_name"); dn != "" {
		entry.DisplayName = dn
	}

	for _, wf := range strings.Split(col("workflows"), ";") {
		wf = strings.TrimSpace(wf)
		if wf == "" {
			continue
		}
		entry.Workflows = append(entry.Workflows, WorkflowRef{
			Module: module,
			Name:   WorkflowNameFromPath(wf),
			Path:   wf,
		})
	}

	if _, err := os.Stat(filePath); err != nil {
		res.warnf(provenance, inst.ManifestPath, "agent %q references missing file %s", id, file)
		return entry, "", true
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		res.warnf(provenance, filePath, "reading agent file: %v", err)
		return entry, filePath, true
	}
	parsed, ok := parseAgentContent(raw, filePath, module, provenance, res)
	if ok {
		if parsed.Name != entry.Name {
			res.warnf(provenance, filePath, "agent id %q in file disagrees with CSV id %q; CSV wins", parsed.Name, entry.Name)
		}
		entry.Icon = parsed.Icon
		entry.Persona = parsed.Persona
		entry.Menu = parsed.Menu
		entry.WorkflowHandler = parsed.WorkflowHandler
		entry.Workflows = mergeRefs(entry.Workflows, parsed.Workflows)
	}
	return entry, filePath, true
}

// mergeRefs appends refs from b that a does not already declare (by name).
func mergeRefs(a, b []WorkflowRef) []WorkflowRef {
	seen := make(map[string]bool, len(a))
	for _, r := range a {
		seen[r.Name] = true
	}
	for _, r := range b {
		if !seen[r.Name] {
			seen[r.Name] = true
			a = append(a, r)
		}
	}
	return a
}

// agentFiles lists the markdown files directly under dir, sorted.
func agentFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files
}

func headerMatches(got []string) bool {
	if len(got) != len(flatHeader) {
		return false
	}
	for i, h := range flatHeader {
		if strings.TrimSpace(got[i]) != h {
			return false
		}
	}
	return true
}
