package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/bmad-mcp/internal/installation"
)

// modularManifest is _cfg/manifest.yaml. Field names are load-bearing.
type modularManifest struct {
	Version     string       `yaml:"version"`
	InstalledAt string       `yaml:"installed_at"`
	Modules     []moduleDecl `yaml:"modules"`
}

type moduleDecl struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// workflowManifest is one workflows/<name>/workflow.yaml file.
type workflowManifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Standalone  *bool  `yaml:"standalone"`
}

// ParseModular parses a modular installation: the _cfg/manifest.yaml module
// registry plus each module's agents/, workflows/ and tasks/ directories.
// Modules the manifest does not declare are discovered from the filesystem.
func ParseModular(inst installation.Installation, provenance string) (*Result, error) {
	res := &Result{}

	raw, err := os.ReadFile(inst.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrManifestInvalid, inst.ManifestPath, err)
	}
	var mf modularManifest
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrManifestInvalid, inst.ManifestPath, err)
	}
	if mf.Version == "" {
		res.warnf(provenance, inst.ManifestPath, "manifest declares no version")
	}

	for _, mod := range modules(inst.Root, mf, provenance, res) {
		parseModuleDir(inst.Root, mod, provenance, res)
	}
	return res, nil
}

// module is a resolved (name, directory) pair.
type module struct {
	Name string
	Dir  string
}

// modules returns the declared module list, falling back to filesystem
// discovery when the manifest declares none. Declared modules missing on
// disk are reported and skipped.
func modules(root string, mf modularManifest, provenance string, res *Result) []module {
	if len(mf.Modules) > 0 {
		var out []module
		for _, decl := range mf.Modules {
			if decl.Name == "" {
				res.warnf(provenance, "", "module declaration with empty name")
				continue
			}
			path := decl.Path
			if path == "" {
				path = decl.Name
			}
			dir := filepath.Join(root, filepath.FromSlash(path))
			if !isDir(dir) {
				res.warnf(provenance, dir, "declared module %q has no directory", decl.Name)
				continue
			}
			out = append(out, module{Name: decl.Name, Dir: dir})
		}
		return out
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		res.warnf(provenance, root, "listing modules: %v", err)
		return nil
	}
	var out []module
	for _, e := range entries {
		if !e.IsDir() || e.Name() == installation.ModularCfgDir || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if isDir(filepath.Join(dir, "agents")) || isDir(filepath.Join(dir, "workflows")) || isDir(filepath.Join(dir, "tasks")) {
			out = append(out, module{Name: e.Name(), Dir: dir})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func parseModuleDir(root string, mod module, provenance string, res *Result) {
	for _, path := range agentFiles(filepath.Join(mod.Dir, "agents")) {
		entry, ok := ParseAgentFile(path, mod.Name, provenance, res)
		if !ok {
			continue
		}
		entry.Order = len(res.Agents)
		res.Agents = append(res.Agents, entry)
	}

	workflowsDir := filepath.Join(mod.Dir, "workflows")
	if entries, err := os.ReadDir(workflowsDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(workflowsDir, e.Name(), "workflow.yaml")
			if _, err := os.Stat(path); err != nil {
				continue
			}
			wf, ok := parseWorkflowFile(path, e.Name(), mod.Name, provenance, res)
			if !ok {
				continue
			}
			wf.Order = len(res.Workflows)
			res.Workflows = append(res.Workflows, wf)
		}
	}

	tasksDir := filepath.Join(mod.Dir, "tasks")
	if entries, err := os.ReadDir(tasksDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			res.Tasks = append(res.Tasks, TaskEntry{
				Module:     mod.Name,
				Name:       name,
				FilePath:   filepath.Join(tasksDir, e.Name()),
				Provenance: provenance,
			})
		}
	}
}

// parseWorkflowFile reads a workflow.yaml. The name defaults to the
// directory name; standalone defaults to true.
func parseWorkflowFile(path, dirName, moduleName, provenance string, res *Result) (WorkflowEntry, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		res.warnf(provenance, path, "reading workflow manifest: %v", err)
		return WorkflowEntry{}, false
	}
	var wf workflowManifest
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		res.warnf(provenance, path, "parsing workflow manifest: %v", err)
		return WorkflowEntry{}, false
	}

	name := wf.Name
	if name == "" {
		name = dirName
	}
	standalone := true
	if wf.Standalone != nil {
		standalone = *wf.Standalone
	}

	return WorkflowEntry{
		Module:      moduleName,
		Name:        name,
		Description: wf.Description,
		Standalone:  standalone,
		FilePath:    path,
		Provenance:  provenance,
	}, true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
