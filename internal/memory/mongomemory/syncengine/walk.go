package syncengine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
)

const (
	docSourceMemory   = docs.SourceMemory
	docSourceSessions = docs.SourceSessions
)

type memoryFileRef struct {
	relPath string
	absPath string
}

// enumerateMemoryFiles implements phase A: MEMORY.md, memory.md, and
// memory/**/*.md under the workspace, plus every configured extra path
// (a single .md file is included directly; a directory is walked
// recursively for .md files).
func (e *Engine) enumerateMemoryFiles() ([]memoryFileRef, error) {
	var refs []memoryFileRef
	seen := map[string]bool{}

	add := func(rel, abs string) {
		if seen[rel] {
			return
		}
		seen[rel] = true
		refs = append(refs, memoryFileRef{relPath: rel, absPath: abs})
	}

	for _, name := range []string{"MEMORY.md", "memory.md"} {
		abs := filepath.Join(e.deps.Workspace, name)
		if fileExists(abs) {
			add(name, abs)
		}
	}

	memDir := filepath.Join(e.deps.Workspace, "memory")
	if dirExists(memDir) {
		if err := walkMarkdown(memDir, func(abs string) {
			rel, err := filepath.Rel(e.deps.Workspace, abs)
			if err != nil {
				rel = abs
			}
			add(filepath.ToSlash(rel), abs)
		}); err != nil {
			return nil, err
		}
	}

	for _, extra := range e.deps.ExtraPaths {
		info, err := os.Stat(extra)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if err := walkMarkdown(extra, func(abs string) {
				add(filepath.ToSlash(abs), abs)
			}); err != nil {
				return nil, err
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(extra), ".md") {
			add(filepath.ToSlash(extra), extra)
		}
	}

	return refs, nil
}

func walkMarkdown(root string, visit func(absPath string)) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			visit(path)
		}
		return nil
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
