package mongomemory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceLinesFromStart(t *testing.T) {
	text := "one\ntwo\nthree\nfour"
	assert.Equal(t, "one\ntwo", sliceLines(text, 0, 2))
}

func TestSliceLinesFromOffset(t *testing.T) {
	text := "one\ntwo\nthree\nfour"
	assert.Equal(t, "three\nfour", sliceLines(text, 3, 0))
}

func TestSliceLinesOffsetBeyondEnd(t *testing.T) {
	text := "one\ntwo"
	assert.Equal(t, "", sliceLines(text, 10, 5))
}

func TestSliceLinesCountClampedToEnd(t *testing.T) {
	text := "one\ntwo\nthree"
	assert.Equal(t, "two\nthree", sliceLines(text, 2, 100))
}

func TestWithinAcceptsDescendant(t *testing.T) {
	assert.True(t, within("/workspace", "/workspace/notes/MEMORY.md"))
}

func TestWithinRejectsEscape(t *testing.T) {
	assert.False(t, within("/workspace", "/etc/passwd"))
}

func TestWithinRejectsSibling(t *testing.T) {
	assert.False(t, within("/workspace/a", "/workspace/b/MEMORY.md"))
}

func TestResolveReadPathRejectsNonMarkdown(t *testing.T) {
	m := &Manager{workspace: t.TempDir()}
	_, err := m.resolveReadPath("notes.txt")
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestResolveReadPathRejectsEmpty(t *testing.T) {
	m := &Manager{workspace: t.TempDir()}
	_, err := m.resolveReadPath("")
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestResolveReadPathWithinWorkspace(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "MEMORY.md"), []byte("x"), 0o644))

	m := &Manager{workspace: workspace}
	path, err := m.resolveReadPath("MEMORY.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "MEMORY.md"), path)
}

func TestResolveReadPathFallsBackToExtraPathWhenAbsentFromWorkspace(t *testing.T) {
	workspace := t.TempDir()
	extra := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(extra, "guide.md"), []byte("x"), 0o644))

	m := &Manager{workspace: workspace, extraPaths: []string{extra}}
	path, err := m.resolveReadPath("guide.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extra, "guide.md"), path)
}

func TestResolveReadPathRejectsEscapeAttempt(t *testing.T) {
	m := &Manager{workspace: t.TempDir()}
	_, err := m.resolveReadPath("../../etc/passwd.md")
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestResolveReadPathRejectsWhenFileMissingEverywhere(t *testing.T) {
	m := &Manager{workspace: t.TempDir(), extraPaths: []string{t.TempDir()}}
	_, err := m.resolveReadPath("missing.md")
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestResolveReadPathMatchesAbsoluteExtraFile(t *testing.T) {
	extra := filepath.Join(t.TempDir(), "standalone-notes.md")
	require.NoError(t, os.WriteFile(extra, []byte("x"), 0o644))

	m := &Manager{workspace: t.TempDir(), extraPaths: []string{extra}}
	path, err := m.resolveReadPath(extra)
	require.NoError(t, err)
	assert.Equal(t, extra, path)
}

func TestReadFileNoSymlinkReadsRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MEMORY.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	text, err := readFileNoSymlink(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestReadFileNoSymlinkRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.md")
	require.NoError(t, os.WriteFile(target, []byte("secret"), 0o644))
	link := filepath.Join(dir, "link.md")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	_, err := readFileNoSymlink(link)
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestReadFileNoSymlinkRejectsMissingFile(t *testing.T) {
	_, err := readFileNoSymlink(filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorIs(t, err, ErrPathNotAllowed)
}

func TestKBChunkConfigUsesKBDefaultsWhenUnset(t *testing.T) {
	m := &Manager{}
	cfg := m.kbChunkConfig()
	assert.Equal(t, 600, cfg.WindowTokens)
	assert.Equal(t, 100, cfg.OverlapTokens)
}

func TestKBChunkConfigHonorsOverrides(t *testing.T) {
	m := &Manager{}
	m.cfg.KB.Chunking.Tokens = 800
	m.cfg.KB.Chunking.Overlap = 150
	cfg := m.kbChunkConfig()
	assert.Equal(t, 800, cfg.WindowTokens)
	assert.Equal(t, 150, cfg.OverlapTokens)
}
