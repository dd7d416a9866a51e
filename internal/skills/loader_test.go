package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_RoundTrip(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".anuris_skills")
	writeSkill(t, hidden, "fix-bug.md", "---\ndescription: Fix a bug\ntags: debug,triage\naliases: bugfix\n---\nStep one.\nStep two.")

	loader := New(root)
	out := loader.Load("fix-bug")
	require.Contains(t, out, `<skill name="fix-bug">`)
	require.Contains(t, out, "Step one.")
	require.Contains(t, out, "Step two.")
}

func TestLoader_AliasResolution(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".anuris_skills")
	writeSkill(t, hidden, "fix-bug.md", "---\ndescription: Fix a bug\naliases: bugfix\n---\nBody")

	loader := New(root)
	require.Contains(t, loader.Load("bugfix"), "Body")
	require.Contains(t, loader.Load("bug-fix"), "Body") // token signature match
}

func TestLoader_HiddenDirPrecedence(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, ".anuris_skills"), "shared.md", "---\ndescription: hidden version\n---\nhidden body")
	writeSkill(t, filepath.Join(root, "skills"), "shared.md", "---\ndescription: visible version\n---\nvisible body")

	loader := New(root)
	require.Contains(t, loader.Load("shared"), "hidden body")
}

func TestLoader_UnknownNameReturnsError(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, ".anuris_skills"), "fix-bug.md", "---\ndescription: Fix a bug\n---\nBody")

	loader := New(root)
	out := loader.Load("fix-bgu") // close typo
	require.Contains(t, out, "Error: Unknown skill")
	require.Contains(t, out, "fix-bug")
}

func TestLoader_RefreshPicksUpNewFiles(t *testing.T) {
	root := t.TempDir()
	loader := New(root)
	require.Contains(t, loader.Load("new-skill"), "Error:")

	writeSkill(t, filepath.Join(root, ".anuris_skills"), "new-skill.md", "---\ndescription: New\n---\nNew body")
	require.Contains(t, loader.Load("new-skill"), "New body")
}
