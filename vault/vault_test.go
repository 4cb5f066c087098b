package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	raw := "---\ntitle: Example\ntags:\n  - a\n  - b\n---\n# Hello\n\nBody text.\n"
	props, body, err := ParseFrontmatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Example", props["title"])
	assert.Equal(t, "a, b", props["tags"])
	assert.Contains(t, body, "Body text.")
}

func TestParseFrontmatterNoneReturnsWholeBody(t *testing.T) {
	props, body, err := ParseFrontmatter("just markdown, no frontmatter")
	require.NoError(t, err)
	assert.Empty(t, props)
	assert.Equal(t, "just markdown, no frontmatter", body)
}

func TestMemoryVaultNoteRendersPlainText(t *testing.T) {
	v := NewMemoryVault()
	v.AddNote(&Note{Name: "Topic", Folder: "ideas", Properties: map[string]string{"status": "draft"}, Body: "# Title\n\nSome **bold** text."})

	text, ok := v.Note("Topic")
	require.True(t, ok)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "bold")
	assert.NotContains(t, text, "<")

	status, ok := v.NoteProperty("Topic", "status")
	require.True(t, ok)
	assert.Equal(t, "draft", status)

	folder, ok := v.NoteFolder("Topic")
	require.True(t, ok)
	assert.Equal(t, "ideas", folder)
}

func TestMemoryVaultUnknownNote(t *testing.T) {
	v := NewMemoryVault()
	_, ok := v.Note("missing")
	assert.False(t, ok)
}
