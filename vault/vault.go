package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// MemoryVault holds every note a run can reference, keyed by name
// (graph.Vault's implementation).
type MemoryVault struct {
	mu        sync.RWMutex
	notes     map[string]*Note
	sanitizer *bluemonday.Policy
}

// NewMemoryVault returns an empty vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		notes:     map[string]*Note{},
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// AddNote inserts or replaces a note.
func (v *MemoryVault) AddNote(n *Note) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notes[n.Name] = n
}

// LoadDir walks dir for *.md files and adds each as a note named by its
// filename without extension, under a Folder set to its directory
// relative to dir.
func (v *MemoryVault) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		props, body, err := ParseFrontmatter(string(raw))
		if err != nil {
			return fmt.Errorf("vault: parsing frontmatter for %s: %w", path, err)
		}
		rel, _ := filepath.Rel(dir, filepath.Dir(path))
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		v.AddNote(&Note{Name: name, Folder: rel, Properties: props, Body: body})
		return nil
	})
}

// Note renders a note's markdown body to sanitized plain text (spec.md
// §4.8 note transclusion).
func (v *MemoryVault) Note(name string) (string, bool) {
	n := v.lookup(name)
	if n == nil {
		return "", false
	}
	return v.renderPlainText(n.Body), true
}

// NoteProperty returns a frontmatter property's raw string value.
func (v *MemoryVault) NoteProperty(name, key string) (string, bool) {
	n := v.lookup(name)
	if n == nil {
		return "", false
	}
	val, ok := n.Properties[key]
	return val, ok
}

// NoteFolder returns the note's containing folder.
func (v *MemoryVault) NoteFolder(name string) (string, bool) {
	n := v.lookup(name)
	if n == nil {
		return "", false
	}
	return n.Folder, true
}

// CreateNote adds a new note with raw markdown content and no frontmatter,
// as a ReferenceCreateNote node's behavior does when it writes its resolved
// text back into the vault (spec.md §4.6).
func (v *MemoryVault) CreateNote(name, content string) error {
	v.AddNote(&Note{Name: name, Body: content})
	return nil
}

func (v *MemoryVault) lookup(name string) *Note {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.notes[name]
}

// renderPlainText converts markdown to HTML (gomarkdown), strips it to
// sanitized HTML (bluemonday), then flattens that to plain text
// (goquery). Note applies it on every read; a Reference node's
// ShouldExtract flag is not consulted.
func (v *MemoryVault) renderPlainText(md string) string {
	exts := parser.CommonExtensions
	p := parser.NewWithExtensions(exts)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML([]byte(md), p, renderer)

	clean := v.sanitizer.SanitizeBytes(rendered)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(clean)))
	if err != nil {
		return strings.TrimSpace(string(clean))
	}
	return strings.TrimSpace(doc.Text())
}
