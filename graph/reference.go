package graph

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Vault is the minimal note-store surface reference resolution needs;
// package vault's Vault type satisfies it. Kept as an interface here
// (rather than importing package vault) so graph has no dependency on
// note storage or markdown parsing.
type Vault interface {
	Note(name string) (content string, ok bool)
	NoteProperty(name, key string) (value string, ok bool)
	NoteFolder(name string) (folder string, ok bool)
	CreateNote(name, content string) error
}

// Note, NoteProperty, NoteFolder, and CreateNote expose the vault to
// Reference-subtype node behaviors (package node) without those
// behaviors needing access to RunContext's unexported vault field.
func (rc *RunContext) Note(name string) (string, bool) {
	if rc.vault == nil {
		return "", false
	}
	return rc.vault.Note(name)
}

func (rc *RunContext) NoteProperty(name, key string) (string, bool) {
	if rc.vault == nil {
		return "", false
	}
	return rc.vault.NoteProperty(name, key)
}

func (rc *RunContext) NoteFolder(name string) (string, bool) {
	if rc.vault == nil {
		return "", false
	}
	return rc.vault.NoteFolder(name)
}

func (rc *RunContext) CreateNote(name, content string) error {
	if rc.vault == nil {
		return ErrNoVault
	}
	return rc.vault.CreateNote(name, content)
}

// Variable looks up n's resolved dependency by edge name, the same
// lookup {{name}} tokens use.
func (rc *RunContext) Variable(n *Node, name string) (string, bool) {
	return rc.resolveVariable(n, name)
}

// Floating looks up a Floating node's value by its declared name.
func (rc *RunContext) Floating(name string) (string, bool) {
	return rc.resolveFloating(name)
}

// Selection returns the run's active-selection text (set via
// WithSelection) and whether one was configured.
func (rc *RunContext) Selection() (string, bool) {
	return rc.selection, rc.hasSelection
}

// WithSelection sets the text a Reference node of kind ReferenceSelection
// resolves to — the host application's current selection, captured once
// at Compile time (spec.md §3).
func WithSelection(text string) CompileOption {
	return func(rc *RunContext) { rc.selection, rc.hasSelection = text, true }
}

// WithVault attaches v so {{[[Note]]}}-style references resolve.
func WithVault(v Vault) CompileOption {
	return func(rc *RunContext) { rc.vault = v }
}

var refToken = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// ResolveReferences expands every {{...}} token in text against n's
// resolved variables, the active loop-index stack, floating values, and
// the vault (spec.md §4.8). Unresolvable tokens are left verbatim rather
// than erroring, since an author may intentionally emit literal braces.
func (rc *RunContext) ResolveReferences(ctx context.Context, n *Node, text string) string {
	return refToken.ReplaceAllStringFunc(text, func(tok string) string {
		inner := strings.TrimSpace(tok[2 : len(tok)-2])
		if v, ok := rc.resolveToken(ctx, n, inner); ok {
			return v
		}
		return tok
	})
}

func (rc *RunContext) resolveToken(ctx context.Context, n *Node, inner string) (string, bool) {
	switch {
	case inner == "#":
		return rc.loopIndexToken(ctx, false)
	case inner == "##":
		return rc.loopIndexToken(ctx, true)
	case strings.HasPrefix(inner, "@"):
		return rc.resolveNoteByVariable(n, strings.TrimPrefix(inner, "@"))
	case strings.HasPrefix(inner, "[["):
		return rc.resolveNote(inner)
	case strings.HasPrefix(inner, "["):
		return rc.resolveFloatingToken(inner)
	case strings.HasPrefix(inner, "NOTE"):
		return rc.resolveActiveNote(strings.TrimPrefix(inner, "NOTE"))
	default:
		return rc.resolveVariable(n, inner)
	}
}

// loopIndexToken resolves {{#}} (innermost enclosing loop's current
// index) or {{##}} (outermost). The stack is innermost-first (spec.md
// §4.8), so {{#}} is stack[0] and {{##}} is stack[len-1].
func (rc *RunContext) loopIndexToken(ctx context.Context, outermost bool) (string, bool) {
	stack := LoopStack(ctx)
	if len(stack) == 0 {
		return "", false
	}
	idx := stack[0]
	if outermost {
		idx = stack[len(stack)-1]
	}
	return strconv.Itoa(idx), true
}

// resolveFloating looks up a Floating node by its declared name.
func (rc *RunContext) resolveFloating(name string) (string, bool) {
	for _, fn := range rc.coll.Nodes {
		if fn.Subtype == NodeFloating && fn.FloatingName == name {
			return fn.FloatingValue, true
		}
	}
	return "", false
}

// resolveVariable looks up n's resolved dependency by edge name: the
// loaded content of whichever incoming (or enclosing-group-incoming)
// edge is named `name` — the same name resolution buildVertexDependencies
// used to build clusters, so a Choice cluster's winning branch is the
// one actually loaded.
func (rc *RunContext) resolveVariable(n *Node, name string) (string, bool) {
	check := func(ids []ID) (string, bool) {
		for _, eid := range ids {
			e := rc.coll.Edges[eid]
			if e == nil || e.Name() != name || !e.Loaded() {
				continue
			}
			return e.ContentString(), true
		}
		return "", false
	}
	if v, ok := check(n.Incoming); ok {
		return v, ok
	}
	for _, gid := range n.Enclosing {
		if g := rc.coll.Groups[gid]; g != nil {
			if v, ok := check(g.Incoming); ok {
				return v, ok
			}
		}
	}
	return "", false
}

// resolveNoteByVariable resolves {{@name}}: treat the named variable's
// resolved value as a note name and extract that note (spec.md §4.8).
func (rc *RunContext) resolveNoteByVariable(n *Node, name string) (string, bool) {
	if rc.vault == nil {
		return "", false
	}
	noteName, ok := rc.resolveVariable(n, name)
	if !ok {
		return "", false
	}
	return rc.vault.Note(noteName)
}

// resolveFloatingToken resolves {{[Name]}}: the content of the Floating
// (named-constant) node declared with that name.
func (rc *RunContext) resolveFloatingToken(inner string) (string, bool) {
	name, ok := bracketed(inner, "[", "]")
	if !ok {
		return "", false
	}
	return rc.resolveFloating(name)
}

// resolveNote resolves {{[[NoteName]]<mods>}}. Supported modifier
// suffixes: "<folder>" (the note's containing folder), "<PropertyKey>"
// (a frontmatter property), absent (the note's full content).
func (rc *RunContext) resolveNote(inner string) (string, bool) {
	if rc.vault == nil {
		return "", false
	}
	body, rest, ok := splitBracketed(inner, "[[", "]]")
	if !ok {
		return "", false
	}
	mod := strings.TrimSpace(rest)
	switch {
	case mod == "":
		return rc.vault.Note(body)
	case mod == "<folder>":
		return rc.vault.NoteFolder(body)
	case strings.HasPrefix(mod, "<") && strings.HasSuffix(mod, ">"):
		key := strings.TrimSuffix(strings.TrimPrefix(mod, "<"), ">")
		return rc.vault.NoteProperty(body, key)
	default:
		return "", false
	}
}

// resolveActiveNote resolves {{NOTE<mods>}}, the note the run itself is
// scoped to (set via WithActiveNote); mods follow the same grammar as
// resolveNote's suffix.
func (rc *RunContext) resolveActiveNote(mod string) (string, bool) {
	if rc.vault == nil || rc.activeNote == "" {
		return "", false
	}
	mod = strings.TrimSpace(mod)
	switch {
	case mod == "":
		return rc.vault.Note(rc.activeNote)
	case mod == "<folder>":
		return rc.vault.NoteFolder(rc.activeNote)
	case strings.HasPrefix(mod, "<") && strings.HasSuffix(mod, ">"):
		key := strings.TrimSuffix(strings.TrimPrefix(mod, "<"), ">")
		return rc.vault.NoteProperty(rc.activeNote, key)
	default:
		return "", false
	}
}

// WithActiveNote scopes {{NOTE}} references to noteName.
func WithActiveNote(noteName string) CompileOption {
	return func(rc *RunContext) { rc.activeNote = noteName }
}

func bracketed(s, open, close string) (string, bool) {
	if !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	return s[len(open) : len(s)-len(close)], true
}

// splitBracketed extracts the [[body]] portion and returns whatever text
// follows the closing bracket as rest.
func splitBracketed(s, open, close string) (body, rest string, ok bool) {
	if !strings.HasPrefix(s, open) {
		return "", "", false
	}
	end := strings.Index(s, close)
	if end < 0 {
		return "", "", false
	}
	return s[len(open):end], s[end+len(close):], true
}
