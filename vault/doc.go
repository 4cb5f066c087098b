// Package vault is the note store Reference-subtype content nodes and
// {{[[Note]]}} references read from (spec.md §4.7, §4.8). A Note is a
// markdown file with optional YAML frontmatter properties; MemoryVault
// renders a note's body to sanitized plain text on read, using
// gomarkdown for markdown→HTML and bluemonday+goquery to strip it back
// down to text once untrusted/auto-generated markdown has been sanitized.
package vault
