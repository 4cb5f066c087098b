package vault

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is one markdown file in the vault.
type Note struct {
	Name       string
	Folder     string
	Properties map[string]string
	Body       string // markdown content after the frontmatter block
}

const frontmatterDelim = "---"

// ParseFrontmatter splits raw into its YAML frontmatter properties (if
// any) and the remaining markdown body. A file with no leading "---"
// block returns an empty property map and the full input as body.
func ParseFrontmatter(raw string) (map[string]string, string, error) {
	trimmed := strings.TrimLeft(raw, "\n")
	if !strings.HasPrefix(trimmed, frontmatterDelim) {
		return map[string]string{}, raw, nil
	}

	rest := strings.TrimPrefix(trimmed, frontmatterDelim)
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return map[string]string{}, raw, nil
	}

	block := rest[:end]
	body := strings.TrimPrefix(rest[end+len("\n"+frontmatterDelim):], "\n")

	var raw2 map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw2); err != nil {
		return nil, "", err
	}
	props := make(map[string]string, len(raw2))
	for k, v := range raw2 {
		props[k] = toPropertyString(v)
	}
	return props, body, nil
}

func toPropertyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, toPropertyString(e))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := yaml.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
