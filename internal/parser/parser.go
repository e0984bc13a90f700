// Package parser derives display metadata (title, tags) from item text.
//
// Notes are Markdown with optional YAML frontmatter; consoles and scripts
// are SQL where a leading line comment doubles as the title.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/models"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds metadata extracted from item text.
type Result struct {
	Title string
	Tags  []string
	Body  string
}

// Extract derives metadata from text according to the item kind. It never
// fails: malformed frontmatter is simply treated as body.
func Extract(kind models.ItemType, text string) *Result {
	switch kind {
	case models.ItemNote:
		return extractNote(text)
	default:
		return extractSQL(text)
	}
}

func extractNote(text string) *Result {
	fm, body := splitFrontmatter([]byte(text))
	return &Result{
		Title: noteTitle(fm, body),
		Tags:  noteTags(fm, body),
		Body:  body,
	}
}

// extractSQL treats a leading "--" comment line as the title, falling back
// to the first non-empty statement line.
func extractSQL(text string) *Result {
	title := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(trimmed, "--"); ok {
			title = strings.TrimSpace(rest)
			if title != "" {
				break
			}
			continue
		}
		title = truncate(trimmed, 80)
		break
	}
	return &Result{Title: title, Body: text}
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the body. Without frontmatter the whole text is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func noteTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"].(string); ok && t != "" {
			return t
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(trimmed, "# "); ok {
			return strings.TrimSpace(after)
		}
		if trimmed != "" {
			return truncate(trimmed, 80)
		}
	}
	return ""
}

func noteTags(fm map[string]any, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if fm != nil {
		if raw, ok := fm["tags"].([]any); ok {
			for _, item := range raw {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
