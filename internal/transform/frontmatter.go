package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ubreader/internal/document"
)

// FrontmatterMode selects how the leading --- block is interpreted.
type FrontmatterMode int

const (
	// FrontmatterFlat splits each line on its first colon. Flat scalar
	// frontmatter only: no lists, nesting or quoting.
	FrontmatterFlat FrontmatterMode = iota
	// FrontmatterYAML decodes the block as YAML so list values survive.
	FrontmatterYAML
)

// ParseFrontmatterMode maps "flat" and "yaml" to a mode.
func ParseFrontmatterMode(s string) (FrontmatterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return FrontmatterFlat, nil
	case "yaml":
		return FrontmatterYAML, nil
	}
	return FrontmatterFlat, fmt.Errorf("unknown frontmatter mode %q", s)
}

var frontmatterRe = regexp.MustCompile(`^---[ \t]*\r?\n(?:([\s\S]*?)\r?\n)?---[ \t]*(?:\r?\n|$)`)

// splitFrontmatter separates a leading --- block from the body. ok is false
// when the input has no complete block.
func splitFrontmatter(input string) (block, body string, ok bool) {
	m := frontmatterRe.FindStringSubmatchIndex(input)
	if m == nil {
		return "", input, false
	}
	if m[2] >= 0 {
		block = input[m[2]:m[3]]
	}
	return block, input[m[1]:], true
}

// parseFlat is the line/colon splitter. Lines without a colon are ignored.
func parseFlat(block string) map[string]any {
	out := make(map[string]any)
	for _, line := range strings.Split(block, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(line[idx+1:])
	}
	return out
}

func parseYAML(block string) (map[string]any, error) {
	out := make(map[string]any)
	if err := yaml.Unmarshal([]byte(block), &out); err != nil {
		return nil, fmt.Errorf("failed to parse yaml frontmatter: %w", err)
	}
	return out, nil
}

// metadataFromFields maps decoded frontmatter onto Metadata. List fields only
// populate when the value really is a list; anything else stays in Extra.
func metadataFromFields(fields map[string]any) document.Metadata {
	var m document.Metadata
	for key, raw := range fields {
		switch key {
		case "title":
			m.Title = asScalar(raw)
		case "subtitle":
			m.Subtitle = asScalar(raw)
		case "date":
			m.Date = asScalar(raw)
		case "type":
			m.Type = asScalar(raw)
		case "author":
			if items, ok := asList(raw); ok {
				m.Author = document.Author(items)
			} else if s := asScalar(raw); s != "" {
				m.Author = document.Author{s}
			}
		case "categories":
			if items, ok := asList(raw); ok {
				m.Categories = items
				continue
			}
			m.Extra = setExtra(m.Extra, key, raw)
		case "tags":
			if items, ok := asList(raw); ok {
				m.Tags = items
				continue
			}
			m.Extra = setExtra(m.Extra, key, raw)
		default:
			m.Extra = setExtra(m.Extra, key, raw)
		}
	}
	return m
}

func setExtra(extra map[string]any, key string, v any) map[string]any {
	if extra == nil {
		extra = make(map[string]any)
	}
	extra[key] = v
	return extra
}

func asScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func asList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, asScalar(item))
		}
		return out, true
	}
	return nil, false
}
