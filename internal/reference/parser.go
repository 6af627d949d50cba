// Package reference finds "Paper N, Section M" and "N:M" citations in plain
// text and turns them into reader links.
package reference

import (
	"fmt"
	"html"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// DefaultBaseURL is the reader route prefix used when none is given.
const DefaultBaseURL = "/reader"

// TypePaperSection is the only reference kind produced today.
const TypePaperSection = "paper-section"

var (
	paperSectionRe = regexp.MustCompile(`(?i)Paper\s+(\d+),\s*Section\s+(\d+)`)
	// Also matches unrelated numeric pairs such as times ("3:45").
	colonRe = regexp.MustCompile(`\b(\d+):(\d+)\b`)
)

// Position is a half-open byte range [Start, End) into the parsed text.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is one citation found in a text buffer. Positions are only valid
// for the exact buffer that was parsed.
type Reference struct {
	Type         string   `json:"type"`
	Paper        int      `json:"paper"`
	Section      int      `json:"section"`
	OriginalText string   `json:"originalText"`
	Position     Position `json:"position"`
}

// Parse returns every paper/section phrase followed by every N:M token. The
// two match lists are concatenated without de-duplication.
func Parse(text string) []Reference {
	refs := collect(text, paperSectionRe, nil)
	return collect(text, colonRe, refs)
}

func collect(text string, re *regexp.Regexp, refs []Reference) []Reference {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		paper, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		section, err := strconv.Atoi(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		refs = append(refs, Reference{
			Type:         TypePaperSection,
			Paper:        paper,
			Section:      section,
			OriginalText: text[m[0]:m[1]],
			Position:     Position{Start: m[0], End: m[1]},
		})
	}
	return refs
}

// URL returns the reader URL for ref under baseURL.
func URL(ref Reference, baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s/paper/%d/section/%d", baseURL, ref.Paper, ref.Section)
}

// Anchor renders ref as a reader link.
func Anchor(ref Reference, baseURL string) string {
	return fmt.Sprintf(`<a href="%s" class="ub-reference">%s</a>`,
		html.EscapeString(URL(ref, baseURL)), ref.OriginalText)
}

// Format renders the canonical phrase for a paper and section.
func Format(paper, section int) string {
	return fmt.Sprintf("Paper %d, Section %d", paper, section)
}

// Linkable returns the references that substitution keeps, in ascending
// position order. Matches are taken right to left and a match overlapping one
// already taken is dropped.
func Linkable(text string) []Reference {
	refs := Parse(text)
	if len(refs) == 0 {
		return nil
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Position.Start > refs[j].Position.Start
	})

	kept := refs[:0]
	limit := len(text)
	for _, ref := range refs {
		if ref.Position.End > limit {
			continue
		}
		kept = append(kept, ref)
		limit = ref.Position.Start
	}
	slices.Reverse(kept)
	return kept
}

// ReplaceWithLinks substitutes every reference in text with its anchor.
// Text without references is returned unchanged.
func ReplaceWithLinks(text, baseURL string) string {
	return substitute(text, baseURL, func(s string) string { return s })
}

// LinkHTML HTML-escapes plain text and links its references. Use it for text
// that is about to be placed inside an HTML element.
func LinkHTML(text, baseURL string) string {
	return substitute(text, baseURL, html.EscapeString)
}

func substitute(text, baseURL string, escape func(string) string) string {
	refs := Linkable(text)
	if len(refs) == 0 {
		return escape(text)
	}

	var b strings.Builder
	last := 0
	for _, ref := range refs {
		b.WriteString(escape(text[last:ref.Position.Start]))
		ref.OriginalText = escape(ref.OriginalText)
		b.WriteString(Anchor(ref, baseURL))
		last = ref.Position.End
	}
	b.WriteString(escape(text[last:]))
	return b.String()
}

// Linker binds a base URL for repeated use.
type Linker struct {
	BaseURL string
}

// NewLinker creates a Linker; an empty baseURL selects DefaultBaseURL.
func NewLinker(baseURL string) *Linker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Linker{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Parse returns the references in text.
func (l *Linker) Parse(text string) []Reference {
	return Parse(text)
}

// URL returns the reader URL for ref.
func (l *Linker) URL(ref Reference) string {
	return URL(ref, l.BaseURL)
}

// Link substitutes references in text with anchors.
func (l *Linker) Link(text string) string {
	return ReplaceWithLinks(text, l.BaseURL)
}

// LinkText escapes plain text for HTML and links its references.
func (l *Linker) LinkText(text string) string {
	return LinkHTML(text, l.BaseURL)
}
