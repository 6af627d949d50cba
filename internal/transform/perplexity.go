package transform

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"ubreader/internal/document"
)

// DefaultPerplexityTitle is used when no question can be found.
const DefaultPerplexityTitle = "Perplexity Response"

var (
	blankLineRe   = regexp.MustCompile(`\n[ \t]*\n`)
	urlRe         = regexp.MustCompile(`https?://\S+`)
	sourcesLineRe = regexp.MustCompile(`(?i)^sources:\s*$`)
)

type perplexityJSON struct {
	Question string            `json:"question"`
	Response string            `json:"response"`
	Sources  []json.RawMessage `json:"sources"`
}

// perplexityResponse is the parsed form shared by the JSON and text inputs.
type perplexityResponse struct {
	question   string
	paragraphs []string
	sources    []string
}

// Perplexity transforms a Perplexity answer given either as JSON
// {question, response, sources} or as text: question line, blank line, body
// paragraphs, then a trailing "Sources:" block with one URL per line. The
// input is kept verbatim in Text.
func (t *Transformer) Perplexity(input string) *document.TransformedDocument {
	resp, ok := parsePerplexityJSON(input)
	if !ok {
		resp = parsePerplexityText(input)
	}

	title := resp.question
	if title == "" {
		title = DefaultPerplexityTitle
	}

	root := document.NewRoot(document.Heading(1, title))
	for _, p := range resp.paragraphs {
		root.Children = append(root.Children, document.Paragraph(document.Text(p)))
	}
	if len(resp.sources) > 0 {
		root.Children = append(root.Children, document.Heading(2, "Sources"))
		for _, src := range resp.sources {
			root.Children = append(root.Children, document.Paragraph(document.Link(src, src)))
		}
	}

	doc := &document.TransformedDocument{
		Content: root,
		Metadata: document.Metadata{
			Title:          title,
			Author:         document.Author{"Perplexity AI"},
			Date:           t.now().UTC().Format(time.RFC3339),
			Categories:     []string{"AI", "Perplexity"},
			Tags:           []string{"perplexity", "ai-response"},
			RelatedContent: nonNilSources(resp.sources),
		},
		Text: input,
	}
	doc.HTML = t.renderTree(root)
	return t.finish(doc)
}

func parsePerplexityJSON(input string) (perplexityResponse, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") {
		return perplexityResponse{}, false
	}
	var raw perplexityJSON
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return perplexityResponse{}, false
	}

	resp := perplexityResponse{
		question:   strings.TrimSpace(raw.Question),
		paragraphs: splitParagraphs(raw.Response),
	}
	for _, s := range raw.Sources {
		if url := sourceURL(s); url != "" {
			resp.sources = append(resp.sources, url)
		}
	}
	return resp, true
}

// sourceURL accepts either "https://..." or {"url": "https://..."}.
func sourceURL(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.URL)
	}
	return ""
}

func parsePerplexityText(input string) perplexityResponse {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	bodyEnd := len(lines)
	var sources []string
	for i := len(lines) - 1; i >= 0; i-- {
		if sourcesLineRe.MatchString(strings.TrimSpace(lines[i])) {
			bodyEnd = i
			sources = parseSources(lines[i+1:])
			break
		}
	}

	body := strings.TrimSpace(strings.Join(lines[:bodyEnd], "\n"))
	question, rest, _ := strings.Cut(body, "\n")
	return perplexityResponse{
		question:   strings.TrimSpace(question),
		paragraphs: splitParagraphs(rest),
		sources:    sources,
	}
}

// parseSources keeps the URL found on each line of a Sources block, so list
// markers and labels fall away. Lines without a URL are dropped.
func parseSources(lines []string) []string {
	var out []string
	for _, line := range lines {
		if url := urlRe.FindString(line); url != "" {
			out = append(out, url)
		}
	}
	return out
}

func splitParagraphs(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range blankLineRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonNilSources(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
