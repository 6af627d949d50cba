package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Author holds one or more author names. A single author marshals as a plain
// string and no author marshals as "".
type Author []string

// MarshalJSON implements json.Marshaler.
func (a Author) MarshalJSON() ([]byte, error) {
	switch len(a) {
	case 0:
		return []byte(`""`), nil
	case 1:
		return json.Marshal(a[0])
	default:
		return json.Marshal([]string(a))
	}
}

// UnmarshalJSON accepts either a string or a list of strings.
func (a *Author) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
		} else {
			*a = Author{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("author must be a string or list of strings: %w", err)
	}
	*a = Author(list)
	return nil
}

// String joins the names for display.
func (a Author) String() string {
	return strings.Join(a, ", ")
}

// Metadata describes a transformed document. Keys the transformer does not
// recognise are kept in Extra and flattened into the JSON object.
type Metadata struct {
	Title          string
	Subtitle       string
	Author         Author
	Date           string
	Categories     []string
	Tags           []string
	RelatedContent []string
	Type           string
	Extra          map[string]any
}

var metadataKeys = map[string]struct{}{
	"title": {}, "subtitle": {}, "author": {}, "date": {}, "categories": {},
	"tags": {}, "relatedContent": {}, "type": {},
}

// MarshalJSON implements json.Marshaler.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+8)
	for k, v := range m.Extra {
		if _, known := metadataKeys[k]; !known {
			out[k] = v
		}
	}
	out["title"] = m.Title
	if m.Subtitle != "" {
		out["subtitle"] = m.Subtitle
	}
	out["author"] = m.Author
	out["date"] = m.Date
	out["categories"] = nonNil(m.Categories)
	out["tags"] = nonNil(m.Tags)
	out["relatedContent"] = nonNil(m.RelatedContent)
	if m.Type != "" {
		out["type"] = m.Type
	}
	return json.Marshal(out)
}

// TransformedDocument is the canonical output of every transform path.
type TransformedDocument struct {
	Content  *Node    `json:"content"`
	Metadata Metadata `json:"metadata"`
	HTML     string   `json:"html"`
	// Text, when set, is the exact source input.
	Text string `json:"text,omitempty"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
