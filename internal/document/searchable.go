package document

import (
	"encoding/json"
	"fmt"
)

// DocType classifies a searchable document.
type DocType string

const (
	TypeScientific DocType = "scientific"
	TypePerplexity DocType = "perplexity"
	TypeLectionary DocType = "lectionary"
	TypePost       DocType = "post"
)

// ParseDocType reports whether s names one of the recognised document types.
func ParseDocType(s string) (DocType, bool) {
	switch DocType(s) {
	case TypeScientific, TypePerplexity, TypeLectionary, TypePost:
		return DocType(s), true
	}
	return "", false
}

// SearchableDocument is the flat record the search engine indexes. The full
// collection is persisted as a JSON array.
type SearchableDocument struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Excerpt     string         `json:"excerpt"`
	Type        DocType        `json:"type"`
	Metadata    SearchMetadata `json:"metadata"`
	Path        string         `json:"path"`
	LastUpdated string         `json:"lastUpdated"`
}

// SearchMetadata is the metadata projection stored with a searchable
// document. Categories and Tags are never nil after indexing.
type SearchMetadata struct {
	Author     Author
	Date       string
	Categories []string
	Tags       []string
	Extra      map[string]any
}

// Field returns the metadata value stored under key, using []string for the
// list fields and string for scalar ones.
func (m SearchMetadata) Field(key string) (any, bool) {
	switch key {
	case "author":
		if len(m.Author) == 1 {
			return m.Author[0], true
		}
		if len(m.Author) == 0 {
			return "", true
		}
		return []string(m.Author), true
	case "date":
		return m.Date, true
	case "categories":
		return m.Categories, true
	case "tags":
		return m.Tags, true
	}
	v, ok := m.Extra[key]
	return v, ok
}

// MarshalJSON implements json.Marshaler.
func (m SearchMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["author"] = m.Author
	out["date"] = m.Date
	out["categories"] = nonNil(m.Categories)
	out["tags"] = nonNil(m.Tags)
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *SearchMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = SearchMetadata{}
	for k, v := range raw {
		var err error
		switch k {
		case "author":
			err = json.Unmarshal(v, &m.Author)
		case "date":
			err = json.Unmarshal(v, &m.Date)
		case "categories":
			m.Categories = stringList(v)
		case "tags":
			m.Tags = stringList(v)
		default:
			var anyV any
			if err = json.Unmarshal(v, &anyV); err == nil {
				if m.Extra == nil {
					m.Extra = make(map[string]any)
				}
				m.Extra[k] = anyV
			}
		}
		if err != nil {
			return fmt.Errorf("metadata %s: %w", k, err)
		}
	}
	m.Categories = nonNil(m.Categories)
	m.Tags = nonNil(m.Tags)
	return nil
}

// stringList decodes a JSON array of strings, treating anything else as empty.
func stringList(data json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return []string{}
	}
	return list
}
