package transform

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"ubreader/internal/document"
)

// ErrInvalidDOCX is returned when the input is not a readable DOCX archive.
var ErrInvalidDOCX = errors.New("invalid docx document")

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*([1-6])$`)

type docxBody struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Style struct {
		Val string `xml:"val,attr"`
	} `xml:"pPr>pStyle"`
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

type docxCore struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

// DOCX transforms a Word document. Paragraphs styled HeadingN or Title
// become headings; everything else becomes a paragraph.
func (t *Transformer) DOCX(data []byte) (*document.TransformedDocument, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
	}

	bodyXML, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if bodyXML == nil {
		return nil, fmt.Errorf("%w: missing word/document.xml", ErrInvalidDOCX)
	}
	var body docxBody
	if err := xml.Unmarshal(bodyXML, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
	}

	root := document.NewRoot()
	for _, p := range body.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, txt := range r.Text {
				b.WriteString(txt.Content)
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		if depth := headingDepth(p.Style.Val); depth > 0 {
			root.Children = append(root.Children, document.Heading(depth, text))
			continue
		}
		root.Children = append(root.Children, document.Paragraph(document.Text(text)))
	}

	var meta document.Metadata
	// Missing or malformed core properties only cost metadata.
	if coreXML, err := readZipFile(reader, "docProps/core.xml"); err == nil && coreXML != nil {
		var core docxCore
		if xml.Unmarshal(coreXML, &core) == nil {
			meta.Title = strings.TrimSpace(core.Title)
			if creator := strings.TrimSpace(core.Creator); creator != "" {
				meta.Author = document.Author{creator}
			}
			meta.Date = strings.TrimSpace(core.Modified)
			if meta.Date == "" {
				meta.Date = strings.TrimSpace(core.Created)
			}
		}
	}
	if meta.Title == "" {
		meta.Title = firstHeading(root, 1)
	}

	doc := &document.TransformedDocument{
		Content:  root,
		Metadata: meta,
	}
	doc.HTML = t.renderTree(root)
	return t.finish(doc), nil
}

func headingDepth(style string) int {
	if strings.EqualFold(style, "title") {
		return 1
	}
	m := headingStyleRe.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	depth, _ := strconv.Atoi(m[1])
	return depth
}

// readZipFile returns nil, nil when name is absent.
func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
		}
		return content, nil
	}
	return nil, nil
}
