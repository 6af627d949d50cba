package document

// NodeType tags a Node. The set is open: converters pass structural node kinds
// they do not special-case through unchanged.
type NodeType string

const (
	NodeRoot       NodeType = "root"
	NodeHeading    NodeType = "heading"
	NodeParagraph  NodeType = "paragraph"
	NodeText       NodeType = "text"
	NodeLink       NodeType = "link"
	NodeImage      NodeType = "image"
	NodeCode       NodeType = "code"
	NodeInlineCode NodeType = "inlineCode"
	NodeList       NodeType = "list"
	NodeTable      NodeType = "table"

	// Structural kinds that carry no whitelisted attributes.
	NodeListItem      NodeType = "listItem"
	NodeTableRow      NodeType = "tableRow"
	NodeTableCell     NodeType = "tableCell"
	NodeEmphasis      NodeType = "emphasis"
	NodeStrong        NodeType = "strong"
	NodeDelete        NodeType = "delete"
	NodeBlockquote    NodeType = "blockquote"
	NodeThematicBreak NodeType = "thematicBreak"
	NodeBreak         NodeType = "break"
	NodeHTML          NodeType = "html"
)

// Node is one node of the canonical document tree. Children are owned by
// their parent; there are no back-references.
type Node struct {
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children,omitempty"`
	Value    string   `json:"value,omitempty"`

	// heading
	Depth int `json:"depth,omitempty"`

	// link, image
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Alt   string `json:"alt,omitempty"`

	// code
	Lang string `json:"lang,omitempty"`
	Meta string `json:"meta,omitempty"`

	// list
	Ordered bool `json:"ordered,omitempty"`
	Start   *int `json:"start,omitempty"`

	// table; "" means no alignment
	Align []string `json:"align,omitempty"`
}

// NewRoot returns an empty root node.
func NewRoot(children ...*Node) *Node {
	return &Node{Type: NodeRoot, Children: children}
}

// Text returns a text leaf.
func Text(value string) *Node {
	return &Node{Type: NodeText, Value: value}
}

// Heading returns a heading with a single text child.
func Heading(depth int, value string) *Node {
	return &Node{Type: NodeHeading, Depth: depth, Children: []*Node{Text(value)}}
}

// Paragraph returns a paragraph wrapping the given children.
func Paragraph(children ...*Node) *Node {
	return &Node{Type: NodeParagraph, Children: children}
}

// Link returns a link whose visible text is label.
func Link(url, label string) *Node {
	return &Node{Type: NodeLink, URL: url, Children: []*Node{Text(label)}}
}

// Walk visits n and its descendants depth-first in document order. When fn
// returns false the walk stops and Walk returns false up the call chain.
func Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// TextContent concatenates the values of n's descendants in order.
func TextContent(n *Node) string {
	var b []byte
	Walk(n, func(node *Node) bool {
		b = append(b, node.Value...)
		return true
	})
	return string(b)
}
