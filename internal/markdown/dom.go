package markdown

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element wraps an HTML node with the small DOM surface post-processors
// need: child-element creation, selector lookup, text and attribute
// access.
type Element struct {
	node *html.Node
}

// ParseFragment parses an HTML fragment into a detached root element.
// The root itself is a synthetic container; Render emits only its
// children.
func ParseFragment(fragment string) (*Element, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Element{node: root}, nil
}

// Render serializes the element's children back to HTML.
func (e *Element) Render() (string, error) {
	var sb strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// CreateEl appends a new child element with the given tag and optional
// class, and returns it.
func (e *Element) CreateEl(tag, class string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	e.node.AppendChild(n)
	return &Element{node: n}
}

// SetText replaces the element's content with a single text node.
func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return sb.String()
}

// Attr returns the value of an attribute, or "" if absent.
func (e *Element) Attr(key string) string {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.node.Attr {
		if a.Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the element carries the class.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class to the element.
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	existing := e.Attr("class")
	if existing == "" {
		e.SetAttr("class", class)
		return
	}
	e.SetAttr("class", existing+" "+class)
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() *Element {
	if e.node.Parent == nil {
		return nil
	}
	return &Element{node: e.node.Parent}
}

// Children returns the element's direct child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{node: c})
		}
	}
	return out
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// QuerySelectorAll returns all descendant elements matching a simple
// selector: "tag", ".class", or "tag.class". Compound and descendant
// selectors are not supported.
func (e *Element) QuerySelectorAll(selector string) []*Element {
	tag, class := splitSelector(selector)

	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				el := &Element{node: c}
				if (tag == "" || c.Data == tag) && (class == "" || el.HasClass(class)) {
					out = append(out, el)
				}
			}
			walk(c)
		}
	}
	walk(e.node)
	return out
}

// splitSelector breaks "tag.class" into its parts; either may be empty.
func splitSelector(selector string) (tag, class string) {
	selector = strings.TrimSpace(selector)
	if i := strings.IndexByte(selector, '.'); i >= 0 {
		return selector[:i], selector[i+1:]
	}
	return selector, ""
}
