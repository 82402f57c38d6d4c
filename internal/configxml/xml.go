package configxml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ParseFragment parses a single-element XML snippet.
func ParseFragment(xml string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("parsing XML fragment: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("XML fragment has no element")
	}
	if n := len(doc.ChildElements()); n != 1 {
		return nil, fmt.Errorf("XML fragment has %d top-level elements, want 1", n)
	}
	return root, nil
}

// Canonical returns the identity string of e: the element serialized without
// whitespace-only text, with attributes in declaration order.
func Canonical(e *etree.Element) string {
	c := e.Copy()
	stripWhitespace(c)
	doc := etree.NewDocument()
	doc.SetRoot(c)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// CanonicalString parses xml and returns its canonical form.
func CanonicalString(xml string) (string, error) {
	e, err := ParseFragment(xml)
	if err != nil {
		return "", err
	}
	return Canonical(e), nil
}

func stripWhitespace(e *etree.Element) {
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch t := e.Child[i].(type) {
		case *etree.CharData:
			if t.IsWhitespace() {
				e.RemoveChildAt(i)
			}
		case *etree.Element:
			stripWhitespace(t)
		}
	}
}

// Selector is a parsed parent selector.
//
//	/*            the root element
//	/widget       the root element, if its tag is widget
//	/widget/a/b   a/b below the root, if its tag is widget
//	a/b           a/b below the root
type Selector struct {
	Raw     string
	RootTag string // "" for relative selectors, "*" for any root
	sub     *etree.Path
}

// ParseSelector validates selector syntax.
func ParseSelector(raw string) (Selector, error) {
	s := Selector{Raw: raw}
	sel := strings.TrimSpace(raw)
	if sel == "" {
		return s, fmt.Errorf("empty selector")
	}

	rest := sel
	if strings.HasPrefix(sel, "/") {
		parts := strings.SplitN(sel[1:], "/", 2)
		s.RootTag = parts[0]
		if s.RootTag == "" {
			return s, fmt.Errorf("selector %q has no root tag", raw)
		}
		if len(parts) == 1 || parts[1] == "" {
			return s, nil
		}
		rest = parts[1]
	}

	p, err := etree.CompilePath(rest)
	if err != nil {
		return s, fmt.Errorf("selector %q: %w", raw, err)
	}
	s.sub = &p
	return s, nil
}

// Resolve finds the element s selects in doc, or nil.
func (s Selector) Resolve(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	if s.RootTag != "" && s.RootTag != "*" && s.RootTag != root.Tag {
		return nil
	}
	if s.sub == nil {
		return root
	}
	return root.FindElementPath(*s.sub)
}

// DefaultRootTag returns the root tag to use when creating a document for
// this selector, or "" if the selector does not name one.
func (s Selector) DefaultRootTag() string {
	if s.RootTag == "" || s.RootTag == "*" {
		return ""
	}
	return s.RootTag
}

// FindChild returns the direct child of parent whose canonical form equals
// canonical, or nil.
func FindChild(parent *etree.Element, canonical string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if Canonical(child) == canonical {
			return child
		}
	}
	return nil
}

// Graft inserts a copy of node under parent unless an identical child is
// already present. after is a ';'-separated list of tags: the node goes
// right after the last child carrying the first tag in the list that is
// present, or first when none are. An empty after appends. Graft reports
// whether it inserted.
func Graft(parent, node *etree.Element, after string) bool {
	if FindChild(parent, Canonical(node)) != nil {
		return false
	}
	c := node.Copy()
	if after == "" {
		parent.AddChild(c)
		return true
	}
	parent.InsertChildAt(insertIndex(parent, after), c)
	return true
}

// Prune removes the first direct child of parent identical to node and
// reports whether one was removed.
func Prune(parent, node *etree.Element) bool {
	child := FindChild(parent, Canonical(node))
	if child == nil {
		return false
	}
	parent.RemoveChild(child)
	return true
}

func insertIndex(parent *etree.Element, after string) int {
	children := parent.ChildElements()
	for _, tag := range strings.Split(after, ";") {
		tag = strings.TrimSpace(tag)
		for i := len(children) - 1; i >= 0; i-- {
			if children[i].Tag == tag {
				return children[i].Index() + 1
			}
		}
	}
	return 0
}
