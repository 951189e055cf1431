package nfo

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Node is one member of an element's content.
type Node interface {
	writeTo(buf *bytes.Buffer)
}

// CharData is raw character data, stored unescaped.
type CharData string

// Comment preserves an XML comment through a rewrite.
type Comment string

// Element is one XML element with its attributes and ordered content.
// Character data and child elements keep their original interleaving so
// an unmodified document serializes back with its formatting intact.
type Element struct {
	Name  string
	Attrs []xml.Attr
	Nodes []Node
}

// Attr returns the value of the named attribute, or "".
func (e *Element) Attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Find returns the first direct child element with the given name.
func (e *Element) Find(name string) *Element {
	for _, n := range e.Nodes {
		if child, ok := n.(*Element); ok && child.Name == name {
			return child
		}
	}
	return nil
}

// Descendants returns every element with the given name anywhere below e.
func (e *Element) Descendants(name string) []*Element {
	var found []*Element
	for _, n := range e.Nodes {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		if child.Name == name {
			found = append(found, child)
		}
		found = append(found, child.Descendants(name)...)
	}
	return found
}

// Text returns the element's concatenated character data, trimmed.
func (e *Element) Text() string {
	var sb strings.Builder
	for _, n := range e.Nodes {
		if cd, ok := n.(CharData); ok {
			sb.WriteString(string(cd))
		}
	}
	return strings.TrimSpace(sb.String())
}

// SetText replaces the element's content with a single text node.
func (e *Element) SetText(text string) {
	e.Nodes = []Node{CharData(text)}
}

func (e *Element) writeTo(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
	for _, n := range e.Nodes {
		n.writeTo(buf)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
}

func (c CharData) writeTo(buf *bytes.Buffer) {
	buf.WriteString(escapeText(string(c)))
}

func (c Comment) writeTo(buf *bytes.Buffer) {
	buf.WriteString("<!--")
	buf.WriteString(string(c))
	buf.WriteString("-->")
}

// escapeText escapes markup characters without touching whitespace, so
// preserved formatting survives the round trip.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// parseElements reads every top-level element from data. Sidecars
// produced for multi-episode files carry several sibling roots, which
// the token scanner accepts without a wrapper.
func parseElements(data []byte) ([]*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var roots []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			// Declarations, directives, and inter-root whitespace
			// are dropped; output never carries a declaration.
			continue
		}
		elem, err := parseElement(dec, start)
		if err != nil {
			return nil, err
		}
		roots = append(roots, elem)
	}
	if len(roots) == 0 {
		return nil, &xml.SyntaxError{Msg: "no root element"}
	}
	return roots, nil
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	elem := &Element{Name: start.Name.Local}
	if len(start.Attr) > 0 {
		elem.Attrs = append(elem.Attrs, start.Attr...)
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			elem.Nodes = append(elem.Nodes, child)
		case xml.EndElement:
			return elem, nil
		case xml.CharData:
			elem.Nodes = append(elem.Nodes, CharData(t))
		case xml.Comment:
			elem.Nodes = append(elem.Nodes, Comment(t))
		}
	}
}
