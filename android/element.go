package android

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
)

// Element is one node of a manifest document: a tag, its attributes, and
// its children, all in emission order. Attribute order and child order are
// exactly insertion order, so identical inputs serialize byte-identically.
type Element struct {
	Tag      string
	Attrs    []xml.Attr
	Children []*Element
}

func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Attr appends an attribute. The zero value is never an attribute:
// callers represent "unset" by not calling Attr at all.
func (e *Element) Attr(name, value string) *Element {
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return e
}

func (e *Element) IntAttr(name string, value int) *Element {
	return e.Attr(name, strconv.Itoa(value))
}

func (e *Element) BoolAttr(name string, value bool) *Element {
	return e.Attr(name, strconv.FormatBool(value))
}

func (e *Element) Child(child *Element) *Element {
	e.Children = append(e.Children, child)
	return e
}

// Encode writes the element tree as indented XML with a document header.
func (e *Element) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := e.encode(enc); err != nil {
		return err
	}

	if err := enc.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

func (e *Element) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Tag}, Attr: e.Attrs}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	for _, child := range e.Children {
		if err := child.encode(enc); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// Bytes is Encode into memory.
func (e *Element) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.Encode(buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
