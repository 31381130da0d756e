// Package xml parses SUNAT UBL 2.1 documents (Invoice, CreditNote,
// DebitNote) into the canonical model.
//
// Issuers emit structurally divergent XML: namespace prefixes vary,
// scalar fields may appear bare, attribute-wrapped or repeated, and
// derivable numeric fields are often missing. The package therefore
// parses into a closed dynamic tree (Node) instead of fixed structs,
// and resolves every field through total extraction primitives.
package xml

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"

	"github.com/rezonia/ubl-ingest/internal/model"
)

// NodeKind discriminates the Node variant.
type NodeKind int

const (
	KindAbsent NodeKind = iota
	KindScalar
	KindSequence
	KindMapping
)

// textKey is the mapping key holding element text when it coexists with
// attributes or child elements.
const textKey = "#text"

// Node is one vertex of the parsed tree: a scalar, an ordered sequence,
// or a keyed mapping. A nil *Node is the absent value; every method is
// safe on it.
type Node struct {
	kind NodeKind
	text string
	seq  []*Node
	keys []string
	vals map[string]*Node
}

// Scalar builds a scalar node. Used by tests and by tree construction.
func Scalar(text string) *Node {
	return &Node{kind: KindScalar, text: text}
}

// Sequence builds a sequence node over the given items.
func Sequence(items ...*Node) *Node {
	return &Node{kind: KindSequence, seq: items}
}

// Mapping builds a mapping node from alternating key/value pairs,
// preserving key order.
func Mapping(pairs ...any) *Node {
	n := &Node{kind: KindMapping, vals: map[string]*Node{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		val := pairs[i+1].(*Node)
		n.put(key, val)
	}
	return n
}

func (n *Node) put(key string, val *Node) {
	if _, dup := n.vals[key]; !dup {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = val
}

// Kind returns the variant; nil nodes are KindAbsent.
func (n *Node) Kind() NodeKind {
	if n == nil {
		return KindAbsent
	}
	return n.kind
}

// IsAbsent reports whether the node carries no value at all.
func (n *Node) IsAbsent() bool {
	return n.Kind() == KindAbsent
}

// Get returns the value under key for mappings, nil for everything else.
func (n *Node) Get(key string) *Node {
	if n.Kind() != KindMapping {
		return nil
	}
	return n.vals[key]
}

// At walks a chain of mapping keys, returning nil as soon as a step is
// absent.
func (n *Node) At(path ...string) *Node {
	cur := n
	for _, key := range path {
		cur = cur.Get(key)
	}
	return cur
}

// Keys returns the mapping keys in document order.
func (n *Node) Keys() []string {
	if n.Kind() != KindMapping {
		return nil
	}
	return n.keys
}

// Items returns the elements of a sequence node.
func (n *Node) Items() []*Node {
	if n.Kind() != KindSequence {
		return nil
	}
	return n.seq
}

// Parse reads raw XML bytes into a tree whose single top-level key is
// the root element name, prefix included when the source carried one.
// A leading BOM is tolerated.
func Parse(data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, model.NewParseError("", "xml", "malformed XML", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError("", "xml", "document has no root element", nil)
	}
	return Mapping(fullTag(root.Space, root.Tag), fromElement(root)), nil
}

func fullTag(space, tag string) string {
	if space == "" {
		return tag
	}
	return space + ":" + tag
}

// fromElement converts an etree element. Leaf elements without
// attributes collapse to scalars; attributes become mapping keys;
// repeated same-name children fold into a sequence, mirroring the shape
// issuers' tooling produces from the same documents.
func fromElement(el *etree.Element) *Node {
	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())

	if len(children) == 0 && len(el.Attr) == 0 {
		return Scalar(text)
	}

	n := Mapping()
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		n.put(fullTag(a.Space, a.Key), Scalar(a.Value))
	}
	if text != "" {
		n.put(textKey, Scalar(text))
	}
	for _, child := range children {
		key := fullTag(child.Space, child.Tag)
		converted := fromElement(child)
		switch existing := n.vals[key]; {
		case existing == nil:
			n.put(key, converted)
		case existing.kind == KindSequence:
			existing.seq = append(existing.seq, converted)
		default:
			n.vals[key] = Sequence(existing, converted)
		}
	}
	return n
}

// Denamespace returns a copy of the tree with every mapping key's
// namespace prefix (the part before the first ':') removed. Scalars pass
// through unchanged; the function is total.
func Denamespace(n *Node) *Node {
	switch n.Kind() {
	case KindSequence:
		items := make([]*Node, len(n.seq))
		for i, item := range n.seq {
			items[i] = Denamespace(item)
		}
		return Sequence(items...)
	case KindMapping:
		out := Mapping()
		for _, key := range n.keys {
			out.put(localName(key), Denamespace(n.vals[key]))
		}
		return out
	default:
		return n
	}
}

// localName strips the namespace prefix from a key.
func localName(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}
