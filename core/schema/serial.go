package schema

import (
	"strconv"

	"github.com/sifria/mareh/core/address"
	"github.com/sifria/mareh/core/errors"
)

// SerialNode is the JSON document form of a schema node, as persisted in
// catalog records. A node carries either child nodes or a content
// declaration (nodeType plus nodeParameters), never both.
type SerialNode struct {
	Key         string            `json:"key,omitempty"`
	Titles      []Title           `json:"titles,omitempty"`
	SharedTitle string            `json:"sharedTitle,omitempty"`
	Default     bool              `json:"default,omitempty"`
	CheckFirst  map[string]string `json:"checkFirst,omitempty"`

	Nodes []*SerialNode `json:"nodes,omitempty"`

	NodeType       string        `json:"nodeType,omitempty"`
	NodeParameters *SerialParams `json:"nodeParameters,omitempty"`
}

// SerialParams holds a content node's addressing parameters.
type SerialParams struct {
	Depth        int      `json:"depth"`
	AddressTypes []string `json:"addressTypes"`
	SectionNames []string `json:"sectionNames"`
	Lengths      []int    `json:"lengths,omitempty"`
}

// Node type tags used in schema documents.
const (
	NodeTypeJaggedArray = "JaggedArrayNode"
	NodeTypeString      = "StringNode"
)

// Build constructs the node tree described by the document. terms resolves
// sharedTitle references; it may be nil when the document uses none.
func Build(doc *SerialNode, terms TermResolver) (Node, error) {
	node, err := build(doc, terms, "root")
	if err != nil {
		return nil, err
	}
	if err := Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}

func build(doc *SerialNode, terms TermResolver, path string) (Node, error) {
	if doc == nil {
		return nil, &errors.SchemaError{Path: path, Message: "missing node document"}
	}
	if len(doc.Nodes) > 0 && (doc.NodeType != "" || doc.NodeParameters != nil) {
		return nil, &errors.SchemaError{Path: path, Message: "node mixes children with content parameters"}
	}
	if doc.SharedTitle != "" && len(doc.Titles) > 0 {
		return nil, &errors.SchemaError{Path: path, Message: "node mixes sharedTitle with explicit titles"}
	}

	var node Node
	switch {
	case len(doc.Nodes) > 0:
		sn := &StructureNode{TreeNode: TreeNode{key: doc.Key}}
		for i, child := range doc.Nodes {
			c, err := build(child, terms, childPath(path, i))
			if err != nil {
				return nil, err
			}
			sn.Append(c)
		}
		node = sn

	case doc.NodeType == NodeTypeString:
		n, err := NewStringNode(doc.Key)
		if err != nil {
			return nil, err
		}
		node = n

	case doc.NodeType == NodeTypeJaggedArray:
		if doc.NodeParameters == nil {
			return nil, &errors.SchemaError{Path: path, Message: "content node missing nodeParameters"}
		}
		types := make([]address.Type, len(doc.NodeParameters.AddressTypes))
		for i, t := range doc.NodeParameters.AddressTypes {
			types[i] = address.Type(t)
		}
		n, err := NewJaggedArrayNode(doc.Key,
			doc.NodeParameters.Depth, types,
			doc.NodeParameters.SectionNames, doc.NodeParameters.Lengths)
		if err != nil {
			return nil, err
		}
		node = n

	default:
		return nil, &errors.SchemaError{Path: path, Message: "node has neither children nor a known nodeType"}
	}

	if err := applyCommon(node, doc, terms, path); err != nil {
		return nil, err
	}
	return node, nil
}

func childPath(path string, i int) string {
	return path + ".nodes[" + strconv.Itoa(i) + "]"
}

func applyCommon(node Node, doc *SerialNode, terms TermResolver, path string) error {
	tn := treeNode(node)
	tn.isDefault = doc.Default
	tn.sharedTitle = doc.SharedTitle
	if len(doc.CheckFirst) > 0 {
		tn.checkFirst = make(map[string]string, len(doc.CheckFirst))
		for lang, title := range doc.CheckFirst {
			tn.checkFirst[lang] = title
		}
	}

	if doc.SharedTitle != "" {
		if terms == nil {
			return &errors.SchemaError{Path: path, Message: "sharedTitle used without a term resolver"}
		}
		titles, ok := terms.ResolveTerm(doc.SharedTitle)
		if !ok {
			return &errors.SchemaError{Path: path, Message: "unknown term " + doc.SharedTitle}
		}
		for _, t := range titles {
			if err := tn.titles.Add(t.Text, t.Lang, t.Primary, false); err != nil {
				return err
			}
		}
	}
	for _, t := range doc.Titles {
		if err := tn.titles.Add(t.Text, t.Lang, t.Primary, false); err != nil {
			return err
		}
	}
	return nil
}

func treeNode(n Node) *TreeNode {
	switch t := n.(type) {
	case *StructureNode:
		return &t.TreeNode
	case *JaggedArrayNode:
		return &t.TreeNode
	case *StringNode:
		return &t.TreeNode
	}
	return nil
}

// Serialize returns the document form of a structure node and its subtree.
func (n *StructureNode) Serialize() *SerialNode {
	doc := n.serializeCommon()
	for _, c := range n.children {
		doc.Nodes = append(doc.Nodes, c.Serialize())
	}
	return doc
}

// Serialize returns the document form of a jagged-array node.
func (n *JaggedArrayNode) Serialize() *SerialNode {
	doc := n.serializeCommon()
	doc.NodeType = NodeTypeJaggedArray
	types := make([]string, len(n.addressTypes))
	for i, t := range n.addressTypes {
		types[i] = string(t)
	}
	doc.NodeParameters = &SerialParams{
		Depth:        n.depth,
		AddressTypes: types,
		SectionNames: append([]string{}, n.sectionNames...),
	}
	if len(n.lengths) > 0 {
		doc.NodeParameters.Lengths = append([]int{}, n.lengths...)
	}
	return doc
}

// Serialize returns the document form of a string node.
func (n *StringNode) Serialize() *SerialNode {
	doc := n.serializeCommon()
	doc.NodeType = NodeTypeString
	return doc
}

func (n *TreeNode) serializeCommon() *SerialNode {
	doc := &SerialNode{
		Key:     n.key,
		Default: n.isDefault,
	}
	if n.sharedTitle != "" {
		doc.SharedTitle = n.sharedTitle
	} else {
		doc.Titles = append([]Title{}, n.titles.All()...)
	}
	if len(n.checkFirst) > 0 {
		doc.CheckFirst = make(map[string]string, len(n.checkFirst))
		for lang, title := range n.checkFirst {
			doc.CheckFirst[lang] = title
		}
	}
	return doc
}
