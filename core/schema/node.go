// Package schema models the tree describing how a text's titles and
// hierarchical sections compose.
//
// A tree is built once from a serialized schema document at catalog load
// time and is immutable afterwards; replacing a schema means swapping the
// whole tree. Structure nodes branch into named children; content nodes
// (jagged arrays and strings) hold uniformly addressed text.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sifria/mareh/core/address"
	"github.com/sifria/mareh/core/errors"
)

// Node is one node of a text's addressing hierarchy.
type Node interface {
	// Key returns the node's local identifier.
	Key() string

	// Parent returns the owning node, or nil at the root.
	Parent() Node

	// Children returns the ordered child list; empty for content nodes.
	Children() []Node

	// Titles returns the node's title group.
	Titles() *TitleGroup

	// IsDefault reports whether this node is reached without an explicit
	// title segment.
	IsDefault() bool

	// SharedTitle returns the referenced term name, or "".
	SharedTitle() string

	// CheckFirst returns the alternate title to try before this node when
	// parsing a citation in lang, or "".
	CheckFirst(lang string) string

	// PrimaryTitle returns the node's primary title in lang.
	PrimaryTitle(lang string) string

	// FullTitle returns the node's primary title prefixed by its
	// ancestors' titles, joined by ", ".
	FullTitle(lang string) string

	// Serialize returns the node's schema document form.
	Serialize() *SerialNode

	setParent(p Node)
	validate(path string) error
}

// TreeNode carries the fields common to every node kind.
type TreeNode struct {
	key         string
	titles      TitleGroup
	sharedTitle string
	isDefault   bool
	checkFirst  map[string]string
	parent      Node

	mu        sync.Mutex
	fullTitle map[string]string // memoized per language
}

// Key returns the node's local identifier.
func (n *TreeNode) Key() string { return n.key }

// Parent returns the owning node, or nil at the root.
func (n *TreeNode) Parent() Node { return n.parent }

// Titles returns the node's title group.
func (n *TreeNode) Titles() *TitleGroup { return &n.titles }

// IsDefault reports whether the node is a default (untitled) child.
func (n *TreeNode) IsDefault() bool { return n.isDefault }

// SharedTitle returns the referenced term name, or "".
func (n *TreeNode) SharedTitle() string { return n.sharedTitle }

// CheckFirst returns the alternate title to try first in lang, or "".
func (n *TreeNode) CheckFirst(lang string) string {
	return n.checkFirst[lang]
}

// PrimaryTitle returns the node's primary title in lang.
func (n *TreeNode) PrimaryTitle(lang string) string {
	return n.titles.Primary(lang)
}

// FullTitle returns the primary title prefixed by ancestor titles.
// Default nodes contribute no segment of their own.
func (n *TreeNode) FullTitle(lang string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fullTitle == nil {
		n.fullTitle = make(map[string]string)
	}
	if t, ok := n.fullTitle[lang]; ok {
		return t
	}
	t := n.PrimaryTitle(lang)
	if n.parent != nil {
		parentTitle := n.parent.FullTitle(lang)
		switch {
		case n.isDefault || t == "":
			t = parentTitle
		case parentTitle != "":
			t = parentTitle + ", " + t
		}
	}
	n.fullTitle[lang] = t
	return t
}

func (n *TreeNode) setParent(p Node) { n.parent = p }

func (n *TreeNode) validateCommon(path string, hasContent bool) error {
	if !n.isDefault && n.sharedTitle == "" && n.titles.Len() == 0 && n.parent != nil {
		return &errors.SchemaError{Path: path, Message: "node needs titles, a sharedTitle, or the default flag"}
	}
	if n.isDefault && n.titles.Len() > 0 {
		return &errors.SchemaError{Path: path, Message: "default node cannot carry titles"}
	}
	if n.isDefault && !hasContent {
		return &errors.SchemaError{Path: path, Message: "default node must be a content node"}
	}
	return nil
}

// StructureNode is a branching node of a complex work, such as a
// multi-part collection. It has children and no address types.
type StructureNode struct {
	TreeNode
	children []Node
}

// Children returns the ordered child list.
func (n *StructureNode) Children() []Node { return n.children }

// Append adds child to the node, wiring its parent pointer.
func (n *StructureNode) Append(child Node) {
	child.setParent(n)
	n.children = append(n.children, child)
}

// DefaultChild returns the child flagged default, or nil.
func (n *StructureNode) DefaultChild() Node {
	for _, c := range n.children {
		if c.IsDefault() {
			return c
		}
	}
	return nil
}

func (n *StructureNode) validate(path string) error {
	if err := n.validateCommon(path, false); err != nil {
		return err
	}
	if len(n.children) == 0 {
		return &errors.SchemaError{Path: path, Message: "structure node has no children"}
	}
	defaults := 0
	for i, c := range n.children {
		if c.IsDefault() {
			defaults++
		}
		if err := c.validate(fmt.Sprintf("%s.nodes[%d]", path, i)); err != nil {
			return err
		}
	}
	if defaults > 1 {
		return &errors.SchemaError{Path: path, Message: "structure node has more than one default child"}
	}
	return nil
}

// JaggedArrayNode is a content leaf with uniform depth and addressing.
type JaggedArrayNode struct {
	TreeNode
	depth        int
	addressTypes []address.Type
	sectionNames []string
	lengths      []int
	addresses    []address.Address
}

// NewJaggedArrayNode builds a content node from its addressing parameters.
func NewJaggedArrayNode(key string, depth int, types []address.Type, sectionNames []string, lengths []int) (*JaggedArrayNode, error) {
	n := &JaggedArrayNode{
		TreeNode:     TreeNode{key: key},
		depth:        depth,
		addressTypes: types,
		sectionNames: sectionNames,
		lengths:      lengths,
	}
	if err := n.buildAddresses(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *JaggedArrayNode) buildAddresses() error {
	n.addresses = make([]address.Address, n.depth)
	for i := 0; i < n.depth; i++ {
		length := 0
		if i < len(n.lengths) {
			length = n.lengths[i]
		}
		a, err := address.New(n.addressTypes[i], i, length)
		if err != nil {
			return err
		}
		n.addresses[i] = a
	}
	return nil
}

// Children returns nil; content nodes are leaves.
func (n *JaggedArrayNode) Children() []Node { return nil }

// Depth returns the number of address levels.
func (n *JaggedArrayNode) Depth() int { return n.depth }

// AddressTypes returns the per-level address type tags.
func (n *JaggedArrayNode) AddressTypes() []address.Type { return n.addressTypes }

// SectionNames returns the per-level display names.
func (n *JaggedArrayNode) SectionNames() []string { return n.sectionNames }

// Lengths returns the declared per-level maximum sizes, if any.
func (n *JaggedArrayNode) Lengths() []int { return n.lengths }

// Address returns the Address for depth level i.
func (n *JaggedArrayNode) Address(i int) address.Address { return n.addresses[i] }

// RegexOpts controls section-regex generation.
type RegexOpts struct {
	// Strict requires every depth level to be present; by default all
	// levels past the first are optional.
	Strict bool

	// GroupPrefix names the capturing groups GroupPrefix0, GroupPrefix1,
	// and so on. Empty means non-capturing groups.
	GroupPrefix string
}

// sectionDelimiter separates address levels in a citation.
const sectionDelimiter = `[,.:\s]+`

// Regex returns the pattern recognizing this node's section address in
// lang, with one capturing group per depth level. The caller anchors the
// pattern and appends a boundary as needed.
func (n *JaggedArrayNode) Regex(lang string, opts RegexOpts) string {
	var sb strings.Builder
	for i, a := range n.addresses {
		g := ""
		if opts.GroupPrefix != "" {
			g = fmt.Sprintf("%s%d", opts.GroupPrefix, i)
		}
		frag := a.Regex(lang, g)
		if i == 0 {
			sb.WriteString(frag)
			continue
		}
		if opts.Strict {
			sb.WriteString(sectionDelimiter + frag)
		} else {
			sb.WriteString(`(?:` + sectionDelimiter + frag + `)?`)
		}
	}
	return sb.String()
}

func (n *JaggedArrayNode) validate(path string) error {
	if err := n.validateCommon(path, true); err != nil {
		return err
	}
	if n.depth < 1 {
		return &errors.SchemaError{Path: path, Message: "depth must be at least 1"}
	}
	if len(n.addressTypes) != n.depth {
		return &errors.SchemaError{Path: path,
			Message: fmt.Sprintf("addressTypes has %d entries for depth %d", len(n.addressTypes), n.depth)}
	}
	if len(n.sectionNames) != n.depth {
		return &errors.SchemaError{Path: path,
			Message: fmt.Sprintf("sectionNames has %d entries for depth %d", len(n.sectionNames), n.depth)}
	}
	if len(n.lengths) > n.depth {
		return &errors.SchemaError{Path: path,
			Message: fmt.Sprintf("lengths has %d entries for depth %d", len(n.lengths), n.depth)}
	}
	for i, t := range n.addressTypes {
		if !t.IsValid() {
			return &errors.SchemaError{Path: path,
				Message: fmt.Sprintf("unknown address type %q at level %d", t, i)}
		}
	}
	return nil
}

// StringNode is a depth-1 content leaf holding a single run of text, such
// as an introduction or a liturgical unit.
type StringNode struct {
	JaggedArrayNode
}

// NewStringNode builds a string content node.
func NewStringNode(key string) (*StringNode, error) {
	n := &StringNode{JaggedArrayNode: JaggedArrayNode{
		TreeNode:     TreeNode{key: key},
		depth:        1,
		addressTypes: []address.Type{address.TypeInteger},
		sectionNames: []string{"Paragraph"},
	}}
	if err := n.buildAddresses(); err != nil {
		return nil, err
	}
	return n, nil
}

// ContentNode returns the JaggedArrayNode a citation's sections parse
// against: n itself for content nodes, the default child for structure
// nodes that have one, nil otherwise.
func ContentNode(n Node) *JaggedArrayNode {
	switch t := n.(type) {
	case *JaggedArrayNode:
		return t
	case *StringNode:
		return &t.JaggedArrayNode
	case *StructureNode:
		if d := t.DefaultChild(); d != nil {
			return ContentNode(d)
		}
	}
	return nil
}

// Validate checks the whole tree rooted at n.
func Validate(n Node) error {
	return n.validate("root")
}

// BuildCommentaryNode synthesizes the content node for a commentary on
// base: the base's address levels plus one trailing Comment level.
func BuildCommentaryNode(commentaryTitle string, base *JaggedArrayNode) (*JaggedArrayNode, error) {
	types := append(append([]address.Type{}, base.addressTypes...), address.TypeInteger)
	names := append(append([]string{}, base.sectionNames...), "Comment")
	node, err := NewJaggedArrayNode(base.Key(), base.depth+1, types, names, append([]int{}, base.lengths...))
	if err != nil {
		return nil, err
	}
	if commentaryTitle != "" {
		if err := node.Titles().Add(commentaryTitle, "en", true, false); err != nil {
			return nil, err
		}
	}
	return node, nil
}
