package index

import (
	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/schema"
)

// Commentary is a virtual entry for "Commentator on Book" citations.
// It is synthesized on demand from two real Index records and never
// persisted on its own.
type Commentary struct {
	commentator *Index
	base        *Index
	title       string
	categories  []string
	node        *schema.JaggedArrayNode
}

// NewCommentary joins a commentator index with a base-text index.
// The commentator must be catalogued under the Commentary category; the
// base must resolve to a content node whose addressing the comment level
// extends.
func NewCommentary(commentator, base *Index) (*Commentary, error) {
	if !commentator.IsCommentator() {
		return nil, &errors.SchemaError{
			Path:    commentator.Title(),
			Message: "index is not catalogued as a commentator",
		}
	}
	baseLeaf := schema.ContentNode(base.Root())
	if baseLeaf == nil {
		return nil, &errors.SchemaError{
			Path:    base.Title(),
			Message: "base text has no addressable content node",
		}
	}

	title := commentator.Title() + " on " + base.Title()
	node, err := schema.BuildCommentaryNode(title, baseLeaf)
	if err != nil {
		return nil, err
	}
	if he := commentator.Root().Titles().Primary("he"); he != "" {
		if heBase := base.Root().Titles().Primary("he"); heBase != "" {
			if err := node.Titles().Add(he+" על "+heBase, "he", true, false); err != nil {
				return nil, err
			}
		}
	}

	categories := append([]string{}, commentator.Categories()...)
	categories = append(categories, base.TopCategory())

	return &Commentary{
		commentator: commentator,
		base:        base,
		title:       title,
		categories:  categories,
		node:        node,
	}, nil
}

// Title returns the combined "X on Y" title.
func (c *Commentary) Title() string { return c.title }

// Categories returns the commentator's categories with the base text's
// top category appended.
func (c *Commentary) Categories() []string { return c.categories }

// Root returns the synthesized content node.
func (c *Commentary) Root() schema.Node { return c.node }

// Kind returns KindCommentary.
func (c *Commentary) Kind() Kind { return KindCommentary }

// Commentator returns the commentator's index.
func (c *Commentary) Commentator() *Index { return c.commentator }

// Base returns the base text's index.
func (c *Commentary) Base() *Index { return c.base }
