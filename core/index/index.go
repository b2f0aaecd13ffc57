// Package index defines catalog entries binding a text's title to its
// categories and schema tree.
//
// An Entry is either a plain Index loaded from a catalog record, or a
// Commentary synthesized on demand for "Commentator on Book" citations.
// The two are distinct types; callers switch on Kind rather than probing
// attributes.
package index

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/sifria/mareh/core/address"
	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/schema"
)

// Kind discriminates entry variants.
type Kind string

// Entry kinds.
const (
	KindSimple     Kind = "simple"
	KindCommentary Kind = "commentary"
)

// Entry is a resolvable catalog entry.
type Entry interface {
	// Title returns the entry's canonical English title.
	Title() string

	// Categories returns the category path, e.g. ["Talmud", "Bavli"].
	Categories() []string

	// Root returns the entry's schema tree.
	Root() schema.Node

	// Kind returns the variant tag.
	Kind() Kind
}

// Term is a shared title record referenced by sharedTitle schema fields.
type Term struct {
	ID     string         `json:"id,omitempty"`
	Name   string         `json:"name"`
	Titles []schema.Title `json:"titles"`
}

// Record is the persisted JSON form of an Index.
type Record struct {
	ID         string             `json:"id,omitempty"`
	Title      string             `json:"title"`
	Categories []string           `json:"categories"`
	Schema     *schema.SerialNode `json:"schema,omitempty"`

	// Legacy records predate schema documents and carry a flat shape.
	SectionNames  []string `json:"sectionNames,omitempty"`
	TitleVariants []string `json:"titleVariants,omitempty"`
	HebrewTitle   string   `json:"heTitle,omitempty"`

	// Maps rewrite shorthand titles to canonical references.
	Maps map[string]string `json:"maps,omitempty"`
}

// Index is a loaded catalog entry.
type Index struct {
	record *Record
	root   schema.Node
}

// New builds an Index from its catalog record. Legacy records (flat
// sectionNames/titleVariants) are upgraded to a single-node schema tree.
// terms resolves sharedTitle references in the schema document.
func New(record *Record, terms schema.TermResolver) (*Index, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	var root schema.Node
	var err error
	switch {
	case record.Schema != nil:
		root, err = schema.Build(record.Schema, terms)
	case len(record.SectionNames) > 0:
		root, err = upgradeLegacy(record)
	default:
		err = &errors.SchemaError{Path: record.Title, Message: "record has neither schema nor sectionNames"}
	}
	if err != nil {
		return nil, err
	}

	// The record's own title and variants always name the root node.
	if root.Titles().Primary("en") == "" {
		if err := root.Titles().Add(record.Title, "en", true, false); err != nil {
			return nil, err
		}
	}
	if record.HebrewTitle != "" && root.Titles().Primary("he") == "" {
		if err := root.Titles().Add(record.HebrewTitle, "he", true, false); err != nil {
			return nil, err
		}
	}
	for _, v := range record.TitleVariants {
		if err := root.Titles().Add(v, "en", false, false); err != nil {
			return nil, err
		}
	}

	return &Index{record: record, root: root}, nil
}

// invalidTitleChars are disallowed in titles, categories and section names
// because they collide with citation and URL syntax.
const invalidTitleChars = ".-/"

func validateRecord(record *Record) error {
	if record == nil || record.Title == "" {
		return &errors.SchemaError{Message: "record has no title"}
	}
	if strings.ContainsAny(record.Title, invalidTitleChars) {
		return &errors.SchemaError{Path: record.Title, Message: "title contains . - or /"}
	}
	for _, c := range record.Categories {
		if strings.ContainsAny(c, invalidTitleChars) {
			return &errors.SchemaError{Path: record.Title, Message: fmt.Sprintf("category %q contains . - or /", c)}
		}
	}
	for _, s := range record.SectionNames {
		if strings.ContainsAny(s, invalidTitleChars) {
			return &errors.SchemaError{Path: record.Title, Message: fmt.Sprintf("section name %q contains . - or /", s)}
		}
	}
	return nil
}

// upgradeLegacy turns a flat legacy record into a jagged-array root.
// A leading "Daf" section gets Talmud addressing; everything else is a
// plain integer level.
func upgradeLegacy(record *Record) (schema.Node, error) {
	depth := len(record.SectionNames)
	types := make([]address.Type, depth)
	for i, name := range record.SectionNames {
		switch name {
		case "Daf":
			types[i] = address.TypeTalmud
		default:
			types[i] = address.TypeInteger
		}
	}
	return schema.NewJaggedArrayNode(keyFromTitle(record.Title), depth, types, record.SectionNames, nil)
}

func keyFromTitle(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// Title returns the canonical English title.
func (i *Index) Title() string { return i.record.Title }

// Categories returns the category path.
func (i *Index) Categories() []string { return i.record.Categories }

// Root returns the schema tree.
func (i *Index) Root() schema.Node { return i.root }

// Kind returns KindSimple.
func (i *Index) Kind() Kind { return KindSimple }

// Record returns the underlying catalog record.
func (i *Index) Record() *Record { return i.record }

// Maps returns the shorthand title rewrites, if any.
func (i *Index) Maps() map[string]string { return i.record.Maps }

// IsCommentator reports whether this index describes a commentator whose
// works are cited as "X on Y".
func (i *Index) IsCommentator() bool {
	return len(i.record.Categories) > 0 && i.record.Categories[0] == "Commentary"
}

// TopCategory returns the first category, or "" for uncategorized records.
func (i *Index) TopCategory() string {
	if len(i.record.Categories) == 0 {
		return ""
	}
	return i.record.Categories[0]
}

// SchemaHash returns the blake3 hex digest of the serialized schema,
// used by the catalog store for change detection.
func (i *Index) SchemaHash() (string, error) {
	doc := i.root.Serialize()
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:]), nil
}
