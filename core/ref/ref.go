// Package ref implements the citation reference engine.
//
// A Ref is a parsed, structured citation to a location within a text:
// book, section path and an optional range. Refs are created through an
// Engine, which owns the identity cache guaranteeing at most one live Ref
// per distinct normalized citation. Refs are immutable; every derived
// reference is a new cached instance.
package ref

import (
	"regexp"
	"strings"

	"github.com/sifria/mareh/core/address"
	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
)

// Ref is a parsed citation. The zero value is not usable; obtain Refs
// from an Engine.
type Ref struct {
	engine     *Engine
	book       string
	entry      index.Entry
	node       *schema.JaggedArrayNode
	sections   []int
	toSections []int
	normal     string
}

// Book returns the resolved canonical title.
func (r *Ref) Book() string { return r.book }

// Entry returns the owning catalog entry.
func (r *Ref) Entry() index.Entry { return r.entry }

// Node returns the content node the sections address, or nil for a
// book-level reference to a structure node.
func (r *Ref) Node() *schema.JaggedArrayNode { return r.node }

// Sections returns a copy of the 1-based section path.
func (r *Ref) Sections() []int { return append([]int{}, r.sections...) }

// ToSections returns a copy of the range-end section path.
func (r *Ref) ToSections() []int { return append([]int{}, r.toSections...) }

// Type returns the entry's top category, e.g. "Talmud".
func (r *Ref) Type() string {
	cats := r.entry.Categories()
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}

// IsBookLevel reports whether the ref cites a whole book.
func (r *Ref) IsBookLevel() bool { return len(r.sections) == 0 }

// IsRange reports whether the ref covers more than one location.
func (r *Ref) IsRange() bool {
	for i := range r.sections {
		if r.sections[i] != r.toSections[i] {
			return true
		}
	}
	return false
}

// depth returns the node's full address depth, or 0 for book-level
// structure references.
func (r *Ref) depth() int {
	if r.node == nil {
		return 0
	}
	return r.node.Depth()
}

// spanLimit is the number of leading positions whose difference makes the
// ref spanning rather than merely ranged. Positions cited at less than
// full depth are all section positions.
func (r *Ref) spanLimit() int {
	if len(r.sections) == r.depth() {
		return len(r.sections) - 1
	}
	return len(r.sections)
}

// IsSpanning reports whether the ref's endpoints fall in different
// sections (e.g. different dapim), as opposed to a range within one
// section (e.g. verses 5-8 of one chapter).
func (r *Ref) IsSpanning() bool {
	for i := 0; i < r.spanLimit(); i++ {
		if r.sections[i] != r.toSections[i] {
			return true
		}
	}
	return false
}

// Normal returns the canonical citation string. This is the identity key:
// two Refs are equal iff their normal forms match.
func (r *Ref) Normal() string { return r.normal }

// String implements fmt.Stringer.
func (r *Ref) String() string { return r.normal }

// Equal reports citation equality by normal form.
func (r *Ref) Equal(other *Ref) bool {
	return other != nil && r.normal == other.normal
}

// computeNormal renders the canonical form: book, space, sections joined
// by colons (dapim formatted as 13a/13b), and a hyphenated tail from the
// first position where the range end differs.
func (r *Ref) computeNormal() (string, error) {
	if len(r.sections) == 0 {
		return r.book, nil
	}

	formatted := func(values []int, from int) (string, error) {
		parts := make([]string, 0, len(values)-from)
		for i := from; i < len(values); i++ {
			s, err := r.node.Address(i).ToStr("en", values[i])
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ":"), nil
	}

	head, err := formatted(r.sections, 0)
	if err != nil {
		return "", err
	}
	normal := r.book + " " + head

	for i := range r.sections {
		if r.sections[i] != r.toSections[i] {
			tail, err := formatted(r.toSections, i)
			if err != nil {
				return "", err
			}
			return normal + "-" + tail, nil
		}
	}
	return normal, nil
}

// URL returns the URL-safe form: spaces become underscores and the
// title/section separator becomes a period.
func (r *Ref) URL() string {
	book := strings.ReplaceAll(r.book, " ", "_")
	if len(r.sections) == 0 {
		return book
	}

	formatted := func(values []int, from int) string {
		parts := make([]string, 0, len(values)-from)
		for i := from; i < len(values); i++ {
			s, err := r.node.Address(i).ToStr("en", values[i])
			if err != nil {
				return ""
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ".")
	}

	u := book + "." + formatted(r.sections, 0)
	for i := range r.sections {
		if r.sections[i] != r.toSections[i] {
			return u + "-" + formatted(r.toSections, i)
		}
	}
	return u
}

// ContextRef returns the ref with the last level sections dropped,
// zooming out toward the whole book. Already-broad refs zoom to the book.
func (r *Ref) ContextRef(level int) (*Ref, error) {
	if level <= 0 || len(r.sections) == 0 {
		return r, nil
	}
	keep := len(r.sections) - level
	if keep < 0 {
		keep = 0
	}
	return r.engine.fromFields(r.entry, r.node, r.book, r.sections[:keep], r.toSections[:keep])
}

// PaddedRef returns the ref padded with leading 1s to section-level
// specificity. A Talmud text cited with no sections pads to its
// conventional first content daf (2a) rather than the title page.
func (r *Ref) PaddedRef() (*Ref, error) {
	if r.node == nil {
		return r, nil
	}
	target := r.depth() - 1
	if target < 1 {
		target = 1
	}
	if len(r.sections) >= target {
		return r, nil
	}

	sections := append([]int{}, r.sections...)
	if len(sections) == 0 && r.node.Address(0).Kind() == address.TypeTalmud {
		first := 1
		if r.isBavli() {
			// Daf 2a: the first daf of a Bavli tractate is conventionally
			// the title page.
			first = 3
		}
		sections = append(sections, first)
	}
	for len(sections) < target {
		sections = append(sections, 1)
	}
	return r.engine.fromFields(r.entry, r.node, r.book, sections, sections)
}

func (r *Ref) isBavli() bool {
	for _, c := range r.entry.Categories() {
		if c == "Bavli" || c == "Talmud" {
			return true
		}
	}
	return false
}

// SplitSpanningRef enumerates one ref per section between the endpoints
// of a spanning ref. The first and last pieces keep the original partial
// specificity when the engine's section index knows the section sizes;
// otherwise the endpoints degrade to whole sections.
func (r *Ref) SplitSpanningRef() ([]*Ref, error) {
	if !r.IsSpanning() {
		return []*Ref{r}, nil
	}

	d := 0
	for r.sections[d] == r.toSections[d] {
		d++
	}
	prefix := r.sections[:d]

	var out []*Ref
	for v := r.sections[d]; v <= r.toSections[d]; v++ {
		section := append(append([]int{}, prefix...), v)

		var from, to []int
		switch {
		case v == r.sections[d] && len(r.sections) > d+1:
			// Keep the starting sub-section; bound the end at the
			// section's size when known.
			size := r.engine.counts.SectionLength(r.book, section)
			if size > 0 {
				from = append([]int{}, r.sections...)
				to = append(append([]int{}, section...), size)
				for len(to) < len(from) {
					to = append(to, size)
				}
			} else {
				from, to = section, section
			}
		case v == r.toSections[d] && len(r.toSections) > d+1:
			from = append([]int{}, section...)
			for len(from) < len(r.toSections) {
				from = append(from, 1)
			}
			to = append(append([]int{}, prefix...), r.toSections[d:]...)
		default:
			from, to = section, section
		}

		piece, err := r.engine.fromFields(r.entry, r.node, r.book, from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, piece)
	}
	return out, nil
}

// RangeList enumerates one ref per value of the last cited level of a
// non-spanning range.
func (r *Ref) RangeList() ([]*Ref, error) {
	if len(r.sections) == 0 {
		return []*Ref{r}, nil
	}
	if r.IsSpanning() {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   r.normal,
			Message: "spanning ref must be split before ranging",
		}
	}

	last := len(r.sections) - 1
	prefix := r.sections[:last]
	var out []*Ref
	for v := r.sections[last]; v <= r.toSections[last]; v++ {
		s := append(append([]int{}, prefix...), v)
		piece, err := r.engine.fromFields(r.entry, r.node, r.book, s, s)
		if err != nil {
			return nil, err
		}
		out = append(out, piece)
	}
	return out, nil
}

// NextSectionRef returns the next populated section-level ref, or nil at
// the end of the text.
func (r *Ref) NextSectionRef() (*Ref, error) {
	padded, err := r.PaddedRef()
	if err != nil {
		return nil, err
	}
	next, ok := r.engine.counts.NextAddress(r.book, padded.sections)
	if !ok {
		return nil, nil
	}
	return r.engine.fromFields(r.entry, r.node, r.book, next, next)
}

// PrevSectionRef returns the previous populated section-level ref, or nil
// at the start of the text.
func (r *Ref) PrevSectionRef() (*Ref, error) {
	padded, err := r.PaddedRef()
	if err != nil {
		return nil, err
	}
	prev, ok := r.engine.counts.PrevAddress(r.book, padded.sections)
	if !ok {
		return nil, nil
	}
	return r.engine.fromFields(r.entry, r.node, r.book, prev, prev)
}

// SubrefRegex returns a pattern recognizing this ref's normal form or any
// more specific reference nested under it, one alternative per element of
// the ranged expansion.
func (r *Ref) SubrefRegex() (*regexp.Regexp, error) {
	pieces := []*Ref{r}
	if r.IsRange() {
		var err error
		if r.IsSpanning() {
			pieces, err = r.SplitSpanningRef()
		} else {
			pieces, err = r.RangeList()
		}
		if err != nil {
			return nil, err
		}
	}

	alts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		esc := regexp.QuoteMeta(p.normal)
		alts = append(alts, esc+`$`, esc+`:`, esc+` \d`)
	}
	return regexp.Compile(`^(?:` + strings.Join(alts, "|") + `)`)
}
