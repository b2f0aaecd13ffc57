package ref

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sifria/mareh/core/address"
	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
)

// rangeSplit separates a citation from its range tail on a hyphen or a
// typographic dash.
var rangeSplit = regexp.MustCompile(`\s*[-\x{2013}\x{2014}]\s*`)

// parseEnglish resolves a Latin-script citation. The title is matched
// against the library's anchored title patterns, commentary forms first,
// then the remainder is read as sections and an optional range tail.
func (e *Engine) parseEnglish(raw string) (*Ref, error) {
	parts := rangeSplit.Split(raw, -1)
	if len(parts) > 2 {
		return nil, &errors.InputError{
			Kind:    errors.KindStructural,
			Input:   raw,
			Message: "too many hyphens for a range",
		}
	}

	base := parts[0]
	if sub, ok := e.lib.SubstitutePrefix(base); ok {
		base = sub
	}

	entry, node, rest, err := e.matchTitle(base, raw)
	if err != nil {
		return nil, err
	}
	book := canonicalBook(entry, node, "en")

	if rest == "" && len(parts) == 1 {
		r := &Ref{engine: e, book: book, entry: entry, node: schema.ContentNode(node), normal: book}
		return r, nil
	}

	entry, cn, book, sections, err := e.resolveSections(entry, node, book, rest, "en", raw)
	if err != nil {
		return nil, err
	}

	toSections := append([]int{}, sections...)
	if len(parts) == 2 {
		toSections, err = e.applyRange(cn, sections, parts[1], raw)
		if err != nil {
			return nil, err
		}
	}
	if sectionsAfter(sections, toSections) {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   raw,
			Message: "range runs backwards",
		}
	}

	r := &Ref{
		engine:     e,
		book:       book,
		entry:      entry,
		node:       cn,
		sections:   sections,
		toSections: toSections,
	}
	normal, err := r.computeNormal()
	if err != nil {
		return nil, err
	}
	r.normal = normal
	return r, nil
}

// matchTitle finds the longest known title at the start of base,
// preferring "Commentator on Book" forms so a commentary is never
// mistaken for its commentator alone. It returns the resolved entry,
// the matched schema node, and the unconsumed remainder.
func (e *Engine) matchTitle(base, raw string) (index.Entry, schema.Node, string, error) {
	if re := e.lib.AnchoredTitlesRegex("en", true); re != nil {
		if m := re.FindString(base); m != "" && titleBoundaryOK(base, m) {
			entry, err := e.lib.GetIndex(m)
			if err == nil {
				return entry, entry.Root(), trimSectionLead(base[len(m):]), nil
			}
		}
	}

	re := e.lib.AnchoredTitlesRegex("en", false)
	if re == nil {
		return nil, nil, "", &errors.BookNameError{Title: base}
	}
	m := re.FindString(base)
	if m == "" || !titleBoundaryOK(base, m) {
		return nil, nil, "", &errors.BookNameError{Title: base}
	}
	rec, ok := e.lib.Resolve(m, "en")
	if !ok {
		return nil, nil, "", &errors.BookNameError{Title: m}
	}
	return rec.Index, rec.Node, trimSectionLead(base[len(m):]), nil
}

// resolveSections reads rest as section numbers for node. When the node
// names an alternate structure to try first, that alternate is attempted
// and wins only if it parses cleanly.
func (e *Engine) resolveSections(entry index.Entry, node schema.Node, book, rest, lang, raw string) (index.Entry, *schema.JaggedArrayNode, string, []int, error) {
	if alt := node.CheckFirst(lang); alt != "" && rest != "" {
		if altRec, ok := e.lib.Resolve(alt, lang); ok {
			if altCN := schema.ContentNode(altRec.Node); altCN != nil {
				if sections, err := e.parseSections(altCN, rest, lang, raw); err == nil {
					return altRec.Index, altCN, altRec.Node.FullTitle("en"), sections, nil
				}
			}
		}
	}

	cn := schema.ContentNode(node)
	if cn == nil {
		return nil, nil, "", nil, &errors.InputError{
			Kind:    errors.KindStructural,
			Input:   raw,
			Message: "sections cited on a node without addressable content",
		}
	}
	if rest == "" {
		return entry, cn, book, nil, nil
	}
	sections, err := e.parseSections(cn, rest, lang, raw)
	if err != nil {
		return nil, nil, "", nil, err
	}
	return entry, cn, book, sections, nil
}

// parseSections matches rest against the node's section pattern and
// converts each captured group through its address type.
func (e *Engine) parseSections(cn *schema.JaggedArrayNode, rest, lang, raw string) ([]int, error) {
	re, err := e.nodeRegex(cn, lang)
	if err != nil {
		return nil, err
	}
	m := re.FindStringSubmatch(rest)
	if m == nil {
		return nil, &errors.InputError{
			Kind:    errors.KindMalformed,
			Input:   raw,
			Message: "could not read sections " + strconv.Quote(rest),
		}
	}

	names := re.SubexpNames()
	sections := make([]int, 0, cn.Depth())
	for level := 0; level < cn.Depth(); level++ {
		group := "a" + strconv.Itoa(level)
		val := ""
		for i, name := range names {
			if name == group {
				val = m[i]
				break
			}
		}
		if val == "" {
			break
		}
		n, err := cn.Address(level).ToIndex(lang, val)
		if err != nil {
			return nil, err
		}
		sections = append(sections, n)
	}
	if len(sections) == 0 {
		return nil, &errors.InputError{
			Kind:    errors.KindMalformed,
			Input:   raw,
			Message: "could not read sections " + strconv.Quote(rest),
		}
	}
	return sections, nil
}

// applyRange produces toSections from the text after the range hyphen.
// The tail binds to the deepest cited levels: "Genesis 4:5-8" ranges
// verses, "Genesis 4:5-6:2" ranges chapters and verses.
func (e *Engine) applyRange(cn *schema.JaggedArrayNode, sections []int, tail, raw string) ([]int, error) {
	if len(sections) == 0 {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   raw,
			Message: "range on a book-level reference",
		}
	}
	to := append([]int{}, sections...)
	last := len(sections) - 1

	// "Shabbat 12a-b": a bare amud letter closes the range on the other
	// side of the same daf.
	if tail == "b" && cn.Address(last).Kind() == address.TypeTalmud {
		if sections[last]%2 == 0 {
			return nil, &errors.InputError{
				Kind:    errors.KindSections,
				Input:   raw,
				Message: "range from amud b to amud b of the same daf",
			}
		}
		to[last] = sections[last] + 1
		return to, nil
	}

	toks, err := parseRangeTail(tail)
	if err != nil {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   raw,
			Message: "could not read range " + strconv.Quote(tail),
			Err:     err,
		}
	}
	if len(toks) > len(sections) {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   raw,
			Message: "range end cites more levels than the start",
		}
	}
	for i, tok := range toks {
		pos := len(sections) - len(toks) + i
		n, err := cn.Address(pos).ToIndex("en", tok)
		if err != nil {
			if errors.Is(err, errors.ErrMalformed) {
				return nil, &errors.InputError{
					Kind:    errors.KindSections,
					Input:   raw,
					Message: "could not read range " + strconv.Quote(tail),
					Err:     err,
				}
			}
			return nil, err
		}
		to[pos] = n
	}
	return to, nil
}

// canonicalBook returns the canonical working title for the resolved
// entry: the synthesized title for commentaries, otherwise the node's
// full English title.
func canonicalBook(entry index.Entry, node schema.Node, lang string) string {
	if entry.Kind() == index.KindCommentary {
		return entry.Title()
	}
	return node.FullTitle(lang)
}

// titleBoundaryOK reports whether the matched title is followed by the
// end of input or a citation delimiter, so "Job" never claims "Jobs".
func titleBoundaryOK(base, m string) bool {
	if len(m) == len(base) {
		return true
	}
	switch base[len(m)] {
	case ' ', ',', '.', ':':
		return true
	}
	return false
}

// trimSectionLead strips the delimiter between a title and its sections.
func trimSectionLead(s string) string {
	return strings.TrimLeft(s, " ,.:")
}

// sectionsAfter reports whether the range start sorts after its end,
// comparing level by level.
func sectionsAfter(from, to []int) bool {
	for i := range from {
		if i >= len(to) {
			break
		}
		if from[i] != to[i] {
			return from[i] > to[i]
		}
	}
	return false
}
