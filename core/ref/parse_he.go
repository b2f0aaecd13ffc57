package ref

import (
	"strings"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
)

// sham is the Hebrew "ibid." marker. It cites whatever was last cited,
// which a stateless parser cannot know.
const sham = "שם"

// perekMarker opens a chapter citation in rabbinic style, e.g. פ״ב.
const perekMarker = "פ"

// mishnahPrefix is the Hebrew title prefix distinguishing a mishnah
// tractate from its talmudic namesake.
const mishnahPrefix = "משנה "

// parseHebrew resolves a Hebrew-script citation. The shape of the
// section tail is read through the matched node's Hebrew address
// patterns, so בראשית יד and שבת כ״א ב take different numeral forms.
func (e *Engine) parseHebrew(raw string) (*Ref, error) {
	if raw == sham || strings.HasPrefix(raw, sham+" ") {
		return nil, &errors.InputError{
			Kind:    errors.KindIbid,
			Input:   raw,
			Message: "citation by " + sham + " needs surrounding context",
		}
	}
	if rangeSplit.MatchString(raw) {
		return nil, &errors.InputError{
			Kind:    errors.KindSections,
			Input:   raw,
			Message: "ranged Hebrew citations are not recognized",
		}
	}

	entry, node, matched, rest, err := e.matchHebrewTitle(raw)
	if err != nil {
		return nil, err
	}
	// שם after a title ("שבת שם") would otherwise decode as the
	// gematria numeral 340.
	if rest == sham || strings.HasPrefix(rest, sham+" ") {
		return nil, &errors.InputError{
			Kind:    errors.KindIbid,
			Input:   raw,
			Message: "citation by " + sham + " needs surrounding context",
		}
	}
	book := canonicalBook(entry, node, "en")

	if rest == "" {
		r := &Ref{engine: e, book: book, entry: entry, node: schema.ContentNode(node), normal: book}
		return r, nil
	}

	// A talmudic tractate cited with chapter/mishnah markers means the
	// mishnah of that name, when the library carries one.
	if isTalmud(entry) && strings.HasPrefix(rest, perekMarker) {
		if mRec, ok := e.lib.Resolve(mishnahPrefix+matched, "he"); ok {
			if mCN := schema.ContentNode(mRec.Node); mCN != nil {
				if sections, err := e.parseSections(mCN, rest, "he", raw); err == nil {
					return e.buildRef(mRec.Index, mCN, mRec.Node.FullTitle("en"), sections)
				}
			}
		}
	}

	entry, cn, book, sections, err := e.resolveSections(entry, node, book, rest, "he", raw)
	if err != nil {
		return nil, err
	}
	return e.buildRef(entry, cn, book, sections)
}

// matchHebrewTitle matches the longest Hebrew title at the start of raw,
// commentary forms first, returning the matched Hebrew title text and
// the unconsumed remainder.
func (e *Engine) matchHebrewTitle(raw string) (index.Entry, schema.Node, string, string, error) {
	if re := e.lib.AnchoredTitlesRegex("he", true); re != nil {
		if m := re.FindString(raw); m != "" && titleBoundaryOK(raw, m) {
			entry, err := e.lib.GetIndex(m)
			if err == nil {
				return entry, entry.Root(), m, trimSectionLead(raw[len(m):]), nil
			}
		}
	}

	re := e.lib.AnchoredTitlesRegex("he", false)
	if re == nil {
		return nil, nil, "", "", &errors.BookNameError{Title: raw}
	}
	m := re.FindString(raw)
	if m == "" || !titleBoundaryOK(raw, m) {
		return nil, nil, "", "", &errors.BookNameError{Title: raw}
	}
	rec, ok := e.lib.Resolve(m, "he")
	if !ok {
		return nil, nil, "", "", &errors.BookNameError{Title: m}
	}
	return rec.Index, rec.Node, m, trimSectionLead(raw[len(m):]), nil
}

// buildRef assembles a non-ranged Ref and computes its normal form.
func (e *Engine) buildRef(entry index.Entry, cn *schema.JaggedArrayNode, book string, sections []int) (*Ref, error) {
	r := &Ref{
		engine:     e,
		book:       book,
		entry:      entry,
		node:       cn,
		sections:   sections,
		toSections: append([]int{}, sections...),
	}
	normal, err := r.computeNormal()
	if err != nil {
		return nil, err
	}
	r.normal = normal
	return r, nil
}

func isTalmud(entry index.Entry) bool {
	cats := entry.Categories()
	return len(cats) > 0 && cats[0] == "Talmud"
}
