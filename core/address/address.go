// Package address defines the numeral conventions used at each depth level
// of a text's addressing scheme.
//
// An Address converts between a language-specific numeral string (Latin or
// Hebrew) and the internal 1-based section index, and supplies the regex
// fragment that recognizes that numeral in running text. Addresses are
// stateless: parsing is a pure function of the variant, depth position and
// input.
package address

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/gematria"
)

// Type identifies a numeral convention.
type Type string

// Known address types.
const (
	TypeInteger Type = "Integer"
	TypeTalmud  Type = "Talmud"
	TypePerek   Type = "Perek"
	TypeMishnah Type = "Mishnah"
)

// IsValid returns true if t names a known address type.
func (t Type) IsValid() bool {
	switch t {
	case TypeInteger, TypeTalmud, TypePerek, TypeMishnah:
		return true
	}
	return false
}

// Address is one depth level's numeral parser and formatter.
// Implementations are immutable and safe for concurrent use.
type Address interface {
	// Kind returns the variant tag.
	Kind() Type

	// Order returns the 0-based depth position this address occupies.
	Order() int

	// Length returns the maximum section value, or 0 when unbounded.
	Length() int

	// Regex returns a regex fragment matching this level's numeral in
	// lang ("en" or "he"). When group is non-empty the numeral is wrapped
	// in a named capturing group.
	Regex(lang, group string) string

	// ToIndex parses a matched numeral into the 1-based section index.
	ToIndex(lang, s string) (int, error)

	// ToStr formats a section index as a numeral in lang.
	ToStr(lang string, n int) (string, error)
}

// New constructs an Address for the given variant at depth position order.
// length is the declared maximum section value (0 = unbounded).
func New(t Type, order, length int) (Address, error) {
	base := base{order: order, length: length}
	switch t {
	case TypeInteger:
		return &Integer{base}, nil
	case TypeTalmud:
		return &Talmud{base}, nil
	case TypePerek:
		return &Perek{Integer{base}}, nil
	case TypeMishnah:
		return &Mishnah{Integer{base}}, nil
	}
	return nil, &errors.SchemaError{Message: fmt.Sprintf("unknown address type %q", t)}
}

type base struct {
	order  int
	length int
}

func (b base) Order() int  { return b.order }
func (b base) Length() int { return b.length }

func group(name, pattern string) string {
	if name == "" {
		return "(?:" + pattern + ")"
	}
	return "(?P<" + name + ">" + pattern + ")"
}

// Integer is a plain numeral: base-10 in Latin script, gematria in Hebrew.
type Integer struct {
	base
}

// Kind returns TypeInteger.
func (a *Integer) Kind() Type { return TypeInteger }

// Regex returns the numeral fragment for lang.
func (a *Integer) Regex(lang, g string) string {
	if lang == "he" {
		return group(g, gematria.Pattern)
	}
	return group(g, `\d+`)
}

// ToIndex parses a plain or Hebrew numeral.
func (a *Integer) ToIndex(lang, s string) (int, error) {
	var n int
	var err error
	if lang == "he" {
		n, err = gematria.Decode(s)
	} else {
		n, err = strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			err = &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "expected a number"}
		}
	}
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "section numbers start at 1"}
	}
	if a.length > 0 && n > a.length {
		return 0, &errors.InputError{
			Kind:    errors.KindOutOfRange,
			Input:   s,
			Message: fmt.Sprintf("section %d exceeds length %d", n, a.length),
		}
	}
	return n, nil
}

// ToStr formats a section index.
func (a *Integer) ToStr(lang string, n int) (string, error) {
	if lang == "he" {
		return gematria.Encode(n)
	}
	return strconv.Itoa(n), nil
}

// Talmud addresses a two-sided daf: section 1 is daf 2a in conventional
// numbering terms only when offset; internally section = daf*2-1 for amud
// a and daf*2 for amud b.
type Talmud struct {
	base
}

// Kind returns TypeTalmud.
func (a *Talmud) Kind() Type { return TypeTalmud }

// dafMarker is the optional Hebrew daf prefix (ד, דף).
const dafMarker = `(?:\x{05d3}\x{05e3}?\.?\s*)?`

// Regex returns the daf/amud fragment for lang. The Hebrew form allows an
// optional leading daf marker and an optional trailing amud marker.
func (a *Talmud) Regex(lang, g string) string {
	if lang == "he" {
		return dafMarker + group(g, gematria.Pattern+`(?:[.:]|[,\s]+[\x{05d0}\x{05d1}])?`)
	}
	return group(g, `\d+[ab]?`)
}

var talmudEn = regexp.MustCompile(`^(\d+)([ab])?$`)

// ToIndex parses a daf/amud numeral into the internal section index.
func (a *Talmud) ToIndex(lang, s string) (int, error) {
	s = strings.TrimSpace(s)
	if lang == "he" {
		return a.hebrewToIndex(s)
	}

	m := talmudEn.FindStringSubmatch(s)
	if m == nil {
		return 0, &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "expected a daf like 12a or 12b"}
	}
	daf, err := strconv.Atoi(m[1])
	if err != nil || daf < 1 {
		return 0, &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "bad daf number"}
	}
	if a.length > 0 && daf > a.length {
		return 0, &errors.InputError{
			Kind:    errors.KindOutOfRange,
			Input:   s,
			Message: fmt.Sprintf("daf %d exceeds length %d", daf, a.length),
		}
	}
	return DafToSection(daf, m[2] == "b"), nil
}

func (a *Talmud) hebrewToIndex(s string) (int, error) {
	// Strip the optional daf marker.
	for _, prefix := range []string{"דף", "ד"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok && rest != "" {
			s = strings.TrimLeft(rest, ". ")
			break
		}
	}

	amudB := false
	switch {
	case strings.HasSuffix(s, ":"):
		amudB = true
		s = strings.TrimSuffix(s, ":")
	case strings.HasSuffix(s, "."):
		s = strings.TrimSuffix(s, ".")
	case strings.HasSuffix(s, "ב") && len([]rune(s)) > 1:
		// A bet amud marker only counts when set off from the numeral by
		// a comma or space; otherwise it is the numeral's own last letter.
		trimmed := strings.TrimSuffix(s, "ב")
		if cut := strings.TrimRight(trimmed, ", "); cut != trimmed {
			amudB = true
			s = cut
		}
	case strings.HasSuffix(s, "א") && len([]rune(s)) > 1:
		trimmed := strings.TrimSuffix(s, "א")
		if cut := strings.TrimRight(trimmed, ", "); cut != trimmed {
			s = cut
		}
	}

	daf, err := gematria.Decode(s)
	if err != nil {
		return 0, err
	}
	if a.length > 0 && daf > a.length {
		return 0, &errors.InputError{
			Kind:    errors.KindOutOfRange,
			Input:   s,
			Message: fmt.Sprintf("daf %d exceeds length %d", daf, a.length),
		}
	}
	return DafToSection(daf, amudB), nil
}

// ToStr formats a section index as a daf numeral: "13b" in Latin script,
// the Hebrew numeral with a trailing period (amud a) or colon (amud b).
func (a *Talmud) ToStr(lang string, n int) (string, error) {
	daf, amud := SectionToDaf(n)
	if lang == "he" {
		heb, err := gematria.Encode(daf)
		if err != nil {
			return "", err
		}
		if amud == "b" {
			return heb + ":", nil
		}
		return heb + ".", nil
	}
	return strconv.Itoa(daf) + amud, nil
}

// DafToSection converts a daf number and side into the internal section
// index: amud a of daf n is section 2n-1, amud b is section 2n.
func DafToSection(daf int, amudB bool) int {
	if amudB {
		return daf * 2
	}
	return daf*2 - 1
}

// SectionToDaf is the inverse of DafToSection.
func SectionToDaf(section int) (daf int, amud string) {
	daf = (section + 1) / 2
	if section%2 == 0 {
		return daf, "b"
	}
	return daf, "a"
}

// Perek is an Integer address recognizing an optional leading perek marker
// (פרק or פ״) in Hebrew.
type Perek struct {
	Integer
}

// Kind returns TypePerek.
func (a *Perek) Kind() Type { return TypePerek }

// Regex returns the perek fragment for lang.
func (a *Perek) Regex(lang, g string) string {
	if lang == "he" {
		return `(?:\x{05e4}(?:["\x{05f4}]|\x{05e8}\x{05e7})\s*)?` + group(g, gematria.Pattern)
	}
	return group(g, `\d+`)
}

// Mishnah is an Integer address recognizing an optional leading mishnah
// marker (משנה or מ״) in Hebrew.
type Mishnah struct {
	Integer
}

// Kind returns TypeMishnah.
func (a *Mishnah) Kind() Type { return TypeMishnah }

// Regex returns the mishnah fragment for lang.
func (a *Mishnah) Regex(lang, g string) string {
	if lang == "he" {
		return `(?:\x{05de}(?:["\x{05f4}]|\x{05e9}\x{05e0}\x{05d4})\s*)?` + group(g, gematria.Pattern)
	}
	return group(g, `\d+`)
}
