package ref

import (
	"regexp"
	"sort"
	"strings"
)

// Citation is a reference recognized inside free text.
type Citation struct {
	// Text is the exact matched substring.
	Text string
	// Start and End are byte offsets of Text within the scanned string.
	Start int
	End   int
	// Ref is the parsed reference.
	Ref *Ref
}

// enCitationTail matches the section text that may follow an English
// title: numerals, amud letters, separators, and range dashes.
var enCitationTail = regexp.MustCompile(`^[\s,.:]*[0-9][0-9ab\s,.:\-\x{2013}]*`)

// heParenthetical matches a parenthesized or bracketed span, the usual
// carrier of Hebrew citations in running text.
var heParenthetical = regexp.MustCompile(`\(([^)]*)\)|\[([^\]]*)\]`)

// RefsInString scans free text for recognizable citations and parses
// each one. Hebrew text is scanned inside parentheses and brackets only,
// and a Hebrew match must carry sections; English titles are matched
// anywhere, book-level mentions included. Matches never overlap; at a
// shared start the longer citation wins.
func (e *Engine) RefsInString(s string) []Citation {
	if isHebrew(s) {
		return e.scanHebrew(s)
	}
	return e.scanEnglish(s)
}

func (e *Engine) scanEnglish(s string) []Citation {
	spans := e.titleSpans(s, "en")

	var out []Citation
	consumed := -1
	for _, sp := range spans {
		if sp.start <= consumed {
			continue
		}
		if sp.start > 0 && isWordByte(s[sp.start-1]) {
			continue
		}
		if sp.end < len(s) && isWordByte(s[sp.end]) {
			continue
		}
		candidate := s[sp.start:sp.end]
		if tail := enCitationTail.FindString(s[sp.end:]); tail != "" {
			candidate = s[sp.start : sp.end+len(tail)]
		}
		text, r := e.tryShrinking(candidate, len(s[sp.start:sp.end]), false)
		if r == nil {
			continue
		}
		out = append(out, Citation{Text: text, Start: sp.start, End: sp.start + len(text), Ref: r})
		consumed = sp.start + len(text) - 1
	}
	return out
}

func (e *Engine) scanHebrew(s string) []Citation {
	var out []Citation
	for _, loc := range heParenthetical.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[2], loc[3]
		if start < 0 {
			start, end = loc[4], loc[5]
		}
		span := s[start:end]
		consumed := -1
		for _, sp := range e.titleSpans(span, "he") {
			if sp.start <= consumed {
				continue
			}
			candidate := strings.TrimRight(span[sp.start:], " ,.:;")
			text, r := e.tryShrinking(candidate, sp.end-sp.start, true)
			if r == nil {
				continue
			}
			out = append(out, Citation{Text: text, Start: start + sp.start, End: start + sp.start + len(text), Ref: r})
			consumed = sp.start + len(text) - 1
		}
	}
	return out
}

type titleSpan struct{ start, end int }

// isWordByte reports whether b would glue a title to surrounding text,
// so "Job" never matches inside "Jobs".
func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// titleSpans locates every known title occurrence in s, commentary forms
// and plain titles merged, longest match kept at each start.
func (e *Engine) titleSpans(s, lang string) []titleSpan {
	var spans []titleSpan
	for _, commentary := range []bool{true, false} {
		re := e.lib.TitlesRegex(lang, commentary)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(s, -1) {
			spans = append(spans, titleSpan{loc[0], loc[1]})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	dedup := spans[:0]
	lastStart := -1
	for _, sp := range spans {
		if sp.start == lastStart {
			continue
		}
		dedup = append(dedup, sp)
		lastStart = sp.start
	}
	return dedup
}

// tryShrinking parses candidate, dropping trailing tokens until a parse
// succeeds or only the title remains. titleLen is the byte length of the
// leading title, the shortest candidate worth trying. When needSections
// is set, a match without sections is rejected.
func (e *Engine) tryShrinking(candidate string, titleLen int, needSections bool) (string, *Ref) {
	for {
		trimmed := strings.TrimRight(candidate, " ,.:;-–")
		if len(trimmed) < titleLen {
			return "", nil
		}
		if r, err := e.Parse(trimmed); err == nil {
			if needSections && len(r.Sections()) == 0 {
				return "", nil
			}
			return trimmed, r
		}
		cut := strings.LastIndexAny(trimmed, " ,.:")
		if cut < titleLen {
			return "", nil
		}
		candidate = trimmed[:cut]
	}
}
