// Package gematria converts between Hebrew numerals and integers.
//
// Hebrew numerals use letters as digits: alef through tet for 1-9, yod
// through tzadi for 10-90, and quf through tav for 100-400. Values above
// 400 repeat tav. Written numerals carry a gershayim before the final
// letter ("תשנ״ד") or a geresh after a lone letter ("ה׳"). The values 15
// and 16 are written ט״ו and ט״ז rather than with a yod, to avoid letter
// pairs that spell a divine name.
package gematria

import (
	"strings"

	"github.com/sifria/mareh/core/errors"
)

// letterValues maps each Hebrew letter to its numeral value. Final forms
// carry the same value as their base forms.
var letterValues = map[rune]int{
	'א': 1, 'ב': 2, 'ג': 3, 'ד': 4, 'ה': 5, 'ו': 6, 'ז': 7, 'ח': 8, 'ט': 9,
	'י': 10, 'כ': 20, 'ל': 30, 'מ': 40, 'נ': 50, 'ס': 60, 'ע': 70, 'פ': 80, 'צ': 90,
	'ק': 100, 'ר': 200, 'ש': 300, 'ת': 400,
	'ך': 20, 'ם': 40, 'ן': 50, 'ף': 80, 'ץ': 90,
}

// punctuation accepted (and ignored) inside a numeral: geresh, gershayim,
// and their ASCII stand-ins.
const punctuation = "׳״'\""

// Decode parses a Hebrew numeral into its integer value.
// Geresh and gershayim marks are stripped wherever they appear.
func Decode(s string) (int, error) {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)

	if stripped == "" {
		return 0, &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "empty numeral"}
	}

	total := 0
	for _, r := range stripped {
		v, ok := letterValues[r]
		if !ok {
			return 0, &errors.InputError{Kind: errors.KindMalformed, Input: s, Message: "not a Hebrew numeral"}
		}
		total += v
	}
	return total, nil
}

// ordered digit tables for encoding, largest value first.
var (
	hundreds = []struct {
		value  int
		letter string
	}{
		{400, "ת"}, {300, "ש"}, {200, "ר"}, {100, "ק"},
	}
	tens = []struct {
		value  int
		letter string
	}{
		{90, "צ"}, {80, "פ"}, {70, "ע"}, {60, "ס"}, {50, "נ"},
		{40, "מ"}, {30, "ל"}, {20, "כ"}, {10, "י"},
	}
	units = []struct {
		value  int
		letter string
	}{
		{9, "ט"}, {8, "ח"}, {7, "ז"}, {6, "ו"}, {5, "ה"},
		{4, "ד"}, {3, "ג"}, {2, "ב"}, {1, "א"},
	}
)

// Encode renders an integer as a punctuated Hebrew numeral.
// Multi-letter numerals take a gershayim before the last letter; a single
// letter takes a trailing geresh.
func Encode(n int) (string, error) {
	if n <= 0 {
		return "", &errors.InputError{Kind: errors.KindMalformed, Message: "numeral must be positive"}
	}

	var letters []string
	remainder := n

	for remainder >= 100 {
		for _, h := range hundreds {
			if remainder >= h.value {
				letters = append(letters, h.letter)
				remainder -= h.value
				break
			}
		}
	}

	// 15 and 16 never use yod.
	switch remainder {
	case 15:
		letters = append(letters, "ט", "ו")
		remainder = 0
	case 16:
		letters = append(letters, "ט", "ז")
		remainder = 0
	}

	for _, t := range tens {
		if remainder >= t.value {
			letters = append(letters, t.letter)
			remainder -= t.value
			break
		}
	}
	for _, u := range units {
		if remainder >= u.value {
			letters = append(letters, u.letter)
			break
		}
	}

	if len(letters) == 1 {
		return letters[0] + "׳", nil
	}
	last := len(letters) - 1
	return strings.Join(letters[:last], "") + "״" + letters[last], nil
}

// IsHebrewLetter reports whether r is a Hebrew letter usable in a numeral.
func IsHebrewLetter(r rune) bool {
	_, ok := letterValues[r]
	return ok
}

// Pattern is the regex fragment matching a punctuated Hebrew numeral: one
// to four Hebrew letters, each optionally followed by a gershayim, with an
// optional trailing geresh. The pattern is deliberately loose; Decode is
// the authority on validity.
const Pattern = `(?:[\x{05d0}-\x{05ea}]["\x{05f4}]?){1,4}(?:[\x{05f3}']|'')?`
