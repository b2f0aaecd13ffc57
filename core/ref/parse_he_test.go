package ref

import (
	"testing"

	"github.com/sifria/mareh/core/errors"
)

func TestParseHebrew(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		input    string
		normal   string
		book     string
		sections []int
	}{
		{"בראשית יד:י", "Genesis 14:10", "Genesis", []int{14, 10}},
		{"בראשית יד", "Genesis 14", "Genesis", []int{14}},
		{"בראשית", "Genesis", "Genesis", nil},
		{"שבת כא", "Shabbat 21a", "Shabbat", []int{41}},
		{"שבת כ״א ב", "Shabbat 21b", "Shabbat", []int{42}},
		{"שבת כא:", "Shabbat 21b", "Shabbat", []int{42}},
		{"שבת כא.", "Shabbat 21a", "Shabbat", []int{41}},
		{"שבת דף כא", "Shabbat 21a", "Shabbat", []int{41}},
		{"בראשית רבה ג:ב", "Bereshit Rabbah 3:2", "Bereshit Rabbah", []int{3, 2}},
		{"משנה פאה ד:ב", "Mishnah Peah 4:2", "Mishnah Peah", []int{4, 2}},
		{"רש״י על בראשית ב:ג", "Rashi on Genesis 2:3", "Rashi on Genesis", []int{2, 3}},
		{"שולחן ערוך, אורח חיים ה:ב", "Shulchan Arukh, Orach Chayim 5:2",
			"Shulchan Arukh, Orach Chayim", []int{5, 2}},
		// Chapter/mishnah markers on a talmudic tractate cite its mishnah.
		{"שבת פ״ב מ״ד", "Mishnah Shabbat 2:4", "Mishnah Shabbat", []int{2, 4}},
		{"שבת פרק ב", "Mishnah Shabbat 2", "Mishnah Shabbat", []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := e.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if r.Normal() != tt.normal {
				t.Errorf("Normal = %q, want %q", r.Normal(), tt.normal)
			}
			if r.Book() != tt.book {
				t.Errorf("Book = %q, want %q", r.Book(), tt.book)
			}
			if !equalInts(r.Sections(), tt.sections) {
				t.Errorf("Sections = %v, want %v", r.Sections(), tt.sections)
			}
		})
	}
}

func TestParseHebrewErrors(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		input    string
		sentinel error
	}{
		{"שם", errors.ErrIbid},
		{"שם ג:ב", errors.ErrIbid},
		// After a title שם must not decode as the numeral 340.
		{"עירובין שם", errors.ErrIbid},
		{"שבת שם ג", errors.ErrIbid},
		{"בראשית יד-טו", errors.ErrSections},
		{"ספר שאיננו ג:ב", errors.ErrBookName},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := e.Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded", tt.input)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, err, tt.sentinel)
			}
		})
	}
}

func TestHebrewAndEnglishSpellingsConverge(t *testing.T) {
	e := testEngine(t)
	he := e.MustParse("שבת כ״א ב")
	en := e.MustParse("Shabbat 21b")
	if he != en {
		t.Errorf("Hebrew and English citations of one location did not intern together: %q vs %q",
			he.Normal(), en.Normal())
	}
}
