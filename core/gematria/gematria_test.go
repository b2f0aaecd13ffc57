package gematria

import (
	"regexp"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"single letter", "א", 1},
		{"tet", "ט", 9},
		{"yod", "י", 10},
		{"tet-vav fifteen", "טו", 15},
		{"tet-zayin sixteen", "טז", 16},
		{"yod-tet nineteen", "יט", 19},
		{"kaf twenty", "כ", 20},
		{"qof hundred", "ק", 100},
		{"qof-kaf-alef", "קכא", 121},
		{"with gershayim", "י״ד", 14},
		{"with geresh", "ה׳", 5},
		{"ascii quote", "כ\"א", 21},
		{"final letter", "ם", 40},
		{"tav-resh-yod-gimel", "תריג", 613},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only punctuation", "״"},
		{"latin letters", "abc"},
		{"digits", "42"},
		{"mixed scripts", "י4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.input); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "א׳"},
		{9, "ט׳"},
		{10, "י׳"},
		{15, "ט״ו"},
		{16, "ט״ז"},
		{19, "י״ט"},
		{20, "כ׳"},
		{21, "כ״א"},
		{100, "ק׳"},
		{115, "קט״ו"},
		{121, "קכ״א"},
		{613, "תרי״ג"},
	}
	for _, tt := range tests {
		got, err := Encode(tt.n)
		if err != nil {
			t.Fatalf("Encode(%d) error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	for _, n := range []int{0, -5} {
		if _, err := Encode(n); err == nil {
			t.Errorf("Encode(%d) succeeded, want error", n)
		}
	}
}

// Encode output must always decode back to the same number.
func TestRoundTrip(t *testing.T) {
	for n := 1; n <= 500; n++ {
		s, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d) error: %v", n, err)
		}
		got, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", s, err)
		}
		if got != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, got)
		}
	}
}

func TestPattern(t *testing.T) {
	re := regexp.MustCompile(`^(?:` + Pattern + `)$`)
	matches := []string{"א", "יד", "י״ד", "קכ״א", "ה׳", "תריג"}
	for _, s := range matches {
		if !re.MatchString(s) {
			t.Errorf("Pattern did not match %q", s)
		}
	}
	rejects := []string{"", "14", "abc"}
	for _, s := range rejects {
		if re.MatchString(s) {
			t.Errorf("Pattern matched %q", s)
		}
	}
}

func TestIsHebrewLetter(t *testing.T) {
	if !IsHebrewLetter('א') || !IsHebrewLetter('ת') {
		t.Error("expected Hebrew letters to be recognized")
	}
	if IsHebrewLetter('a') || IsHebrewLetter('״') {
		t.Error("expected non-letters to be rejected")
	}
}
