package ref

import (
	"testing"

	"github.com/sifria/mareh/core/library"
)

func benchEngine(b *testing.B) *Engine {
	b.Helper()
	lib := library.New()
	if err := library.Seed(lib); err != nil {
		b.Fatalf("Seed: %v", err)
	}
	counts := NewMemoryCounts()
	for book, shape := range library.SeedShapes() {
		counts.SetShape(book, shape)
	}
	return NewEngine(lib, WithSectionIndex(counts))
}

func BenchmarkParse(b *testing.B) {
	inputs := []struct {
		name string
		tref string
	}{
		{"Simple", "Genesis 4:5"},
		{"Range", "Genesis 4:5-6:2"},
		{"Talmud", "Shabbat 21b"},
		{"Commentary", "Rashi on Genesis 2:3:1"},
		{"Hebrew", "שבת כ״א ב"},
	}

	for _, in := range inputs {
		b.Run(in.name, func(b *testing.B) {
			e := benchEngine(b)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.refs.Clear()
				if _, err := e.Parse(in.tref); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParseCached(b *testing.B) {
	e := benchEngine(b)
	if _, err := e.Parse("Genesis 4:5"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Parse("Genesis 4:5"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRefsInString(b *testing.B) {
	e := benchEngine(b)
	text := "The morning blessings are discussed in Shabbat 21b and again " +
		"by Rashi on Genesis 2:3, while Genesis 4:5-8 frames the narrative. " +
		"Unrelated prose pads the scan window so title matching does some work."

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := e.RefsInString(text); len(got) != 3 {
			b.Fatalf("found %d citations", len(got))
		}
	}
}
