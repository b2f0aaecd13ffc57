package library

import (
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
)

// SeedTerms returns the shared-title terms referenced by the seed
// catalog.
func SeedTerms() []*index.Term {
	return []*index.Term{
		{
			Name: "Orach Chayim",
			Titles: []schema.Title{
				{Text: "Orach Chayim", Lang: "en", Primary: true},
				{Text: "OC", Lang: "en"},
				{Text: "אורח חיים", Lang: "he", Primary: true},
			},
		},
		{
			Name: "Yoreh Deah",
			Titles: []schema.Title{
				{Text: "Yoreh Deah", Lang: "en", Primary: true},
				{Text: "YD", Lang: "en"},
				{Text: "יורה דעה", Lang: "he", Primary: true},
			},
		},
	}
}

// SeedRecords returns a compact working catalog: a handful of texts
// covering every schema shape and address type the engine handles.
func SeedRecords() []*index.Record {
	chapterVerse := func(lengths []int) *schema.SerialNode {
		return &schema.SerialNode{
			NodeType: schema.NodeTypeJaggedArray,
			NodeParameters: &schema.SerialParams{
				Depth:        2,
				AddressTypes: []string{"Integer", "Integer"},
				SectionNames: []string{"Chapter", "Verse"},
				Lengths:      lengths,
			},
		}
	}
	perekMishnah := &schema.SerialParams{
		Depth:        2,
		AddressTypes: []string{"Perek", "Mishnah"},
		SectionNames: []string{"Chapter", "Mishnah"},
	}

	return []*index.Record{
		{
			Title:         "Genesis",
			Categories:    []string{"Tanakh", "Torah"},
			Schema:        chapterVerse([]int{50}),
			HebrewTitle:   "בראשית",
			TitleVariants: []string{"Gen", "Bereshit"},
		},
		{
			Title:         "Exodus",
			Categories:    []string{"Tanakh", "Torah"},
			Schema:        chapterVerse([]int{40}),
			HebrewTitle:   "שמות",
			TitleVariants: []string{"Ex", "Shemot"},
		},
		{
			Title:       "Bereshit Rabbah",
			Categories:  []string{"Midrash"},
			Schema:      chapterVerse([]int{100}),
			HebrewTitle: "בראשית רבה",
		},
		{
			Title:      "Shabbat",
			Categories: []string{"Talmud", "Bavli"},
			Schema: &schema.SerialNode{
				// A chapter:mishnah citation of this tractate means the
				// mishnah of the same name.
				CheckFirst: map[string]string{"en": "Mishnah Shabbat"},
				NodeType:   schema.NodeTypeJaggedArray,
				NodeParameters: &schema.SerialParams{
					Depth:        2,
					AddressTypes: []string{"Talmud", "Integer"},
					SectionNames: []string{"Daf", "Line"},
					Lengths:      []int{314},
				},
			},
			HebrewTitle: "שבת",
		},
		{
			// Legacy flat record, upgraded to Talmud addressing on load.
			Title:        "Eruvin",
			Categories:   []string{"Talmud", "Bavli"},
			SectionNames: []string{"Daf", "Line"},
			HebrewTitle:  "עירובין",
		},
		{
			Title:      "Berakhot",
			Categories: []string{"Talmud", "Bavli"},
			Schema: &schema.SerialNode{
				NodeType: schema.NodeTypeJaggedArray,
				NodeParameters: &schema.SerialParams{
					Depth:        2,
					AddressTypes: []string{"Talmud", "Integer"},
					SectionNames: []string{"Daf", "Line"},
					Lengths:      []int{128},
				},
			},
			HebrewTitle: "ברכות",
		},
		{
			Title:       "Mishnah Peah",
			Categories:  []string{"Mishnah"},
			Schema:      &schema.SerialNode{NodeType: schema.NodeTypeJaggedArray, NodeParameters: perekMishnah},
			HebrewTitle: "משנה פאה",
		},
		{
			Title:       "Mishnah Shabbat",
			Categories:  []string{"Mishnah"},
			Schema:      &schema.SerialNode{NodeType: schema.NodeTypeJaggedArray, NodeParameters: perekMishnah},
			HebrewTitle: "משנה שבת",
		},
		{
			Title:      "Rashi",
			Categories: []string{"Commentary"},
			Schema: &schema.SerialNode{
				NodeType: schema.NodeTypeJaggedArray,
				NodeParameters: &schema.SerialParams{
					Depth:        1,
					AddressTypes: []string{"Integer"},
					SectionNames: []string{"Paragraph"},
				},
			},
			HebrewTitle: "רש״י",
		},
		{
			Title:      "Ramban",
			Categories: []string{"Commentary"},
			Schema: &schema.SerialNode{
				NodeType: schema.NodeTypeJaggedArray,
				NodeParameters: &schema.SerialParams{
					Depth:        1,
					AddressTypes: []string{"Integer"},
					SectionNames: []string{"Paragraph"},
				},
			},
			HebrewTitle: "רמב״ן",
		},
		{
			Title:      "Mishneh Torah",
			Categories: []string{"Halakhah"},
			Schema: &schema.SerialNode{
				Nodes: []*schema.SerialNode{
					{
						Key: "Repentance",
						Titles: []schema.Title{
							{Text: "Laws of Repentance", Lang: "en", Primary: true},
							{Text: "Hilchot Teshuvah", Lang: "en"},
							{Text: "הלכות תשובה", Lang: "he", Primary: true},
						},
						NodeType: schema.NodeTypeJaggedArray,
						NodeParameters: &schema.SerialParams{
							Depth:        2,
							AddressTypes: []string{"Integer", "Integer"},
							SectionNames: []string{"Chapter", "Halakhah"},
						},
					},
					{
						Key: "Prayer",
						Titles: []schema.Title{
							{Text: "Laws of Prayer", Lang: "en", Primary: true},
							{Text: "הלכות תפילה", Lang: "he", Primary: true},
						},
						NodeType: schema.NodeTypeJaggedArray,
						NodeParameters: &schema.SerialParams{
							Depth:        2,
							AddressTypes: []string{"Integer", "Integer"},
							SectionNames: []string{"Chapter", "Halakhah"},
						},
					},
				},
			},
			HebrewTitle: "משנה תורה",
			Maps: map[string]string{
				"Rambam Repentance": "Mishneh Torah, Laws of Repentance",
			},
		},
		{
			Title:      "Shulchan Arukh",
			Categories: []string{"Halakhah"},
			Schema: &schema.SerialNode{
				Nodes: []*schema.SerialNode{
					{
						Key:         "OC",
						SharedTitle: "Orach Chayim",
						NodeType:    schema.NodeTypeJaggedArray,
						NodeParameters: &schema.SerialParams{
							Depth:        2,
							AddressTypes: []string{"Integer", "Integer"},
							SectionNames: []string{"Siman", "Seif"},
						},
					},
					{
						Key:         "YD",
						SharedTitle: "Yoreh Deah",
						NodeType:    schema.NodeTypeJaggedArray,
						NodeParameters: &schema.SerialParams{
							Depth:        2,
							AddressTypes: []string{"Integer", "Integer"},
							SectionNames: []string{"Siman", "Seif"},
						},
					},
				},
			},
			HebrewTitle: "שולחן ערוך",
		},
		{
			Title:      "Pesach Haggadah",
			Categories: []string{"Liturgy"},
			Schema: &schema.SerialNode{
				Nodes: []*schema.SerialNode{
					{
						Key: "Kadesh",
						Titles: []schema.Title{
							{Text: "Kadesh", Lang: "en", Primary: true},
							{Text: "קדש", Lang: "he", Primary: true},
						},
						NodeType: schema.NodeTypeString,
					},
					{
						Key: "Magid",
						Titles: []schema.Title{
							{Text: "Magid", Lang: "en", Primary: true},
							{Text: "מגיד", Lang: "he", Primary: true},
						},
						NodeType: schema.NodeTypeJaggedArray,
						NodeParameters: &schema.SerialParams{
							Depth:        1,
							AddressTypes: []string{"Integer"},
							SectionNames: []string{"Paragraph"},
						},
					},
				},
			},
			HebrewTitle: "הגדה של פסח",
		},
	}
}

// Seed loads the seed terms and records into lib.
func Seed(lib *Library) error {
	for _, t := range SeedTerms() {
		lib.AddTerm(t)
	}
	for _, r := range SeedRecords() {
		if _, err := lib.AddIndex(r); err != nil {
			return err
		}
	}
	return nil
}

// SeedShapes returns per-book section shapes for the seed catalog's
// depth-two texts whose real sizes are known: the verse count of every
// chapter of Genesis.
func SeedShapes() map[string][]int {
	return map[string][]int{
		"Genesis": {
			31, 25, 24, 26, 32, 22, 24, 22, 29, 32,
			32, 20, 18, 24, 21, 16, 27, 33, 38, 18,
			34, 24, 20, 67, 34, 35, 46, 22, 35, 43,
			55, 32, 20, 31, 29, 43, 36, 30, 23, 23,
			57, 38, 34, 34, 28, 34, 31, 22, 33, 26,
		},
	}
}
