package schema

import (
	"fmt"

	"github.com/sifria/mareh/core/errors"
)

// Title is one name of a node in one language.
type Title struct {
	Text    string `json:"text"`
	Lang    string `json:"lang"`
	Primary bool   `json:"primary,omitempty"`
}

// TitleGroup holds a node's ordered title variants.
type TitleGroup struct {
	titles []Title
}

// Add appends a title variant. At most one title per language may be
// primary unless replacePrimary is set, in which case the previous primary
// is demoted. Adding an exact (text, lang) duplicate is a no-op.
func (tg *TitleGroup) Add(text, lang string, primary, replacePrimary bool) error {
	for _, t := range tg.titles {
		if t.Text == text && t.Lang == lang {
			return nil
		}
	}
	if primary {
		for i, t := range tg.titles {
			if t.Lang == lang && t.Primary {
				if !replacePrimary {
					return &errors.SchemaError{
						Message: fmt.Sprintf("%s already has a primary %s title", t.Text, lang),
					}
				}
				tg.titles[i].Primary = false
			}
		}
	}
	tg.titles = append(tg.titles, Title{Text: text, Lang: lang, Primary: primary})
	return nil
}

// Primary returns the primary title for lang, or "" when none is set.
func (tg *TitleGroup) Primary(lang string) string {
	for _, t := range tg.titles {
		if t.Lang == lang && t.Primary {
			return t.Text
		}
	}
	return ""
}

// Variants returns all title texts for lang.
func (tg *TitleGroup) Variants(lang string) []string {
	var out []string
	for _, t := range tg.titles {
		if t.Lang == lang {
			out = append(out, t.Text)
		}
	}
	return out
}

// All returns the full ordered title list.
func (tg *TitleGroup) All() []Title {
	return tg.titles
}

// Len returns the number of title variants.
func (tg *TitleGroup) Len() int {
	return len(tg.titles)
}

// TermResolver resolves a shared-title term name into its title variants.
// The library's term store implements this.
type TermResolver interface {
	ResolveTerm(name string) ([]Title, bool)
}
