package ref

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// rangeTail is the participle grammar for the section list after a range
// hyphen. Examples: "8", "5:8", "25a", "25a:10".
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeTail struct {
	Parts []string `parser:"@Section ( ( ':' | '.' | ',' ) @Section )*"`
}

// rangeLexer tokenizes range tails: a section numeral with an optional
// amud letter, separators, and ignorable whitespace.
var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Section", Pattern: `\d+[ab]?`},
	{Name: "Punct", Pattern: `[:.,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// rangeParser is the participle parser for range tails.
var rangeParser = participle.MustBuild[rangeTail](
	participle.Lexer(rangeLexer),
	participle.Elide("Whitespace"),
)

// parseRangeTail splits the text after a range hyphen into raw section
// tokens, deepest level last.
func parseRangeTail(s string) ([]string, error) {
	parsed, err := rangeParser.ParseString("", s)
	if err != nil {
		return nil, err
	}
	return parsed.Parts, nil
}
