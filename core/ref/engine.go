package ref

import (
	"regexp"
	"strings"

	"github.com/sifria/mareh/core/cache"
	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/core/schema"
)

// Engine parses citations against a library and owns the identity cache.
//
// The cache is keyed by both the raw input string and the computed normal
// form, so two spellings of one citation collapse to a single live Ref.
// Two goroutines racing to parse the same citation converge on the first
// successful insert; the loser's instance is discarded.
type Engine struct {
	lib    *library.Library
	refs   cache.Cache[string, *Ref]
	rexps  cache.Cache[string, *regexp.Regexp]
	counts SectionIndex
}

// Option configures an Engine.
type Option func(*Engine)

// WithSectionIndex replaces the engine's section index collaborator,
// which supplies populated-section adjacency and section sizes.
func WithSectionIndex(si SectionIndex) Option {
	return func(e *Engine) { e.counts = si }
}

// WithCacheSize bounds the identity cache (0 = unlimited).
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		cfg := cache.DefaultConfig()
		cfg.MaxSize = n
		e.refs = cache.NewLRUCache[string, *Ref](cfg)
	}
}

// NewEngine builds an engine over lib. The engine subscribes to library
// mutations and drops its caches when the registry changes.
func NewEngine(lib *library.Library, opts ...Option) *Engine {
	e := &Engine{
		lib:    lib,
		refs:   cache.NewLRUCache[string, *Ref](cache.DefaultConfig()),
		rexps:  cache.NewLRUCache[string, *regexp.Regexp](cache.DefaultConfig()),
		counts: NewMemoryCounts(),
	}
	for _, opt := range opts {
		opt(e)
	}
	lib.Subscribe(func(library.Event) {
		e.refs.Clear()
		e.rexps.Clear()
	})
	return e
}

// Library returns the engine's registry.
func (e *Engine) Library() *library.Library { return e.lib }

// Counts returns the engine's section index collaborator.
func (e *Engine) Counts() SectionIndex { return e.counts }

// CacheStats reports identity-cache statistics.
func (e *Engine) CacheStats() cache.Stats { return e.refs.Stats() }

// Parse resolves a citation string to its Ref. Repeated and equivalent
// inputs return the same cached instance.
func (e *Engine) Parse(tref string) (*Ref, error) {
	raw := normalizeInput(tref)
	if raw == "" {
		return nil, &errors.InputError{Kind: errors.KindMalformed, Input: tref, Message: "empty reference"}
	}
	if r, ok := e.refs.Get(raw); ok {
		return r, nil
	}

	var r *Ref
	var err error
	if isHebrew(raw) {
		r, err = e.parseHebrew(raw)
	} else {
		r, err = e.parseEnglish(raw)
	}
	if err != nil {
		return nil, err
	}

	winner := e.intern(r)
	if raw != winner.normal {
		e.refs.Put(raw, winner)
	}
	return winner, nil
}

// MustParse is Parse that panics on error, for tests and fixtures.
func (e *Engine) MustParse(tref string) *Ref {
	r, err := e.Parse(tref)
	if err != nil {
		panic(err)
	}
	return r
}

// intern installs r under its normal form, converging on any previously
// cached instance.
func (e *Engine) intern(r *Ref) *Ref {
	winner, _ := e.refs.GetOrPut(r.normal, r)
	return winner
}

// fromFields reconstructs a Ref from already-resolved fields, used when
// deriving related refs without re-parsing. Section slices are copied.
// This path intentionally skips range-order validation; derived refs may
// carry synthetic bounds.
func (e *Engine) fromFields(entry index.Entry, node *schema.JaggedArrayNode, book string, sections, toSections []int) (*Ref, error) {
	r := &Ref{
		engine:     e,
		book:       book,
		entry:      entry,
		node:       node,
		sections:   append([]int{}, sections...),
		toSections: append([]int{}, toSections...),
	}
	normal, err := r.computeNormal()
	if err != nil {
		return nil, err
	}
	r.normal = normal
	return e.intern(r), nil
}

// normalizeInput undoes URL encoding conventions and collapses runs of
// whitespace.
func normalizeInput(tref string) string {
	s := strings.ReplaceAll(tref, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// isHebrew reports whether the citation is written in Hebrew script.
func isHebrew(s string) bool {
	for _, r := range s {
		if r >= 0x0590 && r <= 0x05FF {
			return true
		}
	}
	return false
}

// nodeRegex returns the compiled anchored section pattern for node in
// lang, cached per node identity.
func (e *Engine) nodeRegex(node *schema.JaggedArrayNode, lang string) (*regexp.Regexp, error) {
	key := lang + "\x00" + node.FullTitle("en") + "\x00" + node.Key()
	if re, ok := e.rexps.Get(key); ok {
		return re, nil
	}
	re, err := regexp.Compile(`^` + node.Regex(lang, schema.RegexOpts{GroupPrefix: "a"}) + `$`)
	if err != nil {
		return nil, err
	}
	e.rexps.Put(key, re)
	return re, nil
}
