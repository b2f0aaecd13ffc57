// Package library maintains the process-wide registry of known titles.
//
// The library owns the loaded Index records and the derived lookup state:
// per-language title-to-node maps and compiled all-titles patterns, with
// and without commentary forms. Derived state is rebuilt as a unit on any
// catalog mutation; readers run under a shared lock and never observe a
// half-updated registry.
package library

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
	"github.com/sifria/mareh/internal/logging"
)

// Langs supported by the registry.
var Langs = []string{"en", "he"}

// commentaryJoin is the connective between commentator and base titles.
var commentaryJoin = map[string]string{
	"en": " on ",
	"he": " על ",
}

// TitleRecord binds one recognized title to its schema node and owning index.
type TitleRecord struct {
	Node  schema.Node
	Index *index.Index
}

// Event describes a registry mutation, delivered to subscribers after the
// derived caches have been rebuilt.
type Event struct {
	Op    string `json:"op"` // "add", "remove" or "rebuild"
	Title string `json:"title,omitempty"`
}

// Library is the registry and cache of all known titles.
type Library struct {
	mu      sync.RWMutex
	indices map[string]*index.Index
	terms   map[string]*index.Term

	// Derived state, replaced wholesale by rebuild.
	titles       map[string]map[string]TitleRecord // lang -> title -> record
	commentators map[string][]string               // lang -> commentator titles
	patterns     map[patternKey]*regexp.Regexp
	maps         map[string]string // shorthand -> canonical citation

	// Synthesized commentary entries, cached on first resolution.
	commentaries map[string]*index.Commentary

	listeners []func(Event)
}

type patternKey struct {
	lang       string
	commentary bool
	anchored   bool
}

// New creates an empty library.
func New() *Library {
	l := &Library{
		indices:      make(map[string]*index.Index),
		terms:        make(map[string]*index.Term),
		commentaries: make(map[string]*index.Commentary),
	}
	l.rebuildLocked()
	return l
}

// ResolveTerm implements schema.TermResolver.
func (l *Library) ResolveTerm(name string) ([]schema.Title, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.terms[name]
	if !ok {
		return nil, false
	}
	return t.Titles, true
}

// AddTerm registers a shared-title term. Terms referenced by schema
// documents must be added before the indices that use them.
func (l *Library) AddTerm(t *index.Term) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.terms[t.Name] = t
}

// Terms returns the registered shared-title terms, sorted by name.
func (l *Library) Terms() []*index.Term {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*index.Term, 0, len(l.terms))
	for _, t := range l.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddIndex loads a catalog record into the registry and rebuilds the
// derived caches. The record's title and every title variant must be
// unused by other indices.
func (l *Library) AddIndex(record *index.Record) (*index.Index, error) {
	idx, err := index.New(record, l)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, lang := range Langs {
		for title := range titleDictionary(idx, lang) {
			if existing, taken := l.titles[lang][title]; taken && existing.Index.Title() != idx.Title() {
				l.mu.Unlock()
				return nil, &errors.SchemaError{
					Path:    idx.Title(),
					Message: "title " + title + " already belongs to " + existing.Index.Title(),
				}
			}
		}
	}
	l.indices[idx.Title()] = idx
	l.rebuildLocked()
	l.mu.Unlock()

	l.notify(Event{Op: "add", Title: idx.Title()})
	logging.Info("library_index_added", "title", idx.Title())
	return idx, nil
}

// RemoveIndex drops a record and rebuilds the derived caches.
func (l *Library) RemoveIndex(title string) error {
	l.mu.Lock()
	if _, ok := l.indices[title]; !ok {
		l.mu.Unlock()
		return &errors.BookNameError{Title: title}
	}
	delete(l.indices, title)
	l.rebuildLocked()
	l.mu.Unlock()

	l.notify(Event{Op: "remove", Title: title})
	logging.Info("library_index_removed", "title", title)
	return nil
}

// Rebuild recomputes all derived caches from the loaded indices.
func (l *Library) Rebuild() {
	l.mu.Lock()
	l.rebuildLocked()
	l.mu.Unlock()

	l.notify(Event{Op: "rebuild"})
}

// Subscribe registers a listener for registry mutations. Listeners are
// invoked synchronously after the caches have been rebuilt, outside the
// registry lock, so they may call back into the library.
func (l *Library) Subscribe(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// notify dispatches ev to a snapshot of the listener list. The registry
// lock must not be held: listeners read the library.
func (l *Library) notify(ev Event) {
	l.mu.RLock()
	listeners := append([]func(Event){}, l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// rebuildLocked rebuilds every derived structure. Caller holds the write
// lock. Rebuild is deliberately all-or-nothing; the pattern caches and the
// title maps they complement always change together.
func (l *Library) rebuildLocked() {
	titles := make(map[string]map[string]TitleRecord, len(Langs))
	commentators := make(map[string][]string, len(Langs))
	maps := make(map[string]string)

	for _, lang := range Langs {
		titles[lang] = make(map[string]TitleRecord)
	}

	for _, idx := range l.indices {
		for _, lang := range Langs {
			for title, node := range titleDictionary(idx, lang) {
				titles[lang][title] = TitleRecord{Node: node, Index: idx}
			}
			if idx.IsCommentator() {
				commentators[lang] = append(commentators[lang], idx.Root().Titles().Variants(lang)...)
			}
		}
		for shorthand, target := range idx.Maps() {
			maps[shorthand] = target
		}
	}

	l.titles = titles
	l.commentators = commentators
	l.maps = maps
	l.commentaries = make(map[string]*index.Commentary)

	l.patterns = make(map[patternKey]*regexp.Regexp)
	for _, lang := range Langs {
		for _, commentary := range []bool{false, true} {
			for _, anchored := range []bool{false, true} {
				key := patternKey{lang: lang, commentary: commentary, anchored: anchored}
				if p := l.compilePattern(key); p != nil {
					l.patterns[key] = p
				}
			}
		}
	}
}

// titleDictionary composes every recognizable title of the index's tree in
// lang, mapping to the node it names. Child node variants are prefixed
// with the parent's primary title chain; default nodes are reachable under
// their parent's own titles.
func titleDictionary(idx *index.Index, lang string) map[string]schema.Node {
	out := make(map[string]schema.Node)
	var walk func(n schema.Node)
	walk = func(n schema.Node) {
		if !n.IsDefault() {
			prefix := ""
			if p := n.Parent(); p != nil {
				prefix = p.FullTitle(lang)
			}
			for _, v := range n.Titles().Variants(lang) {
				title := v
				if prefix != "" {
					title = prefix + ", " + v
				}
				out[title] = n
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(idx.Root())
	return out
}

// compilePattern builds one of the four (per anchoring) title alternation
// patterns. Alternatives are sorted longest-first so that the preferred
// match is always the most specific title.
func (l *Library) compilePattern(key patternKey) *regexp.Regexp {
	books := sortedTitles(l.titles[key.lang])
	if len(books) == 0 {
		return nil
	}

	var pattern string
	if key.commentary {
		comms := append([]string{}, l.commentators[key.lang]...)
		if len(comms) == 0 {
			return nil
		}
		sortLongestFirst(comms)
		pattern = `(?P<commentor>` + alternation(comms) + `)` +
			regexp.QuoteMeta(commentaryJoin[key.lang]) +
			`(?P<commentee>` + alternation(books) + `)`
	} else {
		// Shorthand map keys are recognizable titles too; the parser
		// rewrites them to their targets before resolving.
		for shorthand := range l.maps {
			books = append(books, shorthand)
		}
		sortLongestFirst(books)
		pattern = `(?P<title>` + alternation(books) + `)`
	}
	if key.anchored {
		pattern = `^` + pattern
	}
	return regexp.MustCompile(pattern)
}

func sortedTitles(m map[string]TitleRecord) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sortLongestFirst(out)
	return out
}

func sortLongestFirst(titles []string) {
	sort.Slice(titles, func(i, j int) bool {
		if len(titles[i]) != len(titles[j]) {
			return len(titles[i]) > len(titles[j])
		}
		return titles[i] < titles[j]
	})
}

func alternation(titles []string) string {
	quoted := make([]string, len(titles))
	for i, t := range titles {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

// TitlesRegex returns the compiled alternation of all known titles in
// lang. With commentary set, the pattern instead recognizes
// "Commentator on Book" pairs. Returns nil when the registry has no
// matching titles.
func (l *Library) TitlesRegex(lang string, commentary bool) *regexp.Regexp {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.patterns[patternKey{lang: lang, commentary: commentary}]
}

// AnchoredTitlesRegex is TitlesRegex anchored at the start of input, used
// when parsing a lone citation rather than scanning running text.
func (l *Library) AnchoredTitlesRegex(lang string, commentary bool) *regexp.Regexp {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.patterns[patternKey{lang: lang, commentary: commentary, anchored: true}]
}

// GetTitleNode returns the schema node a title names in lang.
func (l *Library) GetTitleNode(title, lang string) (schema.Node, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.titles[lang][title]
	if !ok {
		return nil, false
	}
	return rec.Node, true
}

// Resolve returns the title's record: its node and owning index.
func (l *Library) Resolve(title, lang string) (TitleRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.titles[lang][title]
	return rec, ok
}

// GetIndex resolves a canonical title to its entry. "Commentator on Book"
// titles synthesize (and cache) a commentary entry.
func (l *Library) GetIndex(title string) (index.Entry, error) {
	l.mu.RLock()
	if idx, ok := l.indices[title]; ok {
		l.mu.RUnlock()
		return idx, nil
	}
	if rec, ok := l.titles["en"][title]; ok {
		l.mu.RUnlock()
		return rec.Index, nil
	}
	if c, ok := l.commentaries[title]; ok {
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	for _, lang := range Langs {
		join := commentaryJoin[lang]
		if parts := strings.SplitN(title, join, 2); len(parts) == 2 {
			return l.getCommentary(parts[0], parts[1], lang)
		}
	}
	return nil, &errors.BookNameError{Title: title}
}

func (l *Library) getCommentary(commentator, book, lang string) (index.Entry, error) {
	l.mu.RLock()
	commRec, commOK := l.titles[lang][commentator]
	bookRec, bookOK := l.titles[lang][book]
	l.mu.RUnlock()

	if !commOK || !commRec.Index.IsCommentator() {
		return nil, &errors.BookNameError{Title: commentator, Part: "commentator"}
	}
	if !bookOK {
		return nil, &errors.BookNameError{Title: book, Part: "base text"}
	}

	c, err := index.NewCommentary(commRec.Index, bookRec.Index)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.commentaries[c.Title()]; ok {
		return cached, nil
	}
	l.commentaries[c.Title()] = c
	return c, nil
}

// SubstituteMap rewrites a shorthand title to its canonical citation.
func (l *Library) SubstituteMap(s string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	target, ok := l.maps[s]
	return target, ok
}

// SubstitutePrefix rewrites s when it is a shorthand title or begins with
// one followed by a citation delimiter, keeping the tail intact.
func (l *Library) SubstitutePrefix(s string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if target, ok := l.maps[s]; ok {
		return target, true
	}
	for shorthand, target := range l.maps {
		if strings.HasPrefix(s, shorthand) && len(s) > len(shorthand) {
			switch s[len(shorthand)] {
			case ' ', ',', '.', ':':
				return target + s[len(shorthand):], true
			}
		}
	}
	return s, false
}

// FullTitleList returns every recognizable title in lang, including
// shorthand map keys, sorted longest first.
func (l *Library) FullTitleList(lang string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	titles := sortedTitles(l.titles[lang])
	for shorthand := range l.maps {
		titles = append(titles, shorthand)
	}
	sortLongestFirst(titles)
	return titles
}

// TextTitles returns the canonical titles of all loaded indices, sorted.
func (l *Library) TextTitles() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.indices))
	for t := range l.indices {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Commentators returns the commentator title list for lang.
func (l *Library) Commentators(lang string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.commentators[lang]...)
}
