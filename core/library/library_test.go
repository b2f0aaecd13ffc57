package library

import (
	"testing"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/schema"
)

func seeded(t *testing.T) *Library {
	t.Helper()
	lib := New()
	if err := Seed(lib); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return lib
}

func TestSeedLoads(t *testing.T) {
	lib := seeded(t)
	titles := lib.TextTitles()
	if len(titles) != len(SeedRecords()) {
		t.Errorf("TextTitles has %d entries, seed has %d records", len(titles), len(SeedRecords()))
	}
	for i := 1; i < len(titles); i++ {
		if titles[i-1] >= titles[i] {
			t.Errorf("TextTitles not sorted: %q before %q", titles[i-1], titles[i])
		}
	}
}

func TestResolveVariants(t *testing.T) {
	lib := seeded(t)
	tests := []struct {
		title string
		lang  string
		want  string // owning index
	}{
		{"Genesis", "en", "Genesis"},
		{"Gen", "en", "Genesis"},
		{"Bereshit", "en", "Genesis"},
		{"בראשית", "he", "Genesis"},
		{"Mishneh Torah, Laws of Repentance", "en", "Mishneh Torah"},
		{"Mishneh Torah, Hilchot Teshuvah", "en", "Mishneh Torah"},
		{"Shulchan Arukh, Orach Chayim", "en", "Shulchan Arukh"},
		{"Shulchan Arukh, OC", "en", "Shulchan Arukh"},
		{"שולחן ערוך, אורח חיים", "he", "Shulchan Arukh"},
		{"Pesach Haggadah, Kadesh", "en", "Pesach Haggadah"},
	}
	for _, tt := range tests {
		rec, ok := lib.Resolve(tt.title, tt.lang)
		if !ok {
			t.Errorf("Resolve(%q, %s) not found", tt.title, tt.lang)
			continue
		}
		if rec.Index.Title() != tt.want {
			t.Errorf("Resolve(%q, %s) owned by %q, want %q", tt.title, tt.lang, rec.Index.Title(), tt.want)
		}
	}

	if _, ok := lib.Resolve("Nonesuch", "en"); ok {
		t.Error("Resolve found an unknown title")
	}
}

func TestAddIndexRejectsTitleCollision(t *testing.T) {
	lib := seeded(t)
	_, err := lib.AddIndex(&index.Record{
		Title:         "Second Genesis",
		SectionNames:  []string{"Chapter"},
		TitleVariants: []string{"Gen"},
	})
	if err == nil {
		t.Fatal("AddIndex accepted a colliding title variant")
	}
	var serr *errors.SchemaError
	if !errors.As(err, &serr) {
		t.Errorf("error type = %T", err)
	}
	// The rejected record must leave the registry untouched.
	if _, ok := lib.Resolve("Second Genesis", "en"); ok {
		t.Error("rejected index is resolvable")
	}
}

func TestRemoveIndex(t *testing.T) {
	lib := seeded(t)
	if err := lib.RemoveIndex("Exodus"); err != nil {
		t.Fatalf("RemoveIndex: %v", err)
	}
	if _, ok := lib.Resolve("Exodus", "en"); ok {
		t.Error("removed title still resolvable")
	}
	if _, ok := lib.Resolve("Shemot", "en"); ok {
		t.Error("removed title's variant still resolvable")
	}
	if err := lib.RemoveIndex("Exodus"); !errors.Is(err, errors.ErrBookName) {
		t.Errorf("second remove = %v, want ErrBookName", err)
	}
}

func TestGetIndexCommentary(t *testing.T) {
	lib := seeded(t)

	entry, err := lib.GetIndex("Rashi on Genesis")
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if entry.Kind() != index.KindCommentary {
		t.Errorf("Kind = %q", entry.Kind())
	}
	if entry.Title() != "Rashi on Genesis" {
		t.Errorf("Title = %q", entry.Title())
	}

	// Synthesized entries are cached; a second lookup returns the same one.
	again, err := lib.GetIndex("Rashi on Genesis")
	if err != nil {
		t.Fatal(err)
	}
	if entry != again {
		t.Error("second lookup synthesized a new commentary entry")
	}

	if _, err := lib.GetIndex("Genesis on Rashi"); !errors.Is(err, errors.ErrBookName) {
		t.Errorf("non-commentator lookup = %v, want ErrBookName", err)
	}
	if _, err := lib.GetIndex("Rashi on Nonesuch"); !errors.Is(err, errors.ErrBookName) {
		t.Errorf("unknown base lookup = %v, want ErrBookName", err)
	}
}

func TestTitlesRegexLongestFirst(t *testing.T) {
	lib := seeded(t)
	re := lib.AnchoredTitlesRegex("en", false)
	if re == nil {
		t.Fatal("no anchored title pattern")
	}
	// "Mishnah Shabbat" must win over the shorter "Shabbat".
	m := re.FindStringSubmatch("Mishnah Shabbat 2:5")
	if m == nil || m[0] != "Mishnah Shabbat" {
		t.Errorf("matched %q, want the longer title", m)
	}
	m = re.FindStringSubmatch("Shabbat 21b")
	if m == nil || m[0] != "Shabbat" {
		t.Errorf("matched %q", m)
	}
}

func TestCommentaryRegex(t *testing.T) {
	lib := seeded(t)
	re := lib.AnchoredTitlesRegex("en", true)
	if re == nil {
		t.Fatal("no commentary pattern")
	}
	m := re.FindStringSubmatch("Rashi on Genesis 4:5")
	if m == nil {
		t.Fatal("commentary citation did not match")
	}
	groups := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	if groups["commentor"] != "Rashi" || groups["commentee"] != "Genesis" {
		t.Errorf("groups = %v", groups)
	}
}

func TestSubstitutePrefix(t *testing.T) {
	lib := seeded(t)
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Rambam Repentance", "Mishneh Torah, Laws of Repentance", true},
		{"Rambam Repentance 3:4", "Mishneh Torah, Laws of Repentance 3:4", true},
		{"Rambam Repentance:2", "Mishneh Torah, Laws of Repentance:2", true},
		{"Rambam Repentances", "Rambam Repentances", false},
		{"Genesis 4:5", "Genesis 4:5", false},
	}
	for _, tt := range tests {
		got, ok := lib.SubstitutePrefix(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SubstitutePrefix(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSubscribeEvents(t *testing.T) {
	lib := seeded(t)
	var events []Event
	lib.Subscribe(func(ev Event) { events = append(events, ev) })

	if _, err := lib.AddIndex(&index.Record{
		Title:        "Jonah",
		Categories:   []string{"Tanakh", "Prophets"},
		SectionNames: []string{"Chapter", "Verse"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := lib.RemoveIndex("Jonah"); err != nil {
		t.Fatal(err)
	}
	lib.Rebuild()

	want := []Event{
		{Op: "add", Title: "Jonah"},
		{Op: "remove", Title: "Jonah"},
		{Op: "rebuild"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestSubscriberMayReadLibrary(t *testing.T) {
	lib := seeded(t)
	var counts []int
	lib.Subscribe(func(ev Event) {
		// Reading back during the event must not block on the
		// registry lock.
		counts = append(counts, len(lib.TextTitles()))
	})

	before := len(lib.TextTitles())
	if _, err := lib.AddIndex(&index.Record{
		Title:        "Jonah",
		Categories:   []string{"Tanakh", "Prophets"},
		SectionNames: []string{"Chapter", "Verse"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := lib.RemoveIndex("Jonah"); err != nil {
		t.Fatal(err)
	}

	if len(counts) != 2 {
		t.Fatalf("got %d events", len(counts))
	}
	if counts[0] != before+1 || counts[1] != before {
		t.Errorf("observed counts %v around baseline %d", counts, before)
	}
}

func TestFullTitleListIncludesShorthand(t *testing.T) {
	lib := seeded(t)
	list := lib.FullTitleList("en")
	found := false
	for _, title := range list {
		if title == "Rambam Repentance" {
			found = true
		}
	}
	if !found {
		t.Error("shorthand map key missing from FullTitleList")
	}
	for i := 1; i < len(list); i++ {
		if len(list[i-1]) < len(list[i]) {
			t.Fatalf("list not longest-first at %d: %q then %q", i, list[i-1], list[i])
		}
	}
}

func TestResolveTermForSchemaBuild(t *testing.T) {
	lib := New()
	lib.AddTerm(&index.Term{
		Name:   "Orach Chayim",
		Titles: []schema.Title{{Text: "Orach Chayim", Lang: "en", Primary: true}},
	})
	titles, ok := lib.ResolveTerm("Orach Chayim")
	if !ok || len(titles) != 1 {
		t.Fatalf("ResolveTerm = %v, %v", titles, ok)
	}
	if _, ok := lib.ResolveTerm("Even HaEzer"); ok {
		t.Error("unknown term resolved")
	}
}
