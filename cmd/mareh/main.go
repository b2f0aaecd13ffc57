// Command mareh is the CLI for the citation reference engine.
// It parses citations, scans free text, manages the text catalog, and
// serves the REST API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/sifria/mareh/core/catalog"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/core/ref"
	"github.com/sifria/mareh/core/sqlite"
	"github.com/sifria/mareh/internal/api"
	"github.com/sifria/mareh/internal/config"
	"github.com/sifria/mareh/internal/logging"
	"github.com/sifria/mareh/internal/metrics"
)

const version = "0.1.0"

// CLI defines the command-line interface for mareh.
var CLI struct {
	// Global flags
	CatalogPath string `name:"catalog" short:"c" help:"Catalog database path (empty = built-in seed catalog)" type:"path"`
	LogLevel    string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat   string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`
	JSON        bool   `name:"json" help:"Emit machine-readable JSON output"`

	Parse   ParseCmd     `cmd:"" help:"Parse a citation and print its normal form"`
	Scan    ScanCmd      `cmd:"" help:"Scan free text for citations"`
	Titles  TitlesCmd    `cmd:"" help:"List recognizable titles"`
	Catalog CatalogGroup `cmd:"" help:"Catalog operations (seed, list, export, import)"`
	Serve   ServeCmd     `cmd:"" help:"Start REST API server"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// CatalogGroup contains catalog lifecycle operations.
type CatalogGroup struct {
	Seed   CatalogSeedCmd   `cmd:"" help:"Initialize a catalog database with the built-in texts"`
	List   CatalogListCmd   `cmd:"" help:"List catalogued texts"`
	Show   CatalogShowCmd   `cmd:"" help:"Print a text's catalog record"`
	Delete CatalogDeleteCmd `cmd:"" help:"Remove a text from the catalog"`
	Export CatalogExportCmd `cmd:"" help:"Export the catalog as an xz-compressed bundle"`
	Import CatalogImportCmd `cmd:"" help:"Import an xz-compressed catalog bundle"`
}

// buildEngine loads the library (from the catalog database when given,
// else the built-in seed) and wires a parse engine over it.
func buildEngine() (*ref.Engine, *catalog.Store, error) {
	return buildEngineOpts(true)
}

func buildEngineOpts(seedIfEmpty bool) (*ref.Engine, *catalog.Store, error) {
	lib := library.New()
	counts := ref.NewMemoryCounts()

	var store *catalog.Store
	if CLI.CatalogPath != "" {
		var err error
		store, err = catalog.Open(CLI.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.LoadLibrary(lib); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	if seedIfEmpty && len(lib.TextTitles()) == 0 {
		if err := library.Seed(lib); err != nil {
			if store != nil {
				store.Close()
			}
			return nil, nil, err
		}
	}
	for book, shape := range library.SeedShapes() {
		counts.SetShape(book, shape)
	}

	engine := ref.NewEngine(lib, ref.WithSectionIndex(counts))
	return engine, store, nil
}

// ParseCmd parses a single citation.
type ParseCmd struct {
	Ref []string `arg:"" help:"Citation to parse, e.g. 'Genesis 4:5-8'"`
}

func (c *ParseCmd) Run() error {
	engine, store, err := buildEngine()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	parsed, err := engine.Parse(strings.Join(c.Ref, " "))
	if err != nil {
		return err
	}
	if CLI.JSON {
		return printJSON(map[string]interface{}{
			"ref":        parsed.Normal(),
			"book":       parsed.Book(),
			"sections":   parsed.Sections(),
			"toSections": parsed.ToSections(),
			"url":        parsed.URL(),
			"type":       parsed.Type(),
			"isRange":    parsed.IsRange(),
			"isSpanning": parsed.IsSpanning(),
		})
	}
	fmt.Println(parsed.Normal())
	return nil
}

// ScanCmd scans free text for citations.
type ScanCmd struct {
	Text []string `arg:"" optional:"" help:"Text to scan (reads stdin when omitted)"`
	File string   `name:"file" short:"f" help:"Read text from file" type:"existingfile"`
}

func (c *ScanCmd) Run() error {
	engine, store, err := buildEngine()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var text string
	switch {
	case c.File != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return err
		}
		text = string(data)
	case len(c.Text) > 0:
		text = strings.Join(c.Text, " ")
	default:
		data, err := readAllStdin()
		if err != nil {
			return err
		}
		text = data
	}

	citations := engine.RefsInString(text)
	if CLI.JSON {
		type hit struct {
			Text  string `json:"text"`
			Start int    `json:"start"`
			End   int    `json:"end"`
			Ref   string `json:"ref"`
		}
		hits := make([]hit, 0, len(citations))
		for _, c := range citations {
			hits = append(hits, hit{Text: c.Text, Start: c.Start, End: c.End, Ref: c.Ref.Normal()})
		}
		return printJSON(hits)
	}
	for _, cit := range citations {
		fmt.Printf("%d\t%s\t%s\n", cit.Start, cit.Text, cit.Ref.Normal())
	}
	return nil
}

// TitlesCmd lists every recognizable title.
type TitlesCmd struct {
	Lang string `name:"lang" default:"en" enum:"en,he" help:"Title language"`
}

func (c *TitlesCmd) Run() error {
	engine, store, err := buildEngine()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	titles := engine.Library().FullTitleList(c.Lang)
	if CLI.JSON {
		return printJSON(titles)
	}
	for _, t := range titles {
		fmt.Println(t)
	}
	return nil
}

// CatalogSeedCmd writes the built-in seed catalog into a database.
type CatalogSeedCmd struct{}

func (c *CatalogSeedCmd) Run() error {
	if CLI.CatalogPath == "" {
		return fmt.Errorf("catalog seed requires --catalog")
	}
	store, err := catalog.Open(CLI.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	lib := library.New()
	if err := library.Seed(lib); err != nil {
		return err
	}
	if err := store.SaveLibrary(lib); err != nil {
		return err
	}
	fmt.Printf("seeded %d texts into %s\n", len(lib.TextTitles()), CLI.CatalogPath)
	return nil
}

// CatalogListCmd lists catalogued text titles.
type CatalogListCmd struct{}

func (c *CatalogListCmd) Run() error {
	engine, store, err := buildEngine()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	titles := engine.Library().TextTitles()
	if CLI.JSON {
		return printJSON(titles)
	}
	for _, t := range titles {
		fmt.Println(t)
	}
	return nil
}

// CatalogShowCmd prints a text's full catalog record.
type CatalogShowCmd struct {
	Title []string `arg:"" help:"Text title"`
}

func (c *CatalogShowCmd) Run() error {
	engine, store, err := buildEngine()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	entry, err := engine.Library().GetIndex(strings.Join(c.Title, " "))
	if err != nil {
		return err
	}
	if idx, ok := entry.(*index.Index); ok {
		return printJSON(idx.Record())
	}
	return printJSON(map[string]interface{}{
		"title":      entry.Title(),
		"categories": entry.Categories(),
		"kind":       entry.Kind(),
	})
}

// CatalogDeleteCmd removes a text from the catalog database.
type CatalogDeleteCmd struct {
	Title []string `arg:"" help:"Text title"`
}

func (c *CatalogDeleteCmd) Run() error {
	if CLI.CatalogPath == "" {
		return fmt.Errorf("catalog delete requires --catalog")
	}
	store, err := catalog.Open(CLI.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.DeleteIndex(strings.Join(c.Title, " "))
}

// CatalogExportCmd exports the catalog as a portable bundle.
type CatalogExportCmd struct {
	Out string `arg:"" help:"Output bundle path" type:"path"`
}

func (c *CatalogExportCmd) Run() error {
	if CLI.CatalogPath == "" {
		return fmt.Errorf("catalog export requires --catalog")
	}
	store, err := catalog.Open(CLI.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ExportFile(c.Out); err != nil {
		return err
	}
	fmt.Printf("exported catalog to %s\n", c.Out)
	return nil
}

// CatalogImportCmd imports a portable catalog bundle.
type CatalogImportCmd struct {
	In string `arg:"" help:"Input bundle path" type:"existingfile"`
}

func (c *CatalogImportCmd) Run() error {
	if CLI.CatalogPath == "" {
		return fmt.Errorf("catalog import requires --catalog")
	}
	store, err := catalog.Open(CLI.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	bundle, err := store.ImportFile(c.In)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d texts, %d terms\n", len(bundle.Indices), len(bundle.Terms))
	return nil
}

// ServeCmd starts the REST API server.
type ServeCmd struct{}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))

	if CLI.CatalogPath == "" && cfg.Catalog.Path != "" {
		CLI.CatalogPath = cfg.Catalog.Path
	}
	engine, store, err := buildEngineOpts(cfg.Catalog.SeedEnabled())
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	m := metrics.New(nil)
	m.CatalogTextsTotal.Set(float64(len(engine.Library().TextTitles())))
	server := api.NewServer(cfg.Server, engine, store, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("mareh %s (sqlite driver: %s/%s)\n", version, info.DriverType, info.DriverName)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readAllStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mareh"),
		kong.Description("mareh - citation reference engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
