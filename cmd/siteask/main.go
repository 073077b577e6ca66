package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/genai"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/crawl"
	"github.com/fwojciec/siteask/gemini"
	"github.com/fwojciec/siteask/goquery"
	"github.com/fwojciec/siteask/htmltomarkdown"
	sitehttp "github.com/fwojciec/siteask/http"
	"github.com/fwojciec/siteask/mem"
	"github.com/fwojciec/siteask/prometheus"
	"github.com/fwojciec/siteask/retrieve"
	siteslog "github.com/fwojciec/siteask/slog"
	"github.com/fwojciec/siteask/sqlite"
	"github.com/fwojciec/siteask/trafilatura"
	"github.com/fwojciec/siteask/upload"
)

const generationModel = "gemini-2.5-flash"

// crawlRPS limits fetches per domain.
const (
	crawlRPS   = 2.0
	crawlBurst = 4
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database path. Empty keeps assets in memory for the lifetime
	// of the process. Set before calling Run().
	DBPath string

	// DB is set when DBPath selects SQLite storage.
	DB *sqlite.DB

	// Store holds crawled and uploaded assets, for end-to-end testing.
	Store siteask.AssetStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: os.Getenv("SITEASK_DB"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("siteask"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'siteask --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = slog.New(slog.NewTextHandler(stderr, nil))

	// Asset storage: SQLite when a path is configured, memory otherwise.
	if m.DBPath != "" {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: set SITEASK_DB to a writable path")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		defer m.Close()
		m.Store = sqlite.NewAssetStore(m.DB)
	} else {
		m.Store = mem.NewAssetStore()
	}
	deps.Store = m.Store

	deps.Metrics = prometheus.NewMetrics(promclient.DefaultRegisterer)
	deps.MetricsHandler = promhttp.Handler()
	deps.Decoder = upload.NewDecoder()

	// The retrieval index counts tokens with the model tokenizer when
	// available, approximating otherwise.
	indexOpts := []retrieve.Option{}
	if tc, err := gemini.NewTokenCounter(generationModel); err == nil {
		indexOpts = append(indexOpts, retrieve.WithTokenCounter(tc))
	} else {
		deps.Logger.Warn("local tokenizer unavailable, approximating token counts", "error", err)
	}
	deps.Index = retrieve.NewIndex(indexOpts...)

	fetcher := siteslog.NewLoggingFetcher(sitehttp.NewFetcher(), deps.Logger)
	defer fetcher.Close()

	deps.Crawler = &crawl.Crawler{
		Fetcher:   fetcher,
		Extractor: trafilatura.NewExtractor(),
		Converter: htmltomarkdown.NewConverter(),
		Pages:     goquery.NewPageParser(),
		Assets:    deps.Store,
		Index:     deps.Index,
		Decoder:   deps.Decoder,
		Limiter:   crawl.NewDomainLimiter(crawlRPS, crawlBurst),
		Sitemaps:  siteslog.NewLoggingSitemapSeeder(sitehttp.NewSitemapSeeder(nil), deps.Logger),
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}

	if cmd == "serve" || cmd == "ask" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		deps.Generator = gemini.NewGenerator(client, generationModel)
	}

	return kongCtx.Run(deps)
}
