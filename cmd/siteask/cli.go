package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/crawl"
	"github.com/fwojciec/siteask/retrieve"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Logger         *slog.Logger
	Store          siteask.AssetStore
	Index          *retrieve.Index
	Crawler        *crawl.Crawler
	Generator      siteask.Generator
	Decoder        siteask.UploadDecoder
	Metrics        siteask.Metrics
	MetricsHandler http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Crawl CrawlCmd `cmd:"" help:"Crawl a site into the asset store"`
	Serve ServeCmd `cmd:"" help:"Crawl a site, then serve the streaming ask API"`
	Ask   AskCmd   `cmd:"" help:"Crawl a site and answer one question"`
}

// CrawlFlags are the crawl bounds shared by every command.
type CrawlFlags struct {
	URL         string  `arg:"" env:"ROOT_URL" help:"Root URL to crawl"`
	MaxPages    int     `env:"MAX_PAGES" default:"50" help:"Successful page fetch budget"`
	MaxDepth    int     `env:"MAX_DEPTH" default:"3" help:"Maximum link depth from the root"`
	Timeout     float64 `env:"REQUEST_TIMEOUT" default:"15" help:"Per-request timeout in seconds"`
	Concurrency int     `short:"c" default:"4" help:"Concurrent fetch limit"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	CrawlFlags `embed:""`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	CrawlFlags `embed:""`
	Addr       string `env:"ADDR" default:":8080" help:"Listen address"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	CrawlFlags `embed:""`
	Question   string `arg:"" help:"Question to ask about the site"`
}
