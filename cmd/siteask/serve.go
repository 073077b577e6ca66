package main

import (
	"fmt"
	"os/signal"
	"syscall"

	chiserver "github.com/fwojciec/siteask/chi"
)

// Run executes the serve command: crawl first, then serve until interrupted.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if err := c.runCrawl(deps); err != nil {
		return err
	}

	srv := &chiserver.Server{
		Addr:           c.Addr,
		Store:          deps.Store,
		Retriever:      deps.Index,
		Indexer:        deps.Index,
		Generator:      deps.Generator,
		Decoder:        deps.Decoder,
		Logger:         deps.Logger,
		Metrics:        deps.Metrics,
		MetricsHandler: deps.MetricsHandler,
	}

	if err := srv.Open(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Serving on %s\n", srv.URL())

	ctx, stop := signal.NotifyContext(deps.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(deps.Stdout, "Shutting down")
	return srv.Close()
}
