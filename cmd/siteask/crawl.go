package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/siteask/crawl"
)

// config turns the shared flags into a crawl configuration.
func (f *CrawlFlags) config() crawl.Config {
	return crawl.Config{
		RootURL:  f.URL,
		MaxPages: f.MaxPages,
		MaxDepth: f.MaxDepth,
		Timeout:  time.Duration(f.Timeout * float64(time.Second)),
	}
}

// runCrawl executes the bounded walk and reports the outcome.
func (f *CrawlFlags) runCrawl(deps *Dependencies) error {
	deps.Crawler.Concurrency = f.Concurrency

	fmt.Fprintf(deps.Stdout, "Crawling %s (max %d pages, depth %d)...\n", f.URL, f.MaxPages, f.MaxDepth)

	result, err := deps.Crawler.Crawl(deps.Ctx, f.config())
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Crawled %d pages (%d failed), stored %d assets\n",
		result.Pages, result.Failed, result.Assets)
	return nil
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	return c.runCrawl(deps)
}
