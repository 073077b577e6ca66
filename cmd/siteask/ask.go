package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/ask"
	chiserver "github.com/fwojciec/siteask/chi"
)

// Run executes the ask command: populate the store from the site unless an
// earlier crawl already did, then answer one question on stdout.
func (c *AskCmd) Run(deps *Dependencies) error {
	infos, err := deps.Store.ListAssets(deps.Ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		if err := c.runCrawl(deps); err != nil {
			return err
		}
		if infos, err = deps.Store.ListAssets(deps.Ctx); err != nil {
			return err
		}
	} else if err := reindex(deps, infos); err != nil {
		return err
	}

	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}

	retrieval, err := deps.Index.Retrieve(deps.Ctx, c.Question, chiserver.DefaultRetrieveK)
	if err != nil {
		return err
	}

	builder := &ask.PromptBuilder{Store: deps.Store}
	prompt, err := builder.Assemble(deps.Ctx, c.Question, retrieval)
	if err != nil {
		return err
	}

	stream, err := deps.Generator.Generate(deps.Ctx, prompt)
	if err != nil {
		return err
	}

	sink := ask.SinkFunc(func(e ask.Event) error {
		switch e.Type {
		case ask.EventText:
			fmt.Fprint(deps.Stdout, e.Content)
		case ask.EventImage:
			fmt.Fprintf(deps.Stdout, "\n[image: %s]\n", e.AssetID)
		case ask.EventFile:
			fmt.Fprintf(deps.Stdout, "\n[file: %s]\n", e.AssetID)
		case ask.EventError:
			fmt.Fprintf(deps.Stderr, "\nerror: %s\n", e.Content)
		}
		return nil
	})

	coord := ask.NewCoordinator(deps.Store, ids,
		ask.WithLogger(deps.Logger),
		ask.WithMetrics(deps.Metrics),
	)
	if err := coord.Run(deps.Ctx, stream, sink); err != nil {
		return err
	}

	fmt.Fprintln(deps.Stdout)
	return nil
}

// reindex rebuilds the in-memory retrieval index from a store populated by
// an earlier crawl, so a persistent database can answer questions without a
// fresh walk.
func reindex(deps *Dependencies, infos []siteask.AssetInfo) error {
	for _, info := range infos {
		asset, err := deps.Store.FindAssetByID(deps.Ctx, info.ID)
		if err != nil {
			return err
		}

		switch asset.Kind {
		case siteask.KindImage:
			deps.Index.IndexImage(asset)
		case siteask.KindText:
			data, err := assetBytes(deps, asset.ID)
			if err != nil {
				return err
			}
			if err := deps.Index.IndexText(asset, string(data)); err != nil {
				return err
			}
		case siteask.KindFile:
			if deps.Decoder == nil {
				continue
			}
			data, err := assetBytes(deps, asset.ID)
			if err != nil {
				return err
			}
			decoded, err := deps.Decoder.Decode(asset.Filename, data)
			if err != nil || decoded.Text == "" {
				continue
			}
			if err := deps.Index.IndexText(asset, decoded.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func assetBytes(deps *Dependencies, id string) ([]byte, error) {
	rc, err := deps.Store.AssetContent(deps.Ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
