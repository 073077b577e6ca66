package ask

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/siteask"
)

// systemInstructions introduces the marker form to the model. Assets may
// only be referenced through [[IMAGE:id]] and [[FILE:id]] markers using ids
// listed in the context.
const systemInstructions = `You are a helpful, grounded assistant. Stream your answer progressively.

The user message lists the known assets, each with an id and a kind.
Some assets are images or downloadable files.

Rules:
1) Ground your answer in the provided context. If the answer is not in the
   context and cannot be inferred from the attached image, say so.
2) To show an image, emit the marker [[IMAGE:id]] with an id from the asset
   list, verbatim. To link a file, emit [[FILE:id]]. Never invent ids,
   filenames, or URLs, and never emit links other than markers.
3) If an image is attached to this message, describe only what is visible
   in it.
4) Keep the answer concise and directly responsive to the question.`

// PromptBuilder assembles model input from a retrieval result and the asset
// inventory.
type PromptBuilder struct {
	Store siteask.AssetStore
}

// Assemble builds the prompt: instructions, the enumerated asset inventory,
// retrieved snippets, the question, and the single retrieved image loaded
// from the store.
func (b *PromptBuilder) Assemble(ctx context.Context, question string, r *siteask.Retrieval) (*siteask.Prompt, error) {
	if strings.TrimSpace(question) == "" {
		return nil, siteask.Errorf(siteask.EINVALID, "question required")
	}
	if r == nil {
		r = &siteask.Retrieval{}
	}

	infos, err := b.Store.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	var u strings.Builder
	u.WriteString("Known assets:\n")
	if len(infos) == 0 {
		u.WriteString("(none)\n")
	}
	for _, info := range infos {
		fmt.Fprintf(&u, "- %s (%s)\n", info.ID, info.Kind)
	}

	u.WriteString("\nContext:\n")
	if len(r.Texts) == 0 {
		u.WriteString("(no relevant text found)\n")
	}
	for _, s := range r.Texts {
		fmt.Fprintf(&u, "[%s]\n%s\n\n", s.AssetID, s.Content)
	}

	if r.Image != nil {
		fmt.Fprintf(&u, "Attached image id: %s\n\n", r.Image.ID)
	}

	fmt.Fprintf(&u, "Question:\n%s\n", question)

	prompt := &siteask.Prompt{
		System: systemInstructions,
		User:   u.String(),
	}

	if r.Image != nil {
		data, err := b.loadImage(ctx, r.Image.ID)
		if err != nil {
			return nil, err
		}
		prompt.Image = &siteask.PromptImage{
			AssetID:  r.Image.ID,
			MIMEType: r.Image.MIMEType,
			Data:     data,
		}
	}

	return prompt, nil
}

func (b *PromptBuilder) loadImage(ctx context.Context, id string) ([]byte, error) {
	rc, err := b.Store.AssetContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("image content %q: %w", id, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", id, err)
	}
	return data, nil
}
