// Package gemini implements answer generation using Google Gemini.
package gemini

import (
	"context"
	"io"

	"google.golang.org/genai"

	"github.com/fwojciec/siteask"
)

// DefaultModel is the vision-capable model used for answer generation.
const DefaultModel = "gemini-2.5-flash"

const temperature = float32(0.4)

// Ensure Generator implements siteask.Generator at compile time.
var _ siteask.Generator = (*Generator)(nil)

// Generator implements siteask.Generator using the Gemini streaming API.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Generator backed by the given client. An empty
// model selects DefaultModel.
func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Generate starts a streaming completion for the prompt. The prompt's image,
// if present, is attached inline to the user message. The returned stream
// yields text increments until the model completes; closing the stream stops
// generation.
func (g *Generator) Generate(ctx context.Context, prompt *siteask.Prompt) (siteask.TokenStream, error) {
	if prompt == nil || prompt.User == "" {
		return nil, siteask.Errorf(siteask.EINVALID, "prompt required")
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt.User)}
	if prompt.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(prompt.Image.Data, prompt.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		}
	}
	temp := temperature
	config.Temperature = &temp

	sctx, cancel := context.WithCancel(ctx)
	s := &tokenStream{
		ch:     make(chan chunk),
		cancel: cancel,
	}

	go func() {
		defer close(s.ch)
		for resp, err := range g.client.Models.GenerateContentStream(sctx, g.model, contents, config) {
			if err != nil {
				if sctx.Err() != nil {
					return
				}
				s.send(sctx, chunk{err: siteask.Errorf(siteask.EUNAVAILABLE, "gemini stream: %v", err)})
				return
			}
			if text := resp.Text(); text != "" {
				if !s.send(sctx, chunk{text: text}) {
					return
				}
			}
		}
	}()

	return s, nil
}

type chunk struct {
	text string
	err  error
}

// tokenStream adapts the Gemini response iterator to siteask.TokenStream.
type tokenStream struct {
	ch     chan chunk
	cancel context.CancelFunc
}

func (s *tokenStream) send(ctx context.Context, c chunk) bool {
	select {
	case s.ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Next returns the next text increment, io.EOF after the final one.
func (s *tokenStream) Next() (string, error) {
	c, ok := <-s.ch
	if !ok {
		return "", io.EOF
	}
	if c.err != nil {
		return "", c.err
	}
	return c.text, nil
}

// Close stops the underlying generation. Safe to call more than once.
func (s *tokenStream) Close() error {
	s.cancel()
	return nil
}
