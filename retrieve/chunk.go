package retrieve

import (
	"context"
	"math"
	"strings"
)

// buildChunks greedily packs paragraphs into chunks of at most maxChars,
// carrying overlapChars of trailing context into the next chunk. Paragraphs
// longer than maxChars are hard-split. A trailing fragment shorter than
// minChars is merged into the previous chunk.
func buildChunks(text string, maxChars, overlapChars, minChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > maxChars {
			paras = append(paras, hardSplit(p, maxChars)...)
			continue
		}
		paras = append(paras, p)
	}

	var chunks []string
	var cur strings.Builder
	for _, p := range paras {
		if cur.Len() > 0 && cur.Len()+2+len(p) > maxChars {
			chunks = append(chunks, cur.String())
			cur.Reset()
			cur.WriteString(tail(chunks[len(chunks)-1], overlapChars))
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		last := cur.String()
		if len(chunks) > 0 && len(last) < minChars {
			chunks[len(chunks)-1] += "\n\n" + last
		} else {
			chunks = append(chunks, last)
		}
	}
	return chunks
}

// hardSplit cuts an oversized paragraph into maxChars pieces, preferring to
// break at a space near the cut point.
func hardSplit(p string, maxChars int) []string {
	var out []string
	for len(p) > maxChars {
		cut := maxChars
		if i := strings.LastIndexByte(p[:maxChars], ' '); i > maxChars/2 {
			cut = i
		}
		out = append(out, strings.TrimSpace(p[:cut]))
		p = strings.TrimSpace(p[cut:])
	}
	if p != "" {
		out = append(out, p)
	}
	return out
}

// tail returns the last n characters of s, starting at a word boundary when
// one is close enough.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	t := s[len(s)-n:]
	if i := strings.IndexByte(t, ' '); i >= 0 && i < n/2 {
		t = t[i+1:]
	}
	return t
}

// ApproxTokenCounter estimates token counts from character length. It is
// used when no model tokenizer is wired in.
type ApproxTokenCounter struct{}

func (ApproxTokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	return approxTokens(text), nil
}

func approxTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4.0))
}
