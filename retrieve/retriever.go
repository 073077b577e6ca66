// Package retrieve provides a lexical retriever over indexed text assets.
// Documents are split into overlapping chunks at index time and ranked with
// a TF-IDF style score at query time. Ranking quality is best effort; the
// bounds on returned snippet count and on the single selected image are
// hard contracts.
package retrieve

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/fwojciec/siteask"
)

// Chunking defaults, in characters.
const (
	DefaultMaxChunkChars = 1200
	DefaultOverlapChars  = 200
	DefaultMinChunkChars = 200

	// DefaultMaxContextTokens bounds the total token estimate of returned
	// snippets so assembled prompts fit the model context window.
	DefaultMaxContextTokens = 3500
)

// Compile-time interface verification.
var (
	_ siteask.Retriever    = (*Index)(nil)
	_ siteask.Indexer      = (*Index)(nil)
	_ siteask.TokenCounter = ApproxTokenCounter{}
)

// Index is an in-memory chunking retrieval index.
// It is safe for concurrent use: crawl workers index while ask requests
// retrieve.
type Index struct {
	counter siteask.TokenCounter

	maxChunkChars    int
	overlapChars     int
	minChunkChars    int
	maxContextTokens int

	mu     sync.RWMutex
	chunks []chunk
	df     map[string]int
	images map[string][]siteask.Asset // page URL -> images on that page
}

type chunk struct {
	assetID string
	pageURL string
	text    string
}

// Option configures an Index.
type Option func(*Index)

// WithTokenCounter sets the token counter used for the context budget.
// Defaults to an approximate character-based counter.
func WithTokenCounter(c siteask.TokenCounter) Option {
	return func(ix *Index) { ix.counter = c }
}

// WithMaxContextTokens sets the token budget for returned snippets.
func WithMaxContextTokens(n int) Option {
	return func(ix *Index) { ix.maxContextTokens = n }
}

// NewIndex creates an empty Index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		counter:          ApproxTokenCounter{},
		maxChunkChars:    DefaultMaxChunkChars,
		overlapChars:     DefaultOverlapChars,
		minChunkChars:    DefaultMinChunkChars,
		maxContextTokens: DefaultMaxContextTokens,
		df:               make(map[string]int),
		images:           make(map[string][]siteask.Asset),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// IndexText chunks the asset's text and makes it retrievable.
func (ix *Index) IndexText(asset *siteask.Asset, text string) error {
	if asset.ID == "" {
		return siteask.Errorf(siteask.EINVALID, "asset id required for indexing")
	}
	texts := buildChunks(text, ix.maxChunkChars, ix.overlapChars, ix.minChunkChars)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, t := range texts {
		ix.chunks = append(ix.chunks, chunk{
			assetID: asset.ID,
			pageURL: asset.PageURL,
			text:    t,
		})
		for term := range termSet(t) {
			ix.df[term]++
		}
	}
	return nil
}

// IndexImage registers an image asset under the page it appeared on.
func (ix *Index) IndexImage(asset *siteask.Asset) {
	if asset.ID == "" || asset.Kind != siteask.KindImage {
		return
	}
	page := asset.PageURL
	if page == "" {
		page = asset.SourceURL
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.images[page] = append(ix.images[page], *asset)
}

// Retrieve returns at most k snippets ranked by lexical overlap with the
// question, limited by the token budget, plus at most one image: the first
// image of the best-ranked page that has any.
func (ix *Index) Retrieve(ctx context.Context, question string, k int) (*siteask.Retrieval, error) {
	if k <= 0 {
		return nil, siteask.Errorf(siteask.EINVALID, "retrieval bound must be positive")
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.chunks) == 0 {
		return &siteask.Retrieval{}, nil
	}

	ranked := ix.rank(question)
	selected := ix.selectUnderBudget(ctx, ranked, k)

	retrieval := &siteask.Retrieval{}
	for _, i := range selected {
		c := ix.chunks[i]
		retrieval.Texts = append(retrieval.Texts, siteask.Snippet{
			AssetID: c.assetID,
			Content: c.text,
		})
		if retrieval.Image == nil {
			if imgs, ok := ix.images[c.pageURL]; ok && len(imgs) > 0 {
				img := imgs[0]
				retrieval.Image = &img
			}
		}
	}
	return retrieval, nil
}

// rank orders chunk indices by score, falling back to insertion order when
// no chunk matches the question at all.
func (ix *Index) rank(question string) []int {
	type scored struct {
		score float64
		index int
	}

	qTerms := termCounts(question)
	n := float64(len(ix.chunks))

	var hits []scored
	for i, c := range ix.chunks {
		s := score(qTerms, c.text, ix.df, n)
		if s > 0 {
			hits = append(hits, scored{score: s, index: i})
		}
	}

	if len(hits) == 0 {
		order := make([]int, len(ix.chunks))
		for i := range order {
			order[i] = i
		}
		return order
	}

	// Stable ordering: score descending, insertion order breaking ties.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].score > hits[j-1].score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	order := make([]int, len(hits))
	for i, h := range hits {
		order[i] = h.index
	}
	return order
}

// selectUnderBudget keeps the best chunks until k is reached or the token
// budget is exhausted. A single over-budget chunk is still returned when
// nothing smaller was selected first, so retrieval never comes back empty
// for a non-empty index.
func (ix *Index) selectUnderBudget(ctx context.Context, ranked []int, k int) []int {
	var selected []int
	used := 0

	for _, i := range ranked {
		if len(selected) >= k {
			break
		}
		est, err := ix.counter.CountTokens(ctx, ix.chunks[i].text)
		if err != nil {
			est = approxTokens(ix.chunks[i].text)
		}
		if used+est > ix.maxContextTokens {
			if len(selected) == 0 {
				selected = append(selected, i)
			}
			break
		}
		selected = append(selected, i)
		used += est
	}
	return selected
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

func words(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	for i, w := range matches {
		matches[i] = strings.ToLower(w)
	}
	return matches
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range words(text) {
		counts[w]++
	}
	return counts
}

func termSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(text) {
		set[w] = struct{}{}
	}
	return set
}

// score computes a TF-IDF style overlap score with +1 smoothing.
func score(qTerms map[string]int, chunkText string, df map[string]int, totalChunks float64) float64 {
	if len(qTerms) == 0 || chunkText == "" {
		return 0
	}
	cTerms := termCounts(chunkText)

	var s float64
	for term, qf := range qTerms {
		cf, ok := cTerms[term]
		if !ok {
			continue
		}
		idf := math.Log((totalChunks+1)/float64(df[term]+1)) + 1.0
		s += float64(qf*cf) * idf
	}
	return s
}
