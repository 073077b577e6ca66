package htmltomarkdown_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_converts_headings_and_paragraphs(t *testing.T) {
	t.Parallel()

	c := htmltomarkdown.NewConverter()

	md, err := c.Convert("<h1>Title</h1><p>Some <strong>bold</strong> text.</p>")
	require.NoError(t, err)

	assert.True(t, strings.Contains(md, "# Title"))
	assert.True(t, strings.Contains(md, "**bold**"))
}

func TestConverter_converts_tables(t *testing.T) {
	t.Parallel()

	c := htmltomarkdown.NewConverter()

	md, err := c.Convert(`<table><tr><th>Name</th></tr><tr><td>Go</td></tr></table>`)
	require.NoError(t, err)

	assert.True(t, strings.Contains(md, "Name"))
	assert.True(t, strings.Contains(md, "Go"))
	assert.True(t, strings.Contains(md, "|"))
}

func TestConverter_empty_input(t *testing.T) {
	t.Parallel()

	c := htmltomarkdown.NewConverter()

	_, err := c.Convert("   ")
	assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
}
