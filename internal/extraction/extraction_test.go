package extraction

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/scrape-api/pkg/models"
)

const pageFixture = `<html><head><title>Fixture</title></head><body>
	<h1 id="main" data-kind="headline">Welcome</h1>
	<ul>
		<li class="item">one</li>
		<li class="item">two</li>
	</ul>
	<div class="wrap"><script>evil()</script><p style="color:red">Hello</p></div>
	<table><tbody><tr><td>cell</td></tr></tbody></table>
</body></html>`

func fixtureDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageFixture))
	require.NoError(t, err)
	return doc
}

func TestExtractWholeDocumentText(t *testing.T) {
	e := NewExtractor()
	content, debug, sel := e.Extract(fixtureDoc(t), nil, models.FormatText)

	assert.Nil(t, debug)
	assert.Nil(t, sel)
	assert.Contains(t, content, "Welcome")
	assert.Contains(t, content, "one two")
	assert.NotContains(t, content, "<h1>")
}

func TestExtractSelectorText(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "h1"}
	content, debug, sel := e.Extract(fixtureDoc(t), cfg, models.FormatText)

	assert.Equal(t, "Welcome", content)
	require.NotNil(t, debug)
	assert.True(t, debug.SelectorMatched)
	assert.Equal(t, 1, debug.ElementsFound)
	assert.Equal(t, "h1", debug.SelectorUsed)
	require.NotNil(t, sel)
	assert.True(t, sel.Is("h1"))
}

func TestExtractAttribute(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "h1", Attribute: "data-kind"}
	content, _, _ := e.Extract(fixtureDoc(t), cfg, models.FormatText)
	assert.Equal(t, "headline", content)
}

func TestExtractMultiple(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "li.item", Multiple: true}
	content, debug, _ := e.Extract(fixtureDoc(t), cfg, models.FormatText)

	assert.Equal(t, "one\ntwo", content)
	assert.Equal(t, 2, debug.ElementsFound)
}

func TestExtractHTMLInnerAndOuter(t *testing.T) {
	e := NewExtractor()

	outer, _, _ := e.Extract(fixtureDoc(t), &models.Extraction{Selector: "h1"}, models.FormatHTML)
	assert.Contains(t, outer, "<h1")
	assert.Contains(t, outer, "Welcome")

	inner, _, _ := e.Extract(fixtureDoc(t), &models.Extraction{Selector: "h1", InnerHTML: true}, models.FormatHTML)
	assert.Equal(t, "Welcome", inner)
}

func TestExtractStrippedHTML(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "div.wrap", Strip: true}
	content, _, _ := e.Extract(fixtureDoc(t), cfg, models.FormatHTML)

	assert.NotContains(t, content, "script")
	assert.NotContains(t, content, "style=")
	assert.NotContains(t, content, "class=")
	assert.Contains(t, content, "<p>Hello</p>")
}

func TestExtractMarkdown(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "h1"}
	content, _, _ := e.Extract(fixtureDoc(t), cfg, models.FormatMarkdown)
	assert.Equal(t, "# Welcome", content)
}

func TestExtractSelectorMiss(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "#does-not-exist"}
	content, debug, sel := e.Extract(fixtureDoc(t), cfg, models.FormatText)

	assert.Empty(t, content)
	require.NotNil(t, debug)
	assert.False(t, debug.SelectorMatched)
	assert.Zero(t, debug.ElementsFound)
	assert.Nil(t, sel)
}

func TestExtractReturnsTableSelection(t *testing.T) {
	e := NewExtractor()
	cfg := &models.Extraction{Selector: "table"}
	_, _, sel := e.Extract(fixtureDoc(t), cfg, models.FormatText)

	require.NotNil(t, sel)
	assert.True(t, sel.Is("table"))
}
