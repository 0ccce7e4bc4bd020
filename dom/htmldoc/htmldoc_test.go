package htmldoc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/dom"
)

const page = `<!doctype html><html><head><title>t</title><script>x()</script></head><body>
<article id="post" class="content">
  <h1>Title</h1>
  <p style="user-select: none">Sponsored <b>ad</b></p>
  <div hidden>gone</div>
  <span style="visibility:hidden">ghost</span>
  <img src="pixel.gif" width="0" height="0">
  <img src="photo.png" style="width: 120px">
  <div style="width:0;height:0"><em>wrapped</em></div>
  <pre class="language-go">fmt.Println(1)</pre>
</article>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(page, "https://example.com/blog/post")
	require.NoError(t, err)
	return d
}

func TestSelect(t *testing.T) {
	d := parse(t)
	id, err := d.Select("article.content")
	require.NoError(t, err)
	assert.Equal(t, "article", d.Node(id).Data)

	again, err := d.Select("#post")
	require.NoError(t, err)
	assert.Equal(t, id, again, "identity must be stable")

	_, err = d.Select("section")
	assert.True(t, errors.Is(err, ErrNoMatch))

	_, err = d.Select("p[")
	assert.Error(t, err)
}

func TestSnapshot_ComputesMarks(t *testing.T) {
	d := parse(t)
	ctx := context.Background()
	id, err := d.Select("article")
	require.NoError(t, err)

	snap, err := d.Snapshot(ctx, id)
	require.NoError(t, err)
	require.Len(t, snap.Children, 8)

	byTag := map[string]dom.Marker{}
	for _, m := range dom.ComputeMarks(snap) {
		n := d.Node(m.Node)
		key := n.Data
		if src := attr(n, "src"); src != "" {
			key += ":" + src
		}
		if _, seen := byTag[key]; !seen {
			byTag[key] = m.Marker
		}
	}
	assert.Equal(t, dom.MarkLineBreak, byTag["article"])
	assert.Equal(t, dom.MarkLineBreak, byTag["h1"])
	assert.Equal(t, dom.MarkSkip, byTag["p"])
	assert.Equal(t, dom.MarkInvisible, byTag["span"])
	assert.Equal(t, dom.MarkInvisible, byTag["img:pixel.gif"])
	_, marked := byTag["img:photo.png"]
	assert.False(t, marked, "sized image gets no marker")
	assert.Equal(t, dom.MarkLineBreak, byTag["pre"])
	_, marked = byTag["b"]
	assert.False(t, marked, "children of a skipped node are not visited")
}

func TestSnapshot_InheritedVisibility(t *testing.T) {
	d, err := ParseString(`<div style="visibility:hidden"><p id="x">a</p><p id="y" style="visibility:visible">b</p></div>`, "")
	require.NoError(t, err)
	x, err := d.Select("#x")
	require.NoError(t, err)
	y, err := d.Select("#y")
	require.NoError(t, err)

	nx, err := d.Inspect(x)
	require.NoError(t, err)
	ny, err := d.Inspect(y)
	require.NoError(t, err)
	assert.False(t, dom.IsHoverable(nx))
	assert.True(t, dom.IsHoverable(ny))
}

func TestMarkers_RoundTripLeavesDocumentUnchanged(t *testing.T) {
	d := parse(t)
	ctx := context.Background()
	id, err := d.Select("article")
	require.NoError(t, err)

	before, err := d.OuterHTML(ctx, id)
	require.NoError(t, err)

	require.NoError(t, dom.Preprocess(ctx, d, id))
	marked, err := d.OuterHTML(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, marked, dom.AttrSkip)
	assert.Contains(t, marked, dom.AttrInvisible)
	assert.Contains(t, marked, dom.AttrLineBreak)

	require.NoError(t, dom.RemoveMarkers(ctx, d, id))
	after, err := d.OuterHTML(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBaseURL(t *testing.T) {
	ctx := context.Background()

	d := parse(t)
	base, err := d.BaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/blog/post", base)

	d, err = ParseString(`<html><head><base href="/docs/"></head><body></body></html>`, "https://example.com/a/b")
	require.NoError(t, err)
	base, err = d.BaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs/", base)
}

func TestUnknownNode(t *testing.T) {
	d := parse(t)
	ctx := context.Background()
	_, err := d.Snapshot(ctx, 999)
	assert.Error(t, err)
	assert.Error(t, d.SetMarkers(ctx, []dom.Mark{{Node: 999, Marker: dom.MarkSkip}}))
	assert.Error(t, d.RemoveMarkers(ctx, 999))
	_, err = d.OuterHTML(ctx, 999)
	assert.Error(t, err)
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		raw  string
		want map[string]string
	}{
		{"", nil},
		{"display:none", map[string]string{"display": "none"}},
		{"display:none;", map[string]string{"display": "none"}},
		{"user-select: none", map[string]string{"user-select": "none"}},
		{"color:red; visibility:hidden", map[string]string{"color": "red", "visibility": "hidden"}},
		{"Opacity: 0 ; ", map[string]string{"opacity": "0"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDeclarations(tt.raw), "style %q", tt.raw)
	}
}
