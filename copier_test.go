package copymd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/dom/htmldoc"
	"github.com/hazyhaar/copymd/markdown"
)

const page = `<!doctype html>
<html><head><title>t</title></head><body>
<article id="post">
  <h1>Title</h1>
  <p>Intro with <a href="/docs">docs</a>.</p>
  <div style="display:none">hidden text</div>
  <script>var tracking = 1;</script>
  <pre class="language-go">fmt.Println("hi")</pre>
  <a href="/full.png"><img src="/thumb.png" alt="Shot"></a>
</article>
<footer id="foot">footer</footer>
</body></html>`

func newConv(t *testing.T) *markdown.Converter {
	t.Helper()
	c, err := markdown.New()
	require.NoError(t, err)
	return c
}

func parse(t *testing.T, s string) *htmldoc.Document {
	t.Helper()
	d, err := htmldoc.ParseString(s, "https://example.com/blog/post")
	require.NoError(t, err)
	return d
}

func markerCount(t *testing.T, d *htmldoc.Document) int {
	t.Helper()
	out, err := d.OuterHTML(context.Background(), d.Body())
	require.NoError(t, err)
	n := 0
	for _, m := range dom.Markers {
		n += strings.Count(out, m.Attr())
	}
	return n
}

func TestCopier_CopyElement(t *testing.T) {
	d := parse(t, page)
	post, err := d.Select("#post")
	require.NoError(t, err)
	clip := &clipboard.Memory{}
	c := NewCopier(d, newConv(t), clip)

	md, err := c.CopyElement(context.Background(), post)
	require.NoError(t, err)

	assert.Equal(t, md, clip.Last())
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "[docs](https://example.com/docs)")
	assert.Contains(t, md, "```go\nfmt.Println(\"hi\")\n```")
	assert.NotContains(t, md, "hidden text")
	assert.NotContains(t, md, "tracking")
	assert.NotContains(t, md, "footer")
	assert.Zero(t, markerCount(t, d), "markers removed after copy")
}

func TestCopier_LinkedImageStructure(t *testing.T) {
	d := parse(t, page)
	post, err := d.Select("#post")
	require.NoError(t, err)

	md, err := NewCopier(d, newConv(t), nil).Markdown(context.Background(), post)
	require.NoError(t, err)

	root := goldmark.New().Parser().Parse(text.NewReader([]byte(md)))
	var found bool
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if img, ok := link.FirstChild().(*ast.Image); ok {
				found = true
				assert.Equal(t, "/full.png", string(link.Destination))
				assert.Equal(t, "/thumb.png", string(img.Destination))
			}
		}
		return ast.WalkContinue, nil
	})
	assert.True(t, found, "linked image should parse as a link wrapping an image: %q", md)
	assert.Contains(t, md, "[docs](https://example.com/docs)")

	plain := parse(t, `<html><body><div id="x"><p><img src="/b.png" alt="B"></p></div></body></html>`)
	x, err := plain.Select("#x")
	require.NoError(t, err)
	md, err = NewCopier(plain, newConv(t), nil).Markdown(context.Background(), x)
	require.NoError(t, err)
	assert.Contains(t, md, "![B](https://example.com/b.png)")
}

func TestCopier_NoNode(t *testing.T) {
	clip := &clipboard.Memory{}
	_, err := NewCopier(parse(t, page), newConv(t), clip).CopyElement(context.Background(), dom.NoNode)
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Zero(t, clip.Len())
}

// failingDoc fails serialization after preprocessing has marked the tree.
type failingDoc struct {
	*htmldoc.Document
	removed int
}

func (f *failingDoc) OuterHTML(context.Context, dom.NodeID) (string, error) {
	return "", errors.New("detached")
}

func (f *failingDoc) RemoveMarkers(ctx context.Context, root dom.NodeID) error {
	f.removed++
	return f.Document.RemoveMarkers(ctx, root)
}

func TestCopier_CleanupOnFailure(t *testing.T) {
	d := &failingDoc{Document: parse(t, page)}
	post, err := d.Select("#post")
	require.NoError(t, err)
	clip := &clipboard.Memory{}

	_, err = NewCopier(d, newConv(t), clip).CopyElement(context.Background(), post)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, d.removed)
	assert.Zero(t, markerCount(t, d.Document))
	assert.Zero(t, clip.Len(), "clipboard untouched on conversion failure")
}

func TestCopier_ClipboardFailure(t *testing.T) {
	d := parse(t, page)
	clip := clipboard.Func{Name: "page", Fn: func(context.Context, string) error {
		return errors.New("document is not focused")
	}}

	_, err := NewCopier(d, newConv(t), clip).CopyElement(context.Background(), d.Body())

	var clipErr *ClipboardError
	require.ErrorAs(t, err, &clipErr)
	assert.Equal(t, "page", clipErr.Backend)
	assert.Zero(t, markerCount(t, d))
}

func TestCopier_NilConverter(t *testing.T) {
	d := parse(t, page)
	_, err := NewCopier(d, nil, nil).CopyElement(context.Background(), d.Body())
	var initErr *InitializationError
	assert.ErrorAs(t, err, &initErr)
}

type staticSelection string

func (s staticSelection) SelectionHTML(context.Context) (string, error) { return string(s), nil }

func TestCopier_TextSelection(t *testing.T) {
	d := parse(t, page)
	clip := &clipboard.Memory{}
	ctx := context.Background()

	_, err := NewCopier(d, newConv(t), clip).CopyTextSelection(ctx)
	assert.ErrorIs(t, err, ErrNoSelection, "no selection source")

	_, err = NewCopier(d, newConv(t), clip, WithSelection(staticSelection("  \n"))).CopyTextSelection(ctx)
	assert.ErrorIs(t, err, ErrNoSelection, "blank selection")

	md, err := NewCopier(d, newConv(t), clip, WithSelection(staticSelection(`<b>bold</b> and <a href="x">rel</a>`))).CopyTextSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "**bold** and [rel](https://example.com/blog/x)", md)
	assert.Equal(t, 1, clip.Len())
}

func TestCopier_CopyHTML_NoPreprocessing(t *testing.T) {
	clip := &clipboard.Memory{}
	md, err := NewCopier(nil, newConv(t), clip).CopyHTML(context.Background(), `<p>shown</p><p style="display:none">kept</p>`, "")
	require.NoError(t, err)
	assert.Contains(t, md, "kept")
	assert.Equal(t, md, clip.Last())
}

func TestCopier_Sanitizer(t *testing.T) {
	c := NewCopier(nil, newConv(t), nil, WithSanitizer(NewSanitizer()))
	md, err := c.ConvertHTML(context.Background(),
		`<p onclick="steal()">Hi <iframe src="https://evil.example"></iframe></p><pre class="language-py">print(1)</pre>`, "")
	require.NoError(t, err)
	assert.Contains(t, md, "Hi")
	assert.Contains(t, md, "```py\nprint(1)\n```")
	assert.NotContains(t, md, "evil")
	assert.NotContains(t, md, "steal")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "no_selection", outcome(ErrNoSelection))
	assert.Equal(t, "clipboard_error", outcome(&ClipboardError{Backend: "system", Err: clipboard.ErrUnsupported}))
	assert.Equal(t, "conversion_error", outcome(&ConversionError{Err: errors.New("x")}))
}
