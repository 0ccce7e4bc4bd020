package markdown

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/marker"
	"golang.org/x/net/html"

	"github.com/hazyhaar/copymd/dom"
)

// Renderers run in ascending priority and the first RenderSuccess wins.
// Suppression must beat every other rule so that nothing below a skipped
// or invisible node is ever emitted, and the linked-image rule must beat
// the plain link rule.
const (
	prioritySuppress    = converter.PriorityEarly - 20
	priorityLinkedImage = converter.PriorityEarly - 10
	priorityPre         = converter.PriorityEarly
	priorityImage       = converter.PriorityEarly
	priorityLink        = converter.PriorityEarly
)

type rules struct{}

func (r *rules) Name() string { return "copymd-rules" }

func (r *rules) Init(conv *converter.Converter) error {
	conv.Register.Renderer(suppressRule(dom.AttrSkip), prioritySuppress)
	conv.Register.Renderer(suppressRule(dom.AttrInvisible), prioritySuppress)
	conv.Register.RendererFor("a", converter.TagTypeInline, renderLinkedImage, priorityLinkedImage)
	conv.Register.RendererFor("pre", converter.TagTypeBlock, renderPre, priorityPre)
	conv.Register.RendererFor("img", converter.TagTypeInline, renderImage, priorityImage)
	conv.Register.RendererFor("a", converter.TagTypeInline, renderLink, priorityLink)
	return nil
}

// suppressRule drops any element carrying the marker attribute, subtree
// included.
func suppressRule(markerAttr string) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
		if n.Type == html.ElementNode && hasAttr(n, markerAttr) {
			return converter.RenderSuccess
		}
		return converter.RenderTryNext
	}
}

func isSuppressed(n *html.Node) bool {
	return hasAttr(n, dom.AttrSkip) || hasAttr(n, dom.AttrInvisible)
}

func renderPre(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	code := strings.TrimSpace(preText(n))
	fence := codeFence(code)

	w.WriteString("\n\n")
	w.WriteString(fence)
	w.WriteString(DetectLanguage(n))
	w.WriteString("\n")
	// Newlines inside the block must survive the engine's blank-line folding.
	w.Write(bytes.ReplaceAll([]byte(code), []byte("\n"), marker.BytesMarkerCodeBlockNewline))
	w.WriteString("\n")
	w.WriteString(fence)
	w.WriteString("\n\n")
	return converter.RenderSuccess
}

// codeFence returns a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest, run := 0, 0
	for i := 0; i < len(code); i++ {
		if code[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func renderImage(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	src, ok := attr(n, "src")
	if !ok || src == "" {
		return converter.RenderSuccess
	}
	if !isAbsoluteOrData(src) {
		src = resolveURL(baseURLFrom(ctx), src)
	}
	alt, _ := attr(n, "alt")

	w.WriteString("\n\n![")
	w.WriteString(alt)
	w.WriteString("](")
	w.WriteString(src)
	w.WriteString(")\n\n")
	return converter.RenderSuccess
}

func renderLink(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	ctx = ctx.WithValue("is_inside_link", true)

	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)

	href, ok := attr(n, "href")
	if !ok || href == "" {
		w.Write(buf.Bytes())
		return converter.RenderSuccess
	}
	if !isSpecialProtocol(href) && !isAbsoluteOrData(href) {
		href = resolveURL(baseURLFrom(ctx), href)
	}

	w.WriteString("[")
	w.Write(bytes.TrimSpace(buf.Bytes()))
	w.WriteString("](")
	w.WriteString(href)
	if title, ok := attr(n, "title"); ok && title != "" {
		w.WriteString(` "`)
		w.WriteString(escapeTitle(title))
		w.WriteString(`"`)
	}
	w.WriteString(")")
	return converter.RenderSuccess
}

// renderLinkedImage collapses <a href><img></a> into one image-link. The
// image and link URLs are emitted as written.
func renderLinkedImage(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	href, ok := attr(n, "href")
	if !ok || href == "" {
		return converter.RenderTryNext
	}
	img := soleImageChild(n)
	if img == nil {
		return converter.RenderTryNext
	}
	alt, _ := attr(img, "alt")
	src, _ := attr(img, "src")

	w.WriteString("[![")
	w.WriteString(escapeAlt(alt))
	w.WriteString("](")
	w.WriteString(src)
	w.WriteString(")](")
	w.WriteString(href)
	w.WriteString(")")
	return converter.RenderSuccess
}

// soleImageChild returns the only element child of n when it is an
// unsuppressed <img> and every other child is whitespace-only text.
func soleImageChild(n *html.Node) *html.Node {
	var img *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if img != nil || c.Data != "img" || isSuppressed(c) {
				return nil
			}
			img = c
		default:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return img
}

var altEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeAlt(alt string) string { return altEscaper.Replace(alt) }

var titleEscaper = strings.NewReplacer(`"`, `\"`, "\n", " ")

func escapeTitle(t string) string { return titleEscaper.Replace(t) }

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}
