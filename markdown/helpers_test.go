package markdown

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func repeat(s string, n int) string { return strings.Repeat(s, n) }

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/docs", resolveURL("https://example.com/page", "/docs"))
	assert.Equal(t, "https://example.com/a/c", resolveURL("https://example.com/a/b", "c"))
	assert.Equal(t, "rel", resolveURL("", "rel"))
	assert.Equal(t, "%zz", resolveURL("https://example.com/", "%zz"), "unparsable ref falls back")
	assert.Equal(t, "x", resolveURL("://bad", "x"), "unparsable base falls back")
}

func TestProtocolChecks(t *testing.T) {
	assert.True(t, isSpecialProtocol("MAILTO:a@b.c"))
	assert.True(t, isSpecialProtocol("javascript:void(0)"))
	assert.False(t, isSpecialProtocol("/mailto"))
	assert.True(t, isAbsoluteOrData("HTTPS://x"))
	assert.True(t, isAbsoluteOrData("//x"))
	assert.False(t, isAbsoluteOrData("x/y"))
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("plain"))
	assert.Equal(t, "````", codeFence("a ``` b"))
	assert.Equal(t, "`````", codeFence("````"))
}
