// Package markdown converts preprocessed HTML fragments into Markdown. It
// layers marker-aware rules (code blocks with language sniffing, skip and
// invisible suppression, absolute links and images, linked images) on top
// of html-to-markdown's commonmark and GFM plugins.
package markdown

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Converter turns HTML into Markdown. It is safe for concurrent use.
type Converter struct {
	engine *converter.Converter
	extra  []converter.Plugin
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPlugins registers additional engine plugins after the built-in ones.
func WithPlugins(p ...converter.Plugin) Option {
	return func(c *Converter) { c.extra = append(c.extra, p...) }
}

// New builds a Converter. Any failure to register a rule is reported as an
// *InitializationError.
func New(opts ...Option) (c *Converter, err error) {
	c = &Converter{logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}

	defer func() {
		if r := recover(); r != nil {
			c, err = nil, &InitializationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	plugins := []converter.Plugin{
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(
			commonmark.WithCodeBlockFence("```"),
			commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
			commonmark.WithHorizontalRule("---"),
			commonmark.WithBulletListMarker("-"),
		),
		table.NewTablePlugin(),
		strikethrough.NewStrikethroughPlugin(),
		&rules{},
	}
	plugins = append(plugins, c.extra...)
	c.engine = converter.NewConverter(converter.WithPlugins(plugins...))

	// Plugin Init errors only surface on the first conversion.
	if _, err := c.engine.ConvertString("<p></p>"); err != nil {
		return nil, &InitializationError{Err: err}
	}
	return c, nil
}

// Convert renders fragment as Markdown, resolving relative link and image
// URLs against baseURL. Engine failures, including panics, are returned as
// *ConversionError.
func (c *Converter) Convert(ctx context.Context, fragment, baseURL string) (md string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			md, err = "", &ConversionError{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			c.logger.Warn("markdown: conversion failed", "error", err, "bytes", len(fragment))
			return
		}
		c.logger.Debug("markdown: converted", "bytes", len(fragment), "markdown_bytes", len(md), "elapsed", time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return "", &ConversionError{Err: err}
	}
	cctx := withBaseURL(ctx, baseURL)
	out, err := c.engine.ConvertString(fragment, converter.WithContext(cctx))
	if err != nil {
		return "", &ConversionError{Err: err}
	}
	return out, nil
}

type baseURLKey struct{}

func withBaseURL(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, base)
}

func baseURLFrom(ctx context.Context) string {
	s, _ := ctx.Value(baseURLKey{}).(string)
	return s
}
