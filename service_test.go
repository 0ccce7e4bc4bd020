package copymd

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/internal/metrics"
	"github.com/hazyhaar/copymd/internal/notify"
	"github.com/hazyhaar/copymd/markdown"
)

type noticeLog struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (l *noticeLog) sink() notify.Sink {
	return notify.NewCallback(func(_ context.Context, n notify.Notice) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.notices = append(l.notices, n)
		return nil
	})
}

func (l *noticeLog) all() []notify.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notify.Notice(nil), l.notices...)
}

type brokenPlugin struct{}

func (brokenPlugin) Name() string { return "broken" }
func (brokenPlugin) Init(*converter.Converter) error {
	return errors.New("rule registration failed")
}

func TestService_InitFailureAlerts(t *testing.T) {
	log := &noticeLog{}
	s := NewService(ServiceConfig{
		PageID:          "pg_1",
		Notifier:        log.sink(),
		MarkdownOptions: []markdown.Option{markdown.WithPlugins(brokenPlugin{})},
	})
	require.Error(t, s.InitErr())

	err := s.StartSelectionMode(context.Background())
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)

	notices := log.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KindInitFailed, notices[0].Kind)
	assert.Equal(t, notify.LevelAlert, notices[0].Level)
	assert.Equal(t, "Could not initialize Markdown converter", notices[0].Message)
	assert.Equal(t, "pg_1", notices[0].Page)
}

func TestService_NoPage(t *testing.T) {
	s := NewService(ServiceConfig{})
	assert.ErrorIs(t, s.StartSelectionMode(context.Background()), ErrNoPage)
	assert.ErrorIs(t, s.Select(context.Background(), 3), ErrNoPage)
	assert.Nil(t, s.Picker())
	s.StopSelectionMode(context.Background())
}

func TestService_CopySelection_NothingSelected(t *testing.T) {
	log := &noticeLog{}
	m := metrics.New()
	s := NewService(ServiceConfig{
		Document:  parse(t, page),
		Clipboard: &clipboard.Memory{},
		Notifier:  log.sink(),
		Metrics:   m,
	})

	_, err := s.CopySelection(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	notices := log.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KindNoSelection, notices[0].Kind)
	assert.Equal(t, notify.LevelInfo, notices[0].Level)
	assert.Equal(t, DefaultMessages().NoSelection, notices[0].Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Copies.WithLabelValues(SourceSelection, metrics.OutcomeNoSelection)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notices.WithLabelValues(string(notify.KindNoSelection))))
}

func TestService_CopySelection_TextFallback(t *testing.T) {
	log := &noticeLog{}
	clip := &clipboard.Memory{}
	s := NewService(ServiceConfig{
		Document:  parse(t, page),
		Selection: staticSelection(`<em>picked</em> text`),
		Clipboard: clip,
		Notifier:  log.sink(),
		Messages:  Messages{Copied: "Done"},
	})

	md, err := s.CopySelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "*picked* text", md)
	assert.Equal(t, md, clip.Last())

	notices := log.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KindCopied, notices[0].Kind)
	assert.Equal(t, "Done", notices[0].Message)
	assert.Equal(t, md, notices[0].Markdown)
}

func TestService_CopyHTMLAsMarkdown(t *testing.T) {
	log := &noticeLog{}
	clip := &clipboard.Memory{}
	s := NewService(ServiceConfig{Document: parse(t, page), Clipboard: clip, Notifier: log.sink()})

	md, err := s.CopyHTMLAsMarkdown(context.Background(), `<a href="../about">About</a>`)
	require.NoError(t, err)
	assert.Equal(t, "[About](https://example.com/about)", md)
	assert.Equal(t, md, clip.Last())
	require.Len(t, log.all(), 1)
}

func TestService_ClipboardFailureNotice(t *testing.T) {
	log := &noticeLog{}
	s := NewService(ServiceConfig{
		Clipboard: clipboard.Fallback{},
		Notifier:  log.sink(),
	})

	_, err := s.CopyHTMLAsMarkdown(context.Background(), `<p>x</p>`)
	var clipErr *ClipboardError
	require.ErrorAs(t, err, &clipErr)

	notices := log.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KindClipboardFailed, notices[0].Kind)
	assert.Equal(t, notify.LevelError, notices[0].Level)
	assert.NotEmpty(t, notices[0].Error)
}

func TestNoticeFor(t *testing.T) {
	m := DefaultMessages()
	cases := []struct {
		err   error
		kind  notify.Kind
		level notify.Level
	}{
		{ErrNoSelection, notify.KindNoSelection, notify.LevelInfo},
		{&InitializationError{Err: errors.New("x")}, notify.KindInitFailed, notify.LevelAlert},
		{&ClipboardError{Backend: "system", Err: errors.New("x")}, notify.KindClipboardFailed, notify.LevelError},
		{&ConversionError{Err: errors.New("x")}, notify.KindConversionFailed, notify.LevelError},
		{errors.New("unknown"), notify.KindConversionFailed, notify.LevelError},
	}
	for _, tc := range cases {
		n := noticeFor(tc.err, m)
		assert.Equal(t, tc.kind, n.Kind, tc.err.Error())
		assert.Equal(t, tc.level, n.Level, tc.err.Error())
	}
}
