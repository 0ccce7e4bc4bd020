package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/internal/config"
	"github.com/hazyhaar/copymd/toolbar"
)

func testApp(t *testing.T) *app {
	t.Helper()
	return &app{logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), cfg: config.Default()}
}

func TestSessionConfig_Defaults(t *testing.T) {
	a := testApp(t)
	sc, err := a.sessionConfig(a.cfg, &bytes.Buffer{})
	require.NoError(t, err)

	assert.False(t, sc.NoToasts)
	assert.Empty(t, sc.Sinks)
	assert.Equal(t, "auto", sc.ClipboardBackend)
	assert.Equal(t, toolbar.ColorElegant, sc.Picker.Colors)
	assert.Equal(t, toolbar.ThemeLight, sc.Picker.Toolbar.Theme)
	assert.Equal(t, "Could not initialize Markdown converter", sc.Messages.InitFailed)
}

func TestSessionConfig_Sinks(t *testing.T) {
	a := testApp(t)
	cfg, err := config.Parse([]byte(`
theme:
  toolbar: dark
  selection_color: warm
notify:
  - type: stdout
  - type: webhook
    url: http://127.0.0.1:1/hook
`))
	require.NoError(t, err)

	sc, err := a.sessionConfig(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, sc.NoToasts, "toasts are off when notify is set without a toast sink")
	assert.Len(t, sc.Sinks, 2)
	assert.Equal(t, toolbar.ColorWarm, sc.Picker.Colors)
}

func TestConvertCommand_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body><main><h2>Hi</h2><a href="/x">x</a></main><nav>menu</nav></body></html>`), 0o644))

	a := testApp(t)
	cmd := a.convertCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--selector", "main", "--base", "https://example.com/a/b", "--no-clipboard"})
	require.NoError(t, cmd.Execute())

	got := strings.TrimSpace(out.String())
	assert.Equal(t, "## Hi\n\n[x](https://example.com/x)", got)
}

func TestConvertCommand_NeedsOneSource(t *testing.T) {
	a := testApp(t)
	cmd := a.convertCmd()
	cmd.SetArgs([]string{"--no-clipboard"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}

func TestSettingsCommand(t *testing.T) {
	db, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := testApp(t)
	a.settings = db
	run := func(args ...string) (string, error) {
		cmd := a.settingsCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		err := cmd.Execute()
		return out.String(), err
	}

	_, err = run("set", "toolbar_theme", "dark")
	require.NoError(t, err)
	_, err = run("set", "selection_color", "warm")
	require.NoError(t, err)

	s, err := config.LoadSettings(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Equal(t, config.Settings{ToolbarTheme: "dark", SelectionColor: "warm"}, s)

	out, err := run("get")
	require.NoError(t, err)
	assert.Equal(t, "toolbar_theme=dark\nselection_color=warm\n", out)

	_, err = run("set", "toolbar_theme", "sepia")
	assert.Error(t, err)
	_, err = run("set", "font", "mono")
	assert.Error(t, err)
}

func TestSettingsCommand_NoDatabase(t *testing.T) {
	a := testApp(t)
	cmd := a.settingsCmd()
	cmd.SetArgs([]string{"get"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.ErrorIs(t, cmd.Execute(), errNoSettingsDB)
}
