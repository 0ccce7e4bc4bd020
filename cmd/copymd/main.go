// Command copymd copies web pages, or the parts of them you pick, as
// Markdown.
//
// Usage:
//
//	copymd pick https://example.com            # pick an element in Chrome
//	copymd convert --url https://example.com   # one-shot conversion
//	copymd convert --file page.html --selector article
//	copymd serve                               # HTTP control API
//	copymd mcp                                 # MCP server on stdio
//	copymd settings set toolbar_theme dark     # persisted page settings
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/hazyhaar/copymd"
	"github.com/hazyhaar/copymd/internal/browser"
	"github.com/hazyhaar/copymd/internal/config"
	"github.com/hazyhaar/copymd/internal/metrics"
	"github.com/hazyhaar/copymd/internal/notify"
	"github.com/hazyhaar/copymd/picker"
	"github.com/hazyhaar/copymd/toolbar"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app holds what every command shares: flags, the logger and the loaded
// configuration.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	logger   *slog.Logger
	cfg      *config.Config
	settings *sql.DB
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "copymd",
		Short:         "Copy web pages, or parts of them, as Markdown",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.settings != nil {
				a.settings.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to copymd.yaml")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with COPYMD_* overrides")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(a.pickCmd(), a.convertCmd(), a.serveCmd(), a.mcpCmd(), a.settingsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger == nil {
			fmt.Fprintln(os.Stderr, "copymd:", err)
		} else {
			a.logger.Error("copymd: fatal", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	var level slog.Level
	switch a.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		a.logger.Debug(fmt.Sprintf(format, args...))
	}))

	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(a.configPath); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return err
	}

	if cfg.SettingsDB != "" {
		db, err := config.OpenSettings(cfg.SettingsDB)
		if err != nil {
			return err
		}
		a.settings = db
		s, err := config.LoadSettings(ctx, db, a.logger)
		if err != nil {
			return err
		}
		s.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	return nil
}

// manager builds the browser manager for mode, or nil in HTTP-only mode.
func (a *app) manager(mode string) (*browser.Manager, error) {
	bc := a.cfg.Browser
	if mode != "" {
		bc.Mode = mode
	}
	mc, err := bc.Manager()
	if err != nil {
		return nil, err
	}
	if mc.Mode == browser.ModeHTTP {
		return nil, nil
	}
	mc.Logger = a.logger
	return browser.NewManager(mc), nil
}

func (a *app) engine(mgr *browser.Manager, sanitize bool, m *metrics.Metrics) *copymd.Engine {
	return copymd.NewEngine(copymd.EngineConfig{
		Browser:  mgr,
		Sanitize: sanitize,
		Metrics:  m,
		Logger:   a.logger,
	})
}

// sessionConfig turns cfg into the template for live pages. stdout sinks
// write their JSON lines to out.
func (a *app) sessionConfig(cfg *config.Config, out io.Writer) (copymd.SessionConfig, error) {
	colors, err := toolbar.ParseColorScheme(cfg.Theme.SelectionColor)
	if err != nil {
		return copymd.SessionConfig{}, err
	}
	theme, err := toolbar.ParseTheme(cfg.Theme.Toolbar)
	if err != nil {
		return copymd.SessionConfig{}, err
	}

	sc := copymd.SessionConfig{
		ClipboardBackend: cfg.Clipboard.Backend,
		Messages: copymd.Messages{
			Copied:           cfg.Messages.Copied,
			NoSelection:      cfg.Messages.NoSelection,
			ConversionFailed: cfg.Messages.ConversionFailed,
			ClipboardFailed:  cfg.Messages.ClipboardFailed,
			InitFailed:       cfg.Messages.InitFailed,
		},
		Picker: picker.Config{
			Colors:  colors,
			Toolbar: toolbar.Options{Theme: theme, Labels: cfg.Labels},
			Logger:  a.logger,
		},
	}

	toast := len(cfg.Notify) == 0
	for _, s := range cfg.Notify {
		switch s.Type {
		case "toast":
			toast = true
		case "stdout":
			sc.Sinks = append(sc.Sinks, notify.NewStdout(out))
		case "webhook":
			sc.Sinks = append(sc.Sinks, notify.NewWebhook(s.URL,
				notify.WithWebhookRetries(s.Retries),
				notify.WithWebhookLogger(a.logger),
			))
		default:
			return copymd.SessionConfig{}, fmt.Errorf("copymd: unknown sink type %q", s.Type)
		}
	}
	sc.NoToasts = !toast
	return sc, nil
}
