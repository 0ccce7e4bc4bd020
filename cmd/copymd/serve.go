package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/copymd"
	"github.com/hazyhaar/copymd/internal/config"
	"github.com/hazyhaar/copymd/internal/metrics"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		Long: `Serves the control API:

  POST   /v1/convert          convert pasted HTML or a URL
  GET    /v1/pages            list open pages
  POST   /v1/pages            open a page in Chrome (pick or selector)
  POST   /v1/pages/{id}/copy  copy the page's selection
  DELETE /v1/pages/{id}       close a page
  GET    /health
  GET    /metrics

The config file and the settings database are watched; theme, labels and
messages apply to pages opened after a change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			mgr, err := a.manager("")
			if err != nil {
				return err
			}
			if mgr != nil {
				defer mgr.Close()
			}
			e := a.engine(mgr, a.cfg.Server.SanitizeEnabled(), metrics.New())

			sc, err := a.sessionConfig(a.cfg, os.Stdout)
			if err != nil {
				return err
			}
			api := copymd.NewServer(e, copymd.ServerConfig{
				MaxBody:  a.cfg.Server.MaxBody,
				MaxPages: a.cfg.Server.MaxPages,
				Session:  sc,
				Logger:   a.logger,
			})
			a.watch(ctx, api)

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				a.logger.Info("copymd: listening", "addr", addr, "browser", mgr != nil)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutCtx); err != nil {
				a.logger.Warn("copymd: shutdown", "error", err)
			}
			return api.Close(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config: 127.0.0.1:8765)")
	return cmd
}

// watch hot-reloads the page template from the config file and the
// settings database.
func (a *app) watch(ctx context.Context, api *copymd.Server) {
	var (
		mu       sync.Mutex
		file     = *a.cfg
		settings config.Settings
	)
	apply := func() {
		mu.Lock()
		cfg := file
		settings.Apply(&cfg)
		mu.Unlock()
		if err := cfg.Validate(); err != nil {
			a.logger.Warn("copymd: reloaded config rejected", "error", err)
			return
		}
		sc, err := a.sessionConfig(&cfg, os.Stdout)
		if err != nil {
			a.logger.Warn("copymd: reloaded config rejected", "error", err)
			return
		}
		api.SetSessionConfig(sc)
		a.logger.Info("copymd: page settings reloaded", "theme", cfg.Theme.Toolbar, "selection_color", cfg.Theme.SelectionColor)
	}

	if a.configPath != "" {
		go func() {
			err := config.WatchFile(ctx, a.configPath, a.logger, func(c *config.Config) {
				if err := config.ApplyEnv(c, os.LookupEnv); err != nil {
					a.logger.Warn("copymd: reloaded config rejected", "error", err)
					return
				}
				mu.Lock()
				file = *c
				mu.Unlock()
				apply()
			})
			if err != nil && ctx.Err() == nil {
				a.logger.Warn("copymd: config watch stopped", "error", err)
			}
		}()
	}
	if a.settings != nil {
		go config.WatchSettings(ctx, a.settings, 2*time.Second, a.logger, func(s config.Settings) {
			mu.Lock()
			settings = s
			mu.Unlock()
			apply()
		})
	}
}
