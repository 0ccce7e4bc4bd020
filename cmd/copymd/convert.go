package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/internal/browser"
)

func (a *app) convertCmd() *cobra.Command {
	var (
		pageURL     string
		file        string
		selector    string
		base        string
		useBrowser  bool
		noClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "convert [-]",
		Short: "Convert a page, a file or stdin to Markdown",
		Long: `Converts a whole document, or the first element matching --selector, to
Markdown. The result is printed to stdout and, unless --no-clipboard, put on
the system clipboard.

Examples:
  copymd convert --url https://example.com --selector article
  copymd convert --url https://spa.example.com --browser
  copymd convert --file saved.html --base https://example.com/page
  curl -s https://example.com | copymd convert - --base https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin := len(args) == 1 && args[0] == "-"
			sources := 0
			for _, set := range []bool{pageURL != "", file != "", stdin} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return fmt.Errorf("copymd: convert needs exactly one of --url, --file or -")
			}
			if useBrowser && pageURL == "" {
				return fmt.Errorf("copymd: --browser needs --url")
			}

			var mgr *browser.Manager
			if useBrowser {
				mode := a.cfg.Browser.Mode
				if mode == "http" {
					mode = "headless"
				}
				m, err := a.manager(mode)
				if err != nil {
					return err
				}
				mgr = m
				defer mgr.Close()
			}
			e := a.engine(mgr, false, nil)
			ctx := cmd.Context()

			var (
				md  string
				err error
			)
			if pageURL != "" {
				md, err = e.ConvertURL(ctx, pageURL, selector, useBrowser)
			} else {
				var data []byte
				if stdin {
					data, err = io.ReadAll(cmd.InOrStdin())
				} else {
					data, err = os.ReadFile(file)
				}
				if err != nil {
					return fmt.Errorf("copymd: read input: %w", err)
				}
				md, err = e.ConvertHTML(ctx, string(data), base, selector)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), md)
			if !noClipboard && a.cfg.Clipboard.Backend != "none" {
				if err := (clipboard.System{}).Write(ctx, md); err != nil {
					a.logger.Warn("copymd: clipboard write failed", "error", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "page to fetch")
	cmd.Flags().StringVar(&file, "file", "", "HTML file to read")
	cmd.Flags().StringVar(&selector, "selector", "", "convert the first element matching this CSS selector")
	cmd.Flags().StringVar(&base, "base", "", "base URL for relative links in --file or stdin input")
	cmd.Flags().BoolVar(&useBrowser, "browser", false, "render --url in Chrome before converting")
	cmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "only print, do not touch the clipboard")
	return cmd
}
