package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) pickCmd() *cobra.Command {
	var (
		keep     bool
		headless bool
		selector string
	)
	cmd := &cobra.Command{
		Use:   "pick URL",
		Short: "Open a page in Chrome and copy the element you pick",
		Long: `Opens URL in a visible Chrome window and starts selection mode.
Hover to highlight, click to select, then use the toolbar to copy.
The Markdown of each copy is printed to stdout.

Examples:
  copymd pick https://go.dev/doc/effective_go
  copymd pick --keep https://example.com
  copymd pick --headless --selector main https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "headful"
			if headless {
				mode = "headless"
			}
			mgr, err := a.manager(mode)
			if err != nil {
				return err
			}
			defer mgr.Close()

			sc, err := a.sessionConfig(a.cfg, os.Stderr)
			if err != nil {
				return err
			}
			copies := make(chan string, 16)
			sc.OnCopy = func(md string) {
				select {
				case copies <- md:
				default:
				}
			}

			ctx := cmd.Context()
			sess, err := a.engine(mgr, false, nil).OpenSession(ctx, args[0], sc)
			if err != nil {
				return err
			}
			defer func() {
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = sess.Close(cctx)
			}()

			if selector != "" {
				if err := sess.SelectSelector(ctx, selector); err != nil {
					return err
				}
			} else if err := sess.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("copymd: picking", "page", sess.ID, "url", args[0])

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sess.Done():
					return nil
				case md := <-copies:
					fmt.Fprintln(cmd.OutOrStdout(), md)
					if !keep {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep picking after the first copy")
	cmd.Flags().BoolVar(&headless, "headless", false, "run Chrome headless (with --selector)")
	cmd.Flags().StringVar(&selector, "selector", "", "select the first element matching this CSS selector instead of waiting for a click")
	return cmd
}
