package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/copymd/internal/config"
)

var errNoSettingsDB = errors.New("copymd: no settings database (set settings_db or COPYMD_SETTINGS_DB)")

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change the persisted page settings",
		Long: `Settings live in the SQLite database named by settings_db. A running
"copymd serve" picks up changes for pages opened afterwards.

Keys:
  toolbar_theme     light, dark
  selection_color   classic, elegant, professional, warm, modern, neutral`,
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.settings == nil {
				return errNoSettingsDB
			}
			var s config.Settings
			switch args[0] {
			case config.KeyToolbarTheme:
				s.ToolbarTheme = args[1]
			case config.KeySelectionColor:
				s.SelectionColor = args[1]
			default:
				return fmt.Errorf("copymd: unknown setting %q", args[0])
			}
			if err := config.SaveSettings(cmd.Context(), a.settings, s); err != nil {
				return err
			}
			a.logger.Info("copymd: setting saved", "key", args[0], "value", args[1])
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the stored settings as key=value lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.settings == nil {
				return errNoSettingsDB
			}
			s, err := config.LoadSettings(cmd.Context(), a.settings, a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.ToolbarTheme != "" {
				fmt.Fprintf(out, "%s=%s\n", config.KeyToolbarTheme, s.ToolbarTheme)
			}
			if s.SelectionColor != "" {
				fmt.Fprintf(out, "%s=%s\n", config.KeySelectionColor, s.SelectionColor)
			}
			return nil
		},
	}

	cmd.AddCommand(set, get)
	return cmd
}
