package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/copymd"
)

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve copymd_convert_html and copymd_convert_url over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager("")
			if err != nil {
				return err
			}
			if mgr != nil {
				defer mgr.Close()
			}
			e := a.engine(mgr, a.cfg.Server.SanitizeEnabled(), nil)

			srv := mcp.NewServer(&mcp.Implementation{Name: "copymd", Version: Version}, nil)
			copymd.RegisterMCP(srv, e, a.logger)
			a.logger.Info("copymd: mcp on stdio", "browser", mgr != nil)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
