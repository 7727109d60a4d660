package cmd

import (
	"github.com/huangsam/tenure/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the tenure MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents run age, idle and
timeseries reports against the configured warehouse.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, wh, cacheManager)
	},
}
