package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/mcp"
)

// mcpStdin is the stream the MCP server reads requests from.
var mcpStdin io.Reader = os.Stdin

// NewMCPCmd serves the prediction tools over MCP on stdio.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve admet_prediction, binding_affinity and validate_smiles as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			svc, cleanup, err := predictorFactory(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer cleanup()

			s := mcp.NewServer(Version, mcp.NewTools(svc, nil, cliCtx.Logger))
			cliCtx.Logger.Info("MCP server listening on stdio", logging.String("version", Version))
			return mcp.ServeStdio(cmd.Context(), s, mcpStdin, cmd.OutOrStdout())
		},
	}
}

//Personal.AI order the ending
