package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/app"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
)

// predictorFactory builds an in-process prediction service and its cleanup.
// Tests replace it.
var predictorFactory = newLocalPredictor

func newLocalPredictor(cfg *config.Config, logger logging.Logger) (prediction.Service, func(), error) {
	infra, err := app.NewInfrastructure(cfg, app.InfraOptions{SkipPostgres: true}, logger)
	if err != nil {
		return nil, nil, err
	}
	intel, err := app.NewIntelligence(cfg, nil, logger)
	if err != nil {
		infra.Close()
		return nil, nil, err
	}
	svc, err := app.NewPredictionService(cfg, infra, intel, nil, logger)
	if err != nil {
		infra.Close()
		return nil, nil, err
	}
	return svc, infra.Close, nil
}

// NewPredictCmd runs a prediction locally, without the API server.
func NewPredictCmd() *cobra.Command {
	var protein string
	cmd := &cobra.Command{
		Use:   "predict TASK SMILES...",
		Short: "Run an ADMET or binding-affinity prediction locally",
		Long: "Run a prediction in-process. TASK is admet or binding; binding requires --protein.\n" +
			"Uses the same predictors, cache and report archive as the API server.",
		Example: "  narcos predict admet CCO c1ccccc1\n" +
			"  narcos predict binding --protein MKTAYIAKQR CCO",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := prediction.ParseTask(args[0])
			if err != nil {
				return err
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			svc, cleanup, err := predictorFactory(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			out, err := svc.Run(ctx, prediction.Request{Task: task, Protein: protein, SMILES: args[1:]})
			if err != nil {
				return err
			}
			return PrintResult(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&protein, "protein", "p", "", "protein sequence for binding affinity")
	return cmd
}

//Personal.AI order the ending
