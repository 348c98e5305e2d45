package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecomcli/internal/dataset"
	"ecomcli/internal/exporter"
	"ecomcli/internal/infrastructure"
	"ecomcli/internal/pipeline"
	"ecomcli/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analytics pipeline once",
	Long: `Loads the raw extract from the configured source, recomputes every
output table and publishes them atomically. A failed stage aborts the run
and leaves the previously published tables untouched.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := infrastructure.GetLogger()
	ctx := cmd.Context()

	var source dataset.Source
	switch cfg.Source.Type {
	case "postgres":
		pg, err := store.NewPostgresSource(ctx, cfg.Source.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to warehouse: %w", err)
		}
		defer pg.Close()
		source = pg
	default:
		source = dataset.NewCSVSource(cfg.Source.CSVDir, logger)
	}

	publisher := exporter.NewPublisher(cfg.Output.StagingDir, cfg.Output.Dir, cfg.Output.Excel, logger)
	runner := pipeline.NewRunner(pipeline.NewLoadStage(source), publisher, logger)

	state, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s published %d tables to %s\n",
		state.RunID, len(pipeline.BuildTables(&state.Tables)), cfg.Output.Dir)
	return nil
}
