package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/rollback"
)

func newRollbackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Restore all backed-up original files over their rewritten versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runner, err := rollback.New(cfg, logger)
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"RESULT", "COUNT"},
				[][]string{
					{"restored", strconv.Itoa(summary.Restored)},
					{"failed", strconv.Itoa(summary.Failed)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			if summary.Failed > 0 {
				return fmt.Errorf("%d files could not be restored", summary.Failed)
			}
			return nil
		},
	}
}
