package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/backup"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/cache"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/media"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/rewrite"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Process every rewritable file in the library once and exit",
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

			store, err := cache.Open(cfg.Paths.CacheDir, time.Duration(cfg.TMDB.CacheTTLHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			client := tmdb.New(cfg, store, logger)
			defer client.Close()

			backups := backup.NewStore(cfg.Paths.BackupDir, cfg.Paths.LibraryDir)
			rewriter := rewrite.New(cfg, client, backups, logger)

			paths, err := media.FindTargetFiles(cfg.Paths.LibraryDir)
			if err != nil {
				return fmt.Errorf("scan library: %w", err)
			}

			var rewritten, unchanged, failed int
			rows := make([][]string, 0, len(paths))
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				result := rewriter.ProcessFile(cmd.Context(), path)
				status := "unchanged"
				switch {
				case result.Success && result.FileModified:
					status = "rewritten"
					rewritten++
				case result.Success:
					unchanged++
				default:
					status = "failed"
					failed++
				}
				rel, relErr := filepath.Rel(cfg.Paths.LibraryDir, path)
				if relErr != nil {
					rel = path
				}
				rows = append(rows, []string{rel, status, result.Message})
			}

			out := cmd.OutOrStdout()
			if !quiet && len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"FILE", "STATUS", "MESSAGE"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			fmt.Fprintf(out, "%d files: %d rewritten, %d unchanged, %d failed\n",
				len(paths), rewritten, unchanged, failed)
			if failed > 0 {
				return fmt.Errorf("%d files failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary line")
	return cmd
}
