package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/renamer"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Run one rename pass over completed torrents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := renamer.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			logger := ctx.commandLogger(cmd, cfg)
			client, guard, err := ctx.downloader(logger)
			if err != nil {
				return err
			}

			result, err := renamer.New(client, guard, st, opts, logger).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("rename pass: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Torrents checked: %d\n", result.Torrents)
			fmt.Fprintf(out, "Files renamed:    %d\n", result.Renamed)
			fmt.Fprintf(out, "Failures:         %d\n", result.Failed)
			fmt.Fprintf(out, "Torrents deleted: %d\n", result.Deleted)
			for _, n := range result.Notifications {
				fmt.Fprintf(out, "  %s S%02d E%s\n", n.OfficialTitle, n.Season, n.Episode.Pad(2))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the pass result as JSON")
	return cmd
}
