package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		component string
		eventType string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tailer := logs.NewTailer(
				filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
				logs.Filter{Component: component, EventType: eventType},
			)
			out := cmd.OutOrStdout()
			recent, offset, err := tailer.Last(lines)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(recent) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}
			err = tailer.Follow(cmd.Context(), offset, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&component, "component", "", "Only show records from this component (renamer, feed, daemon, ...)")
	cmd.Flags().StringVar(&eventType, "event", "", "Only show records with this event_type")
	return cmd
}
