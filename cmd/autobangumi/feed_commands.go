package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/services/llm"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage RSS subscriptions",
	}
	feedCmd.AddCommand(newFeedProbeCommand(ctx))
	feedCmd.AddCommand(newFeedAddCommand(ctx))
	feedCmd.AddCommand(newFeedListCommand(ctx))
	feedCmd.AddCommand(newFeedRemoveCommand(ctx))
	feedCmd.AddCommand(newFeedToggleCommand(ctx, "enable", true))
	feedCmd.AddCommand(newFeedToggleCommand(ctx, "disable", false))
	return feedCmd
}

func newFeedProbeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch enabled feeds once and add new episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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
			var extractor feed.ReleaseExtractor
			if cfg.ExperimentalLLM.Enable {
				extractor = llm.NewFromConfig(cfg)
			}
			opts := feed.OptionsFromConfig(cfg)
			opts.DryRun = dryRun

			summary, err := feed.NewProber(st, client, guard, feed.NewFetcher(cfg), extractor, opts, logger).Probe(cmd.Context())
			if err != nil {
				return fmt.Errorf("feed probe: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, newProbeReport(summary))
			}

			out := cmd.OutOrStdout()
			verb := "Added"
			if dryRun {
				verb = "Would add"
			}
			rows := make([][]string, 0, len(summary.Added))
			for _, added := range summary.Added {
				rows = append(rows, []string{added.Title, fmt.Sprintf("S%02d", added.Season), added.Name, added.Metadata.Resolution, added.SavePath})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Series", "Season", "Release", "Res", "Save Path"}, rows, nil))
			}
			fmt.Fprintf(out, "%s %d of %d items from %d feeds (filtered %d, unmatched %d, superseded %d, known %d, failed %d)\n",
				verb, len(summary.Added), summary.Items, summary.Feeds,
				summary.Filtered, summary.Unmatched, summary.Superseded, summary.Known, summary.Failed)
			for _, probeErr := range summary.Errors {
				fmt.Fprintf(out, "warning: %v\n", probeErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be added without contacting the download client")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the probe summary as JSON")
	return cmd
}

func newFeedAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Subscribe to an RSS feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				return fmt.Errorf("feed url must be http or https: %q", url)
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			f, err := st.AddFeed(cmd.Context(), name, url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Feed %d: %s\n", f.ID, f.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the feed")
	return cmd
}

func newFeedListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribed feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			feeds, err := st.ListFeeds(cmd.Context(), false)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, feeds)
			}
			if len(feeds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No feeds")
				return nil
			}
			rows := make([][]string, 0, len(feeds))
			for _, f := range feeds {
				rows = append(rows, []string{strconv.FormatInt(f.ID, 10), f.Name, yesNo(f.Enabled), f.URL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Enabled", "URL"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print feeds as JSON")
	return cmd
}

func newFeedRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Unsubscribe from a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.RemoveFeed(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Feed %d removed\n", id)
			return nil
		},
	}
}

func newFeedToggleCommand(ctx *commandContext, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.SetFeedEnabled(cmd.Context(), id, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Feed %d %sd\n", id, use)
			return nil
		},
	}
}

// probeReport renders probe errors as strings for JSON output.
type probeReport struct {
	feed.Summary
	Errors []string
}

func newProbeReport(summary feed.Summary) probeReport {
	report := probeReport{Summary: summary, Errors: make([]string, 0, len(summary.Errors))}
	for _, err := range summary.Errors {
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}
