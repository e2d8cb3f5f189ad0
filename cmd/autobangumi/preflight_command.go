package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var skipDownloader bool
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, the download client, feeds and the LLM endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			targets := preflight.Targets{Fetcher: feed.NewFetcher(cfg)}
			if !skipDownloader {
				client, _, err := ctx.downloader(logging.NewNop())
				if err != nil {
					return err
				}
				targets.Downloader = client
			}
			feeds, err := st.ListFeeds(cmd.Context(), true)
			if err != nil {
				return err
			}
			for _, f := range feeds {
				targets.FeedURLs = append(targets.FeedURLs, f.URL)
			}

			results := preflight.RunAll(cmd.Context(), cfg, targets)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderHeading("Preflight", colorize))
			if skipDownloader {
				fmt.Fprintln(out, renderCheckLine("Downloader", checkSkipped, "--skip-downloader", colorize))
			}
			for _, result := range results {
				state := checkOK
				if !result.Passed {
					state = checkFailed
				}
				fmt.Fprintln(out, renderCheckLine(result.Name, state, result.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDownloader, "skip-downloader", false, "Do not contact the download client")
	return cmd
}
