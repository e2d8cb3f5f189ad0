package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/renamer"
	"github.com/KotaHv/Auto-Bangumi/internal/store"
)

func newBangumiCommand(ctx *commandContext) *cobra.Command {
	bangumiCmd := &cobra.Command{
		Use:     "bangumi",
		Aliases: []string{"series"},
		Short:   "Manage tracked series",
	}
	bangumiCmd.AddCommand(newBangumiAddCommand(ctx))
	bangumiCmd.AddCommand(newBangumiListCommand(ctx))
	bangumiCmd.AddCommand(newBangumiOffsetCommand(ctx))
	bangumiCmd.AddCommand(newBangumiRemoveCommand(ctx))
	return bangumiCmd
}

func newBangumiAddCommand(ctx *commandContext) *cobra.Command {
	var (
		raw      string
		season   int
		year     string
		group    string
		filters  []string
		savePath string
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "add <official title>",
		Short: "Track a series so feed items matching its raw title are downloaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			official := strings.TrimSpace(args[0])
			if strings.TrimSpace(raw) == "" {
				raw = official
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			b, err := st.AddBangumi(cmd.Context(), &store.Bangumi{
				OfficialTitle: official,
				TitleRaw:      raw,
				Year:          year,
				Season:        season,
				GroupName:     group,
				Filter:        filters,
				Offset:        offset,
				SavePath:      savePath,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Series %d: %s S%02d -> %s\n", b.ID, b.OfficialTitle, b.Season, seriesSavePath(ctx, b))
			return nil
		},
	}
	cmd.Flags().StringVar(&raw, "raw", "", "Title as it appears in release names (defaults to the official title)")
	cmd.Flags().IntVar(&season, "season", 1, "Season number")
	cmd.Flags().StringVar(&year, "year", "", "Air year")
	cmd.Flags().StringVar(&group, "group", "", "Preferred release group")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "Regex dropping matching feed items (repeatable)")
	cmd.Flags().StringVar(&savePath, "save-path", "", "Override the download directory")
	cmd.Flags().IntVar(&offset, "offset", 0, "Episode offset applied when renaming")
	return cmd
}

func newBangumiListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked series",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			series, err := st.ListBangumi(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, series)
			}
			if len(series) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No series")
				return nil
			}
			rows := make([][]string, 0, len(series))
			for _, b := range series {
				rows = append(rows, []string{
					strconv.FormatInt(b.ID, 10),
					b.OfficialTitle,
					b.TitleRaw,
					strconv.Itoa(b.Season),
					strconv.Itoa(b.Offset),
					strings.Join(b.Filter, ","),
					seriesSavePath(ctx, b),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Raw", "Season", "Offset", "Filter", "Save Path"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print series as JSON")
	return cmd
}

func newBangumiOffsetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "offset <id> <offset>",
		Short: "Set the episode offset applied when renaming",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			offset, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid offset %q", args[1])
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.SetOffset(cmd.Context(), id, offset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Series %d offset set to %d\n", id, offset)
			return nil
		},
	}
}

func newBangumiRemoveCommand(ctx *commandContext) *cobra.Command {
	var untag bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop tracking a series",
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
			if err := st.DeleteBangumi(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Series %d removed\n", id)
			if !untag {
				return nil
			}

			b, err := st.GetBangumi(cmd.Context(), id)
			if err != nil {
				return err
			}
			torrents, err := st.ListTorrents(cmd.Context(), id)
			if err != nil {
				return err
			}
			hashes := make([]string, 0, len(torrents))
			for _, t := range torrents {
				hashes = append(hashes, t.Hash)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := renamer.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			logger := ctx.commandLogger(cmd, cfg)
			client, guard, err := ctx.downloader(logger)
			if err != nil {
				return err
			}
			title := b.OfficialTitle
			if series, ok := naming.RecoverSeries(seriesSavePath(ctx, b)); ok {
				title = series.Title
			}
			n, err := renamer.New(client, guard, st, opts, logger).Untag(cmd.Context(), title, hashes)
			if err != nil {
				return fmt.Errorf("untag series torrents: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed tag %q from %d torrents\n", title, n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&untag, "untag", false, "Also remove the series tag from its torrents in the download client")
	return cmd
}

func seriesSavePath(ctx *commandContext, b *store.Bangumi) string {
	if b.SavePath != "" {
		return b.SavePath
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return ""
	}
	return naming.SavePath(cfg.Downloader.Path, b.OfficialTitle, b.Season)
}
