package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/services/llm"
)

type parseReport struct {
	Input      string
	Rule       string
	Group      string
	Title      string
	Season     int
	Episode    string
	Revision   int
	Language   string
	Target     string
	Resolution string
	Source     string
	Codec      string
	LLMTitle   string `json:",omitempty"`
	Error      string `json:",omitempty"`
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var (
		subtitle  bool
		season    int
		method    string
		canonical string
		offset    int
		useLLM    bool
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file name>...",
		Short: "Show how file names are parsed and what they would be renamed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if method == "" {
				method = cfg.BangumiManage.RenameMethod
			}
			policy, err := naming.ParsePolicy(method)
			if err != nil {
				return err
			}
			kind := parser.KindMedia
			if subtitle {
				kind = parser.KindSubtitle
				policy = policy.Subtitle()
			}
			composer := naming.NewComposer(cfg.BangumiManage.RetainLatestMediaVersion, logging.NewNop())
			var extractor *llm.Client
			if useLLM {
				extractor = llm.NewFromConfig(cfg)
			}

			reports := make([]parseReport, 0, len(args))
			for _, name := range args {
				report := parseReport{Input: name}
				meta := feed.Describe(name)
				report.Resolution, report.Source, report.Codec = meta.Resolution, meta.Source, meta.Codec

				d, err := parser.Parse(name, parser.Options{SeasonHint: season, Kind: kind})
				if err != nil {
					report.Error = err.Error()
				} else {
					report.Rule = d.Rule
					report.Group = d.Group
					report.Title = d.Title
					report.Season = d.Season
					report.Episode = d.Episode.String()
					report.Revision = d.Revision
					if d.Language.Defined() {
						report.Language = d.Language.Tag()
					}
					title := canonical
					if title == "" {
						title = d.Title
					}
					target, err := composer.Compose(d, title, policy, offset)
					if err != nil {
						report.Error = err.Error()
					}
					report.Target = target
				}
				if extractor != nil {
					release, err := extractor.ExtractRelease(cmd.Context(), name, cfg.RSSParser.Language)
					if err != nil {
						report.LLMTitle = "error: " + err.Error()
					} else {
						report.LLMTitle = release.Title
					}
				}
				reports = append(reports, report)
			}

			if jsonOut {
				return writeJSON(cmd, reports)
			}
			out := cmd.OutOrStdout()
			for _, report := range reports {
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, report.rows(), nil))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&subtitle, "subtitle", false, "Parse as a subtitle file")
	cmd.Flags().IntVar(&season, "season", 0, "Season hint overriding the parsed season")
	cmd.Flags().StringVar(&method, "method", "", "Rename method (defaults to bangumi_manage.rename_method)")
	cmd.Flags().StringVar(&canonical, "title", "", "Canonical title used by the advance method")
	cmd.Flags().IntVar(&offset, "offset", 0, "Episode offset")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "Also ask the configured LLM to extract the title")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func (r parseReport) rows() [][]string {
	rows := [][]string{{"Input", r.Input}}
	if r.Error != "" {
		rows = append(rows, []string{"Error", r.Error})
	}
	if r.Rule != "" {
		rows = append(rows,
			[]string{"Rule", r.Rule},
			[]string{"Group", r.Group},
			[]string{"Title", r.Title},
			[]string{"Season", strconv.Itoa(r.Season)},
			[]string{"Episode", r.Episode},
			[]string{"Revision", strconv.Itoa(r.Revision)},
		)
		if r.Language != "" {
			rows = append(rows, []string{"Language", r.Language})
		}
		rows = append(rows, []string{"Target", r.Target})
	}
	for _, field := range [][2]string{{"Resolution", r.Resolution}, {"Source", r.Source}, {"Codec", r.Codec}, {"LLM Title", r.LLMTitle}} {
		if field[1] != "" {
			rows = append(rows, []string{field[0], field[1]})
		}
	}
	return rows
}
