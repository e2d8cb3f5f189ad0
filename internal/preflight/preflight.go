package preflight

import (
	"context"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/feed"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Targets are the collaborators checked besides the filesystem. Nil or
// empty targets are skipped.
type Targets struct {
	Downloader Downloader
	Fetcher    *feed.Fetcher
	FeedURLs   []string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if targets.Downloader != nil {
		results = append(results, CheckDownloader(ctx, targets.Downloader))
	}
	if cfg.RSSParser.Enable && targets.Fetcher != nil {
		for _, url := range targets.FeedURLs {
			results = append(results, CheckFeed(ctx, targets.Fetcher, url))
		}
	}
	if cfg.ExperimentalLLM.Enable {
		results = append(results, CheckLLM(ctx, cfg))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
