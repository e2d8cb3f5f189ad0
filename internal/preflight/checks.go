package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/services/llm"
)

// Downloader is the part of the download client the checks exercise.
type Downloader interface {
	Login(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDownloader logs in and reads the client version.
func CheckDownloader(ctx context.Context, client Downloader) Result {
	const name = "Downloader"
	if client == nil {
		return Result{Name: name, Detail: "not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Login(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("login failed (%s)", summarizeError(err))}
	}
	version, err := client.Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("version check failed (%s)", summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: "qBittorrent " + strings.TrimSpace(version)}
}

// CheckFeed fetches a feed once and reports how many items it announced.
func CheckFeed(ctx context.Context, fetcher *feed.Fetcher, url string) Result {
	name := "Feed " + url
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	title, items, err := fetcher.Fetch(checkCtx, url)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if title == "" {
		title = "untitled"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d items)", title, len(items))}
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "LLM"
	if cfg.GetLLM().APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewFromConfig(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable (" + client.Model() + ")"}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (unreachable)"
	}
	return err.Error()
}
