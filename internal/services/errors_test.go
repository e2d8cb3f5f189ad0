package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "downloader", "rename", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"downloader", "rename", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(services.Wrap(services.ErrConfiguration, "naming", "compose", "unknown policy", nil)) {
		t.Fatal("configuration errors should not be retryable")
	}
	if !services.Retryable(services.Wrap(services.ErrTransient, "feed", "fetch", "timeout", errors.New("io"))) {
		t.Fatal("transient errors should be retryable")
	}
	if services.Retryable(nil) {
		t.Fatal("nil is not a failure")
	}
}

func TestWrapExposesComponent(t *testing.T) {
	err := services.Wrap(nil, "feed", "fetch", "", errors.New("reset"))
	var classified *services.Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *services.Error, got %T", err)
	}
	if classified.Component != "feed" || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("unexpected classification %+v", classified)
	}
	if got := err.Error(); got != "transient failure: feed: fetch: reset" {
		t.Fatalf("Error() = %q", got)
	}
}
