package services_test

import (
	"context"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithTorrentHash(ctx, "deadbeef")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if hash, ok := services.TorrentHashFromContext(ctx); !ok || hash != "deadbeef" {
		t.Fatalf("unexpected torrent hash: %v %v", hash, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTorrentHash(services.WithRequestID(ctx, ""), "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
	if _, ok := services.TorrentHashFromContext(ctx); ok {
		t.Fatal("expected no torrent hash")
	}
}
