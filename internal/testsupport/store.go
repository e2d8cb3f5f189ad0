package testsupport

import (
	"context"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddBangumi inserts a series for tests.
func AddBangumi(t testing.TB, st *store.Store, officialTitle, titleRaw string, season int) *store.Bangumi {
	t.Helper()

	b, err := st.AddBangumi(context.Background(), &store.Bangumi{
		OfficialTitle: officialTitle,
		TitleRaw:      titleRaw,
		Season:        season,
	})
	if err != nil {
		t.Fatalf("store.AddBangumi: %v", err)
	}
	return b
}
