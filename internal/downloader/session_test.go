package downloader_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
)

type countingSession struct {
	mu       sync.Mutex
	logins   int
	logouts  int
	loginErr error
}

func (s *countingSession) Login(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
	return s.loginErr
}

func (s *countingSession) Logout(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	return nil
}

func TestGuardReleasesSessionOnError(t *testing.T) {
	session := &countingSession{}
	guard := downloader.NewGuard(session, filepath.Join(t.TempDir(), "session.lock"), logging.NewNop())

	boom := errors.New("boom")
	err := guard.Do(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected pass error, got %v", err)
	}
	if session.logins != 1 || session.logouts != 1 {
		t.Fatalf("expected one login and logout, got %d/%d", session.logins, session.logouts)
	}
	if guard.Active() {
		t.Fatal("guard still active after pass")
	}

	if err := guard.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if session.logins != 2 || session.logouts != 2 {
		t.Fatalf("expected two logins and logouts, got %d/%d", session.logins, session.logouts)
	}
}

func TestGuardRejectsConcurrentPass(t *testing.T) {
	session := &countingSession{}
	guard := downloader.NewGuard(session, "", logging.NewNop())

	var inner error
	err := guard.Do(context.Background(), func(ctx context.Context) error {
		inner = guard.Do(ctx, func(context.Context) error {
			t.Fatal("nested pass must not run")
			return nil
		})
		return nil
	})
	if err != nil {
		t.Fatalf("outer pass failed: %v", err)
	}
	if !errors.Is(inner, downloader.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", inner)
	}
	if session.logins != 1 {
		t.Fatalf("rejected pass must not log in, got %d logins", session.logins)
	}
}

func TestGuardRejectsPassHeldByOtherGuard(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "session.lock")
	first := downloader.NewGuard(&countingSession{}, lockPath, logging.NewNop())
	second := downloader.NewGuard(&countingSession{}, lockPath, logging.NewNop())

	var inner error
	if err := first.Do(context.Background(), func(ctx context.Context) error {
		inner = second.Do(ctx, func(context.Context) error { return nil })
		return nil
	}); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if !errors.Is(inner, downloader.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive from second guard, got %v", inner)
	}
	if err := second.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("second guard after release: %v", err)
	}
}

func TestGuardLoginFailureSkipsPass(t *testing.T) {
	session := &countingSession{loginErr: errors.New("forbidden")}
	guard := downloader.NewGuard(session, "", logging.NewNop())
	ran := false
	err := guard.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Fatalf("expected login failure to skip pass, err=%v ran=%v", err, ran)
	}
	if session.logouts != 0 {
		t.Fatalf("logout after failed login: %d", session.logouts)
	}
	if guard.Active() {
		t.Fatal("guard still active")
	}
}
