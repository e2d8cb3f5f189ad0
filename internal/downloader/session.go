package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
)

// Session is the login surface a Guard manages.
type Session interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
}

// Guard grants one exclusive client session at a time. A second caller is
// rejected with ErrSessionActive rather than queued. When a lock path is set
// the exclusion also holds across processes.
type Guard struct {
	session Session
	lock    *flock.Flock
	active  atomic.Bool
	logger  *slog.Logger
}

// NewGuard returns a guard for session. An empty lockPath limits exclusion to
// this process.
func NewGuard(session Session, lockPath string, logger *slog.Logger) *Guard {
	g := &Guard{
		session: session,
		logger:  logging.NewComponentLogger(logger, "downloader"),
	}
	if lockPath != "" {
		g.lock = flock.New(lockPath)
	}
	return g
}

// Do logs in, runs fn and logs out. The session is released on every exit
// path, including when fn fails or panics.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if !g.active.CompareAndSwap(false, true) {
		g.logger.Warn("download client session busy; pass skipped",
			logging.String(logging.FieldEventType, "session_busy"),
			logging.String(logging.FieldErrorHint, "wait for the running pass to finish"),
			logging.String(logging.FieldImpact, "this pass does not run"),
		)
		return ErrSessionActive
	}
	defer g.active.Store(false)

	if g.lock != nil {
		locked, err := g.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire session lock: %w", err)
		}
		if !locked {
			g.logger.Warn("download client session held by another process; pass skipped",
				logging.String(logging.FieldEventType, "session_busy"),
				logging.String("lock", g.lock.Path()),
				logging.String(logging.FieldErrorHint, "another autobangumi process is renaming"),
				logging.String(logging.FieldImpact, "this pass does not run"),
			)
			return ErrSessionActive
		}
		defer func() {
			if err := g.lock.Unlock(); err != nil {
				g.logger.Warn("session lock release failed", logging.Error(err))
			}
		}()
	}

	if err := g.session.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := g.session.Logout(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("download client logout failed", logging.Error(err))
		}
	}()

	return fn(ctx)
}

// Active reports whether a session is currently held by this guard.
func (g *Guard) Active() bool {
	return g.active.Load()
}
