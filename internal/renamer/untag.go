package renamer

import (
	"context"
	"fmt"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/textutil"
)

// Untag removes the series tag a pass added from hashes. Empty hashes are
// skipped; the call is a no-op when none remain.
func (r *Renamer) Untag(ctx context.Context, title string, hashes []string) (int, error) {
	targets := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		if hash != "" {
			targets = append(targets, hash)
		}
	}
	tag := textutil.SanitizeTag(title)
	if len(targets) == 0 || tag == "" {
		return 0, nil
	}

	untag := func(ctx context.Context) error {
		if err := r.client.RemoveTags(ctx, targets, tag); err != nil {
			return fmt.Errorf("remove tag %q: %w", tag, err)
		}
		return nil
	}
	var err error
	if r.guard != nil {
		err = r.guard.Do(ctx, untag)
	} else {
		err = untag(ctx)
	}
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx, r.logger).Info("series tag removed",
		logging.String(logging.FieldEventType, "series_untagged"),
		logging.String("tag", tag),
		logging.Int("torrents", len(targets)),
	)
	return len(targets), nil
}
