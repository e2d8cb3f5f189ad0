package naming

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

// Composer maps descriptors to target file names.
type Composer struct {
	// RetainLatest drops the "v<revision>" suffix; only the newest revision is
	// kept on disk so the marker carries no information.
	RetainLatest bool

	logger         *slog.Logger
	deprecatedOnce sync.Once
}

// NewComposer returns a composer. A nil logger discards output.
func NewComposer(retainLatest bool, logger *slog.Logger) *Composer {
	return &Composer{
		RetainLatest: retainLatest,
		logger:       logging.NewComponentLogger(logger, "naming"),
	}
}

// Compose returns the target name for the descriptor under the policy.
// Keep-style policies return the descriptor's original path. On error the
// original path is returned alongside the error so callers can leave the file
// untouched.
func (c *Composer) Compose(d parser.Descriptor, canonicalTitle string, policy Policy, offset int) (string, error) {
	switch policy {
	case PolicyNone, PolicySubtitleNone:
		return d.Path, nil
	case PolicyNormal:
		c.deprecatedOnce.Do(func() {
			logging.WarnWithContext(c.logger, "rename method normal is deprecated; files keep their names", "naming_policy_deprecated",
				logging.String(logging.FieldErrorHint, "set bangumi_manage.rename_method to pn or advance"),
				logging.String(logging.FieldImpact, "files are not renamed"),
			)
		})
		return d.Path, nil
	case PolicyPlainName:
		return c.mediaName(d.Title, d, offset), nil
	case PolicyAdvance:
		return c.mediaName(canonicalTitle, d, offset), nil
	case PolicySubtitlePlainName, PolicySubtitleAdvance:
		if !d.Language.Defined() {
			return d.Path, fmt.Errorf("compose %s: %w", d.Path, ErrUndefinedLanguage)
		}
		title := d.Title
		if policy == PolicySubtitleAdvance {
			title = canonicalTitle
		}
		return fmt.Sprintf("%s S%sE%s.%s%s", title, c.season(d), c.episode(d, offset), d.Language.Tag(), d.Suffix), nil
	default:
		return d.Path, services.Wrap(services.ErrConfiguration, "naming", "compose", "rename method "+strconv.Quote(string(policy)), ErrUnknownPolicy)
	}
}

func (c *Composer) mediaName(title string, d parser.Descriptor, offset int) string {
	return fmt.Sprintf("%s S%sE%s%s", title, c.season(d), c.episode(d, offset), d.Suffix)
}

func (c *Composer) season(d parser.Descriptor) string {
	return fmt.Sprintf("%02d", d.Season)
}

func (c *Composer) episode(d parser.Descriptor, offset int) string {
	field := d.Episode.Add(offset).Pad(2)
	if !c.RetainLatest && d.Revision != 1 {
		field += "v" + strconv.Itoa(d.Revision)
	}
	return field
}
