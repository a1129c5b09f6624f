// Package backup copies target files aside before sync overwrites them.
package backup

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/paths"
)

// DefaultRetention is how many backups are kept per file name.
const DefaultRetention = 10

const timestampLayout = "20060102_150405"

// Manager writes timestamped copies of files into a backup directory and
// prunes old ones.
type Manager struct {
	dir       string
	retention int
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how many backups to keep per file name.
// Zero or negative keeps everything.
func WithRetention(n int) Option {
	return func(m *Manager) { m.retention = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.log = logger }
}

// WithClock overrides the timestamp source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager storing backups under dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:       dir,
		retention: DefaultRetention,
		log:       logging.NewDiscard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies path into the backup directory as <name>.<timestamp>.bak,
// preserving the file mode, and prunes backups beyond the retention count.
// A missing source file is not an error; it returns an empty path.
func (m *Manager) Create(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", path)
	}

	if err := paths.EnsureDir(m.dir, paths.DefaultDirPerm); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	name := base + "." + m.now().Format(timestampLayout) + ".bak"
	dst := filepath.Join(m.dir, name)

	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return "", errors.Wrapf(err, "writing backup %s", dst)
	}
	m.log.Info("backup created", "source", path, "backup", dst)

	if err := m.prune(base); err != nil {
		return "", err
	}
	return dst, nil
}

// prune removes the oldest backups of base beyond the retention count.
// The timestamp format sorts lexically, so name order is age order.
func (m *Manager) prune(base string) error {
	if m.retention <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(m.dir, base+".*.bak"))
	if err != nil {
		return errors.Wrap(err, "listing backups")
	}
	if len(matches) <= m.retention {
		return nil
	}

	sort.Strings(matches)
	for _, old := range matches[:len(matches)-m.retention] {
		if err := os.Remove(old); err != nil {
			return errors.Wrapf(err, "pruning %s", old)
		}
		m.log.Debug("backup pruned", "path", old)
	}
	return nil
}
