package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"a":1}`), 0o600))

	at := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	m := NewManager(filepath.Join(dir, "backups"), WithClock(fixedClock(at)))

	got, err := m.Create(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backups", "mcp.json.20260825_103000.bak"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCreateMissingSource(t *testing.T) {
	m := NewManager(t.TempDir())

	got, err := m.Create(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetention(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(src, []byte("x = 1\n"), 0o644))

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	m := NewManager(filepath.Join(dir, "backups"), WithRetention(2), WithClock(clock))

	for i := 0; i < 5; i++ {
		_, err := m.Create(src)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "config.toml.*.bak"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Newest two survive; glob results are sorted.
	assert.Equal(t, "config.toml.20260825_120004.bak", filepath.Base(matches[0]))
	assert.Equal(t, "config.toml.20260825_120005.bak", filepath.Base(matches[1]))
}

func TestRetentionPerFileName(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	m := NewManager(filepath.Join(dir, "backups"), WithRetention(1), WithClock(clock))

	_, err := m.Create(a)
	require.NoError(t, err)
	_, err = m.Create(b)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "*.bak"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
