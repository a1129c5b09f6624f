package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// Home returns the user's home directory. It prefers the XDG-resolved home
// and falls back to os.UserHomeDir, which can fail in minimal environments
// (e.g. containers without passwd entries); in that case the empty string
// is returned and ~ paths are left unexpanded.
func Home() string {
	if xdg.Home != "" {
		return xdg.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// ExpandHome replaces a leading ~ or ~/ in path with the user's home directory.
// Paths without a ~ prefix are returned unchanged.
func ExpandHome(path string) string {
	if path == "~" {
		return Home()
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		home := Home()
		if home == "" {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Resolve expands a leading ~ and anchors relative paths at baseDir.
// Absolute paths are cleaned and returned as-is.
func Resolve(path, baseDir string) string {
	expanded := ExpandHome(path)
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded)
	}
	return filepath.Join(baseDir, expanded)
}

// EnsureDir creates the directory and any necessary parents with the given
// permissions. If perm is 0, DefaultDirPerm (0700) is used. Idempotent.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}
