// Package util provides small filesystem and path helpers shared across devc.
package util

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RealPath returns the absolute path with symlinks resolved.
func RealPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Path may not exist yet (e.g. a state dir about to be created);
		// fall back to the cleaned absolute path.
		return absPath, nil
	}
	return resolved, nil
}

// NormalizePath normalizes a path for hashing/comparison purposes.
func NormalizePath(path string) string {
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	return strings.TrimSuffix(path, "/")
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func ConfigHome() (string, error) {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// StateHome returns $XDG_STATE_HOME or ~/.local/state.
func StateHome() (string, error) {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state"), nil
}

// CacheHome returns $XDG_CACHE_HOME or ~/.cache.
func CacheHome() (string, error) {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache"), nil
}

// FeatureCacheDir returns the devc feature cache directory, honoring
// DEVC_CACHE_DIR.
func FeatureCacheDir() (string, error) {
	if v := os.Getenv("DEVC_CACHE_DIR"); v != "" {
		return v, nil
	}
	home, err := CacheHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "devc", "features"), nil
}

// RuntimeHome returns $XDG_RUNTIME_DIR, falling back to /run/user/<uid>.
func RuntimeHome() string {
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		return v
	}
	return filepath.Join("/run", "user", strconv.Itoa(os.Getuid()))
}

// StateDir returns the devc state directory, honoring DEVC_STATE_DIR.
func StateDir() (string, error) {
	if v := os.Getenv("DEVC_STATE_DIR"); v != "" {
		return v, nil
	}
	home, err := StateHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "devc"), nil
}

// ConfigFile returns the path to the global devc config.toml, honoring DEVC_CONFIG.
func ConfigFile() (string, error) {
	if v := os.Getenv("DEVC_CONFIG"); v != "" {
		return v, nil
	}
	home, err := ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "devc", "config.toml"), nil
}

// RuntimeSocketDir returns the directory under XDG_RUNTIME_DIR where
// per-workspace sockets (credential proxy, etc.) live.
func RuntimeSocketDir() string {
	return filepath.Join(RuntimeHome(), "devc")
}

// EnsureDir creates dir (and parents) with the given permissions.
func EnsureDir(dir string, perm os.FileMode) error {
	return os.MkdirAll(dir, perm)
}
