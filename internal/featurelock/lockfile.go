// Package featurelock implements devcontainer-lock.json pinning for
// resolved OCI features (spec.md §X supplemental feature), so repeated
// `up`s reuse an exact digest instead of re-resolving a floating tag.
package featurelock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// Lockfile pins exact feature versions for reproducible builds, per the
// devcontainer-lockfile specification.
type Lockfile struct {
	Features map[string]LockedFeature `json:"features"`
}

// LockedFeature is one pinned feature entry.
type LockedFeature struct {
	Version   string   `json:"version"`
	Resolved  string   `json:"resolved"`
	Integrity string   `json:"integrity"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// GetPath returns the lockfile path alongside configPath:
// `.devcontainer.json` → `.devcontainer-lock.json`,
// `devcontainer.json` → `devcontainer-lock.json`.
func GetPath(configPath string) string {
	dir := filepath.Dir(configPath)
	base := filepath.Base(configPath)
	if strings.HasPrefix(base, ".") {
		return filepath.Join(dir, ".devcontainer-lock.json")
	}
	return filepath.Join(dir, "devcontainer-lock.json")
}

// Load reads the lockfile next to configPath. A missing file returns
// (nil, false, nil); an empty file returns (nil, true, nil) — the
// devcontainer-lockfile spec's marker for "initialize on next build".
func Load(configPath string) (*Lockfile, bool, error) {
	path := GetPath(configPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, devcerrors.Wrap(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"failed to read devcontainer-lock.json")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, true, nil
	}
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, false, devcerrors.ConfigInvalid(path, err)
	}
	if lf.Features == nil {
		lf.Features = make(map[string]LockedFeature)
	}
	return &lf, false, nil
}

// Save writes the lockfile next to configPath via atomic temp-file+rename,
// so a reader never observes a partial file (the same discipline §4.8
// requires of ContainerState, generalized here for consistency — the
// teacher's equivalent Save does a plain os.WriteFile without this
// guarantee).
func (l *Lockfile) Save(configPath string) error {
	path := GetPath(configPath)
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return devcerrors.Internal(err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return devcerrors.Internal(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return devcerrors.Internal(err)
	}
	if err := tmp.Close(); err != nil {
		return devcerrors.Internal(err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return devcerrors.Internal(err)
	}
	return os.Rename(tmp.Name(), path)
}

// NormalizeFeatureID lowercases a feature ID for case-insensitive lookup.
func NormalizeFeatureID(id string) string {
	return strings.ToLower(id)
}

func New() *Lockfile {
	return &Lockfile{Features: make(map[string]LockedFeature)}
}

func (l *Lockfile) IsEmpty() bool {
	return l == nil || len(l.Features) == 0
}

func (l *Lockfile) Get(featureID string) (LockedFeature, bool) {
	if l == nil || l.Features == nil {
		return LockedFeature{}, false
	}
	locked, ok := l.Features[NormalizeFeatureID(featureID)]
	return locked, ok
}

func (l *Lockfile) Set(featureID string, locked LockedFeature) {
	if l.Features == nil {
		l.Features = make(map[string]LockedFeature)
	}
	l.Features[NormalizeFeatureID(featureID)] = locked
}

// Equals reports whether two lockfiles pin the same set of features at the
// same resolved digests, used to decide whether a rewrite is needed.
func (l *Lockfile) Equals(other *Lockfile) bool {
	if l == nil && other == nil {
		return true
	}
	if l == nil || other == nil {
		return false
	}
	if len(l.Features) != len(other.Features) {
		return false
	}
	for id, locked := range l.Features {
		o, ok := other.Features[id]
		if !ok || locked.Version != o.Version || locked.Resolved != o.Resolved || locked.Integrity != o.Integrity {
			return false
		}
		if len(locked.DependsOn) != len(o.DependsOn) {
			return false
		}
		for i, dep := range locked.DependsOn {
			if dep != o.DependsOn[i] {
				return false
			}
		}
	}
	return true
}
