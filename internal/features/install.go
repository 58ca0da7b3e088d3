package features

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/s-retlaw/devc/internal/config"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/featurelock"
	"github.com/s-retlaw/devc/internal/provider"
)

// Installer resolves, orders, and installs a devcontainer.json's features
// map into a running container, pinning resolved OCI digests in
// devcontainer-lock.json alongside the config file.
type Installer struct {
	Provider   *provider.Provider
	CacheRoot  string
	ConfigPath string
	Logger     *slog.Logger
}

func (in *Installer) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// Resolve fetches (or reuses a cached, lock-pinned copy of) every enabled
// feature in cfgs, returning them unordered.
func (in *Installer) Resolve(ctx context.Context, cfgs []config.FeatureConfig) ([]*Resolved, error) {
	lf, _, err := featurelock.Load(in.ConfigPath)
	if err != nil {
		return nil, err
	}
	if lf == nil {
		lf = featurelock.New()
	}
	changed := false

	resolved := make([]*Resolved, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}
		r, featureChanged, err := in.resolveOne(ctx, cfg, lf)
		if err != nil {
			return nil, err
		}
		changed = changed || featureChanged
		resolved = append(resolved, r)
	}

	if changed {
		if err := lf.Save(in.ConfigPath); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func (in *Installer) resolveOne(ctx context.Context, cfg config.FeatureConfig, lf *featurelock.Lockfile) (*Resolved, bool, error) {
	switch {
	case strings.HasPrefix(cfg.ID, "./") || strings.HasPrefix(cfg.ID, "../"):
		dir := filepath.Join(filepath.Dir(in.ConfigPath), cfg.ID)
		meta, err := loadLocalMetadata(dir)
		if err != nil {
			return nil, false, err
		}
		return &Resolved{Config: cfg, Metadata: *meta, CacheDir: dir}, false, nil

	case strings.HasPrefix(cfg.ID, "/"):
		return nil, false, devcerrors.Newf(devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"feature %q: locally-referenced features may not use an absolute path", cfg.ID)

	case strings.HasPrefix(cfg.ID, "https://"):
		return nil, false, devcerrors.Newf(devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"feature %q: HTTPS-tarball distribution is not supported", cfg.ID)

	default:
		return in.resolveOCI(ctx, cfg, lf)
	}
}

func (in *Installer) resolveOCI(ctx context.Context, cfg config.FeatureConfig, lf *featurelock.Lockfile) (*Resolved, bool, error) {
	cacheDir := filepath.Join(in.CacheRoot, sanitizeRef(cfg.ID))
	locked, hasLock := lf.Get(cfg.ID)

	if hasLock && dirExists(cacheDir) {
		if meta, err := loadLocalMetadata(cacheDir); err == nil {
			return &Resolved{Config: cfg, Metadata: *meta, CacheDir: cacheDir, Digest: locked.Resolved}, false, nil
		} else {
			in.logger().Warn("cached feature metadata unreadable, re-pulling", "feature", cfg.ID, "error", err)
		}
	}

	digest, err := PullOCI(ctx, cfg.ID, cacheDir)
	if err != nil {
		return nil, false, err
	}
	meta, err := loadLocalMetadata(cacheDir)
	if err != nil {
		return nil, false, err
	}
	lf.Set(cfg.ID, featurelock.LockedFeature{
		Version:   meta.Version,
		Resolved:  digest,
		Integrity: digest,
		DependsOn: meta.DependencyIDs(),
	})
	return &Resolved{Config: cfg, Metadata: *meta, CacheDir: cacheDir, Digest: digest}, true, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func sanitizeRef(ref string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_")
	return r.Replace(ref)
}

func loadLocalMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, "devcontainer-feature.json"))
	if err != nil {
		return nil, devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"missing devcontainer-feature.json in %s", dir)
	}
	return ParseMetadata(data)
}

// InstallAll copies each resolved feature's extracted files into the
// container and runs its install.sh as root, in dependency order, returning
// the onCreate/postCreate/postStart hooks each feature contributes so the
// caller can thread them into lifecycle.HookRunner.SetFeatureHooks.
func (in *Installer) InstallAll(ctx context.Context, containerName string, ordered []*Resolved) (onCreate, postCreate, postStart []Hook, err error) {
	for _, r := range ordered {
		destDir := "/tmp/devcontainer-features/" + sanitizeRef(r.Config.ID)
		if err := in.Provider.CopyTreeInto(ctx, containerName, destDir, r.CacheDir); err != nil {
			return nil, nil, nil, err
		}

		env := optionsToEnv(r.Config.Options, r.Metadata.Options)
		for k, v := range r.Metadata.ContainerEnv {
			env[k] = v
		}
		argv := []string{"sh", "-c", fmt.Sprintf("cd %s && chmod +x install.sh && ./install.sh", destDir)}
		if _, execErr := in.Provider.Exec(ctx, containerName, argv, "root", env, false, nil, nil, nil); execErr != nil {
			var perr *provider.ProviderError
			if errors.As(execErr, &perr) {
				if provider.IsRootlessIncompatible(in.Provider.Kind, perr.StderrTail) {
					return nil, nil, nil, devcerrors.FeatureIncompatibleRootless(r.Config.ID, perr)
				}
				return nil, nil, nil, devcerrors.FeatureFailed(r.Config.ID, perr.StderrTail)
			}
			return nil, nil, nil, execErr
		}

		onCreate = append(onCreate, hooksFrom(r, r.Metadata.OnCreateCommand)...)
		postCreate = append(postCreate, hooksFrom(r, r.Metadata.PostCreateCommand)...)
		postStart = append(postStart, hooksFrom(r, r.Metadata.PostStartCommand)...)
	}
	return onCreate, postCreate, postStart, nil
}

func hooksFrom(r *Resolved, cmd *config.LifecycleCommand) []Hook {
	var out []Hook
	for _, argv := range cmd.Argv() {
		out = append(out, Hook{FeatureID: r.Config.ID, FeatureName: r.Metadata.Name, Argv: argv})
	}
	return out
}

// optionsToEnv renders a feature's resolved options as the upper-cased
// environment variables the devcontainer-features install.sh contract
// expects, falling back to each option's declared default when
// devcontainer.json didn't override it.
func optionsToEnv(selected map[string]interface{}, declared map[string]interface{}) map[string]string {
	env := make(map[string]string)
	for name, decl := range declared {
		key := strings.ToUpper(name)
		if declMap, ok := decl.(map[string]interface{}); ok {
			if def, ok := declMap["default"]; ok {
				env[key] = fmt.Sprintf("%v", def)
			}
		}
	}
	for name, val := range selected {
		env[strings.ToUpper(name)] = fmt.Sprintf("%v", val)
	}
	return env
}
