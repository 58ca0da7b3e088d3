package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/provider"
)

// Settings is the per-agent configuration resolved from
// config.AgentConfigSection (global config) merged with any workspace
// override — kept as a plain struct here so this package has no dependency
// on internal/config.
type Settings struct {
	Enabled    bool
	Install    bool
	OnStart    bool
	EnvForward []string
	// HostOverrides replaces a preset FileSpec's HostPath (matched by its
	// original, unexpanded value) with a user-supplied path — "preset
	// defaults ∪ user overrides" per §4.6 step 1.
	HostOverrides map[string]string
}

// SyncResult is the per-agent outcome recorded by §4.6 step 6.
type SyncResult struct {
	Agent      Kind
	Validated  bool
	Copied     bool
	Installed  bool
	Warnings   []string
}

// Injector runs the sync steps of §4.6 against one already-started
// container.
type Injector struct {
	Provider      *provider.Provider
	ContainerName string
	RemoteUser    string
	Logger        *slog.Logger
}

func (inj *Injector) logger() *slog.Logger {
	if inj.Logger != nil {
		return inj.Logger
	}
	return slog.Default()
}

// containerPath rewrites a preset's /root/-rooted container path to the
// configured remoteUser's home, leaving it untouched for root.
func containerPath(path, remoteUser string) string {
	if remoteUser == "" || remoteUser == "root" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/root/"); ok {
		return "/home/" + remoteUser + "/" + rest
	}
	return path
}

// expandHost resolves a "~"-prefixed host path against the invoking user's
// home directory.
func expandHost(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// resolvedFile is one FileSpec with overrides and "~" applied.
type resolvedFile struct {
	HostPath      string
	ContainerPath string
	Secret        bool
}

func (inj *Injector) resolveFiles(preset Preset, settings Settings) ([]resolvedFile, error) {
	out := make([]resolvedFile, 0, len(preset.Files))
	for _, f := range preset.Files {
		hostRaw := f.HostPath
		if settings.HostOverrides != nil {
			if override, ok := settings.HostOverrides[f.HostPath]; ok {
				hostRaw = override
			}
		}
		host, err := expandHost(hostRaw)
		if err != nil {
			return nil, devcerrors.Internal(err)
		}
		out = append(out, resolvedFile{
			HostPath:      host,
			ContainerPath: containerPath(f.ContainerPath, inj.RemoteUser),
			Secret:        f.Secret,
		})
	}
	return out, nil
}

// validateHost checks every resolved file exists and is readable and every
// required env key is present, per §4.6 step 2. Returns the name of the
// first missing requirement for the warning message (§4.3 Claude
// invariant generalizes to every preset: any missing prerequisite skips
// the whole agent's copy step).
func validateHost(files []resolvedFile, requiredEnv []string, hostEnv map[string]string) (bool, string) {
	for _, f := range files {
		info, err := os.Stat(f.HostPath)
		if err != nil {
			return false, f.HostPath
		}
		if !info.IsDir() {
			fh, err := os.Open(f.HostPath)
			if err != nil {
				return false, f.HostPath
			}
			fh.Close()
		}
	}
	for _, key := range requiredEnv {
		if _, ok := hostEnv[key]; !ok {
			if _, ok := os.LookupEnv(key); !ok {
				return false, key
			}
		}
	}
	return true, ""
}

// Sync runs the full per-agent sequence of §4.6 against one agent kind,
// never returning a fatal error for agent-local problems — those become
// Warnings on the returned SyncResult, per §7's AgentWarning policy.
func (inj *Injector) Sync(ctx context.Context, kind Kind, settings Settings, hostEnv map[string]string) *SyncResult {
	result := &SyncResult{Agent: kind}

	preset, ok := Presets[kind]
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown agent preset %q", kind))
		return result
	}
	if !settings.Enabled {
		return result
	}

	files, err := inj.resolveFiles(preset, settings)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}

	validated, missing := validateHost(files, preset.RequiredEnv, hostEnv)
	result.Validated = validated
	if !validated {
		msg := fmt.Sprintf("missing required host file or env %q", missing)
		result.Warnings = append(result.Warnings, msg)
		inj.logger().Warn("agent injector: validation failed", "agent", kind, "missing", missing)
		return result
	}

	if err := inj.copyFiles(ctx, files); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		inj.logger().Warn("agent injector: copy failed", "agent", kind, "error", err)
		return result
	}
	result.Copied = true

	present, err := inj.probe(ctx, preset.ProbeCommand)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("probe failed: %s", err.Error()))
		return result
	}
	if present {
		return result
	}

	if !settings.Install {
		return result
	}
	npmPresent, _ := inj.probe(ctx, []string{"npm", "--version"})
	if !npmPresent {
		result.Warnings = append(result.Warnings, "npm not found in container, skipping install")
		return result
	}

	if err := inj.install(ctx, preset, settings, hostEnv); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("install failed: %s", err.Error()))
		return result
	}
	result.Installed = true
	return result
}

// copyFiles streams every resolved file or directory into the container,
// applying the secret/non-secret mode split of §4.6 step 3 (0600 under
// umask 077 for credential files, 0644 for plain config).
func (inj *Injector) copyFiles(ctx context.Context, files []resolvedFile) error {
	for _, f := range files {
		info, err := os.Stat(f.HostPath)
		if err != nil {
			return devcerrors.Internal(err)
		}
		mode := int64(0644)
		if f.Secret {
			mode = 0600
		}
		if info.IsDir() {
			if err := inj.Provider.CopyTreeInto(ctx, inj.ContainerName, f.ContainerPath, f.HostPath); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(f.HostPath)
		if err != nil {
			return devcerrors.Internal(err)
		}
		dir := filepath.Dir(f.ContainerPath)
		if _, err := inj.Provider.Run(ctx, "exec", inj.ContainerName, "mkdir", "-p", dir); err != nil {
			return err
		}
		if err := inj.Provider.CopyInto(ctx, inj.ContainerName, f.ContainerPath, data, mode); err != nil {
			return err
		}
	}
	return nil
}

// probe runs the preset's binary-probe command, reporting whether it
// exited zero.
func (inj *Injector) probe(ctx context.Context, argv []string) (bool, error) {
	if len(argv) == 0 {
		return false, nil
	}
	res, err := inj.Provider.Exec(ctx, inj.ContainerName, argv, "", nil, false, nil, nil, nil)
	if err != nil {
		var perr *provider.ProviderError
		if errors.As(err, &perr) {
			return false, nil
		}
		return false, err
	}
	return res.ExitCode == 0, nil
}

// install runs the preset's install command with only env_forward-listed
// keys plus the preset's required keys forwarded, per §4.6's "Env
// forwarding" rule.
func (inj *Injector) install(ctx context.Context, preset Preset, settings Settings, hostEnv map[string]string) error {
	env := make(map[string]string)
	keys := append(append([]string{}, settings.EnvForward...), preset.RequiredEnv...)
	for _, k := range keys {
		if v, ok := hostEnv[k]; ok {
			env[k] = v
			continue
		}
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	_, err := inj.Provider.Exec(ctx, inj.ContainerName, preset.InstallCommand, "", env, false, nil, nil, nil)
	return err
}
