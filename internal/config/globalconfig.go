package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/util"
)

// GlobalConfig is the parsed `<XDG_CONFIG_HOME>/devc/config.toml`, per
// spec.md §6's file-formats table. Loading/saving it is a thin external
// collaborator the resolver only consumes — Non-goals exclude "config-file
// I/O" as a core concern, so this stays a small shim around go-toml.
type GlobalConfig struct {
	Runtime     RuntimeSection               `toml:"runtime"`
	Credentials CredentialsSection           `toml:"credentials"`
	Ports       PortsSection                 `toml:"ports"`
	Agents      AgentsSection                `toml:"agents"`
}

type RuntimeSection struct {
	Runtime string `toml:"runtime"` // "docker" | "podman"
}

type CredentialsSection struct {
	Enabled bool `toml:"enabled"`
}

type PortsSection struct {
	AutoForward string `toml:"auto_forward"` // global default; per-port onAutoForward wins, see Open Questions
}

type AgentsSection struct {
	Enabled bool                        `toml:"enabled"`
	Codex   AgentConfigSection          `toml:"codex"`
	Claude  AgentConfigSection          `toml:"claude"`
	Cursor  AgentConfigSection          `toml:"cursor"`
	Gemini  AgentConfigSection          `toml:"gemini"`
}

type AgentConfigSection struct {
	Enabled    bool     `toml:"enabled"`
	Install    bool     `toml:"install"`
	OnStart    bool     `toml:"on_start"`
	EnvForward []string `toml:"env_forward"`
}

// LoadGlobalConfig reads the global config file, returning zero-value
// defaults (agents off, runtime auto-detect) if it doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := util.ConfigFile()
	if err != nil {
		return nil, devcerrors.Internal(err)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &GlobalConfig{}, nil
	}
	if err != nil {
		return nil, devcerrors.Wrap(err, devcerrors.CategoryConfig, devcerrors.CodeConfigInvalid, "failed to read global config").
			WithContext("path", path)
	}
	var gc GlobalConfig
	if err := toml.Unmarshal(data, &gc); err != nil {
		return nil, devcerrors.ConfigInvalid(path, err)
	}
	return &gc, nil
}

// Save writes the global config back to disk, creating parent directories.
func (gc *GlobalConfig) Save() error {
	path, err := util.ConfigFile()
	if err != nil {
		return devcerrors.Internal(err)
	}
	if err := util.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return devcerrors.Internal(err)
	}
	data, err := toml.Marshal(*gc)
	if err != nil {
		return devcerrors.Internal(err)
	}
	return os.WriteFile(path, data, 0644)
}
