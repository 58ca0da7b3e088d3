// Package workspace implements workspace discovery and the stable
// DevcontainerId derivation described in spec.md §3.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/s-retlaw/devc/internal/util"
)

// Workspace is a directory containing a devcontainer.json, identified by
// its absolute canonicalized path. Read-only from the core's perspective.
type Workspace struct {
	Path       string // absolute, canonicalized
	ConfigPath string // path to the devcontainer.json that was found
}

// ComputeID derives the 32-char lowercase hex DevcontainerId: the first 16
// bytes of sha256(realpath(workspace)), hex-encoded. Stable across hosts and
// reboots for the same workspace path (§8 invariant 1).
func ComputeID(workspacePath string) string {
	realPath, err := util.RealPath(workspacePath)
	if err != nil {
		realPath = workspacePath
	}
	realPath = util.NormalizePath(realPath)

	sum := sha256.Sum256([]byte(realPath))
	return hex.EncodeToString(sum[:16])
}

// ComputeName derives a human-readable workspace name: the config's `name`
// field if set, else the directory basename.
func ComputeName(workspacePath, configName string) string {
	if configName != "" {
		return configName
	}
	return filepath.Base(workspacePath)
}

// Discover resolves workspaceDir to a Workspace: its real path (or the
// path as given when resolution fails) paired with configPath exactly as
// passed in. It does not search for a devcontainer.json itself.
func Discover(workspaceDir, configPath string) (*Workspace, error) {
	realPath, err := util.RealPath(workspaceDir)
	if err != nil {
		realPath = workspaceDir
	}
	return &Workspace{Path: realPath, ConfigPath: configPath}, nil
}

// ContainerName derives the devc-managed container name for a workspace,
// used for `docker/podman create --name` and for matching on `adopt`.
func ContainerName(id string) string {
	return "devc-" + id
}

// ComposeProjectName derives the compose project name for a workspace.
func ComposeProjectName(id string) string {
	return "devc-" + id
}

// SSHHost derives the SSH hostname alias for a workspace (`<id>.devc`).
func SSHHost(id string) string {
	return id + ".devc"
}
