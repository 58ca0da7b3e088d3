package creds

import (
	"context"
	"fmt"
	"os"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/provider"
)

// dockerHome returns the in-container ~/.docker directory for remoteUser
// ("" or "root" means root's home).
func dockerHome(remoteUser string) string {
	if remoteUser == "" || remoteUser == "root" {
		return "/root/.docker"
	}
	return "/home/" + remoteUser + "/.docker"
}

// MountArgs returns the `--mount`/`--tmpfs` runArgs the Orchestrator must
// append at container-creation time so the credential socket and the
// RAM-only Docker config directory exist before any hook runs (§4.5 steps
// 2 and 5).
func MountArgs(hostSocketPath, remoteUser string) []string {
	return []string{
		"--mount", fmt.Sprintf("type=bind,source=%s,target=%s", hostSocketPath, ContainerSocketPath),
		"--tmpfs", fmt.Sprintf("%s:size=1m,mode=0700,uid=0", dockerHome(remoteUser)),
	}
}

// Install copies the in-container helper shim (built from
// helperBinaryPath, a Linux devc-helper binary) to both
// docker-credential-devc and git-credential-devc, then writes the
// container's ~/.docker/config.json credsStore and /etc/gitconfig
// credential.helper entries, per §4.5 steps 3–4.
func Install(ctx context.Context, prov *provider.Provider, containerName, helperBinaryPath, remoteUser string) error {
	data, err := os.ReadFile(helperBinaryPath)
	if err != nil {
		return devcerrors.Wrap(err, devcerrors.CategoryCredential, devcerrors.CodeCredentialUnavailable,
			"failed to read devc-helper binary").WithContext("path", helperBinaryPath)
	}

	if err := prov.CopyInto(ctx, containerName, DockerCredHelperPath, data, 0755); err != nil {
		return err
	}
	if err := prov.CopyInto(ctx, containerName, GitCredHelperPath, data, 0755); err != nil {
		return err
	}

	home := dockerHome(remoteUser)
	if _, err := prov.Run(ctx, "exec", containerName, "mkdir", "-p", home); err != nil {
		return err
	}
	dockerConfig := []byte(`{"credsStore":"devc"}` + "\n")
	if err := prov.CopyInto(ctx, containerName, home+"/config.json", dockerConfig, 0644); err != nil {
		return err
	}

	gitConfig := []byte("[credential]\n\thelper = devc\n")
	return prov.CopyInto(ctx, containerName, "/etc/gitconfig", gitConfig, 0644)
}
