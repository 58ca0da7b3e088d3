package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker-credential-helpers/client"
	"github.com/docker/docker-credential-helpers/credentials"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// DockerResolver forwards Docker registry credential requests to the real
// host helper named by ~/.docker/config.json's credsStore, using the exact
// wire contract docker-credential-helpers/client already speaks — this is
// the same library the real docker-credential-* shims use, so the proxy
// round-trips faithfully instead of reimplementing the JSON contract
// (§4.5D).
type DockerResolver struct {
	Program client.ProgramFunc
}

// NewDockerResolver builds a resolver that shells out to
// `docker-credential-<credsStore>`.
func NewDockerResolver(credsStore string) *DockerResolver {
	return &DockerResolver{Program: client.NewShellProgramFunc("docker-credential-" + credsStore)}
}

// HostCredsStore reads the credsStore field from the host's
// ~/.docker/config.json, the credential helper name Docker itself would
// use. Returns "" if unset or the file doesn't exist.
func HostCredsStore() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", devcerrors.Internal(err)
	}
	path := filepath.Join(home, ".docker", "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", devcerrors.Internal(err)
	}
	var cfg struct {
		CredsStore string `json:"credsStore"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", devcerrors.Wrap(err, devcerrors.CategoryCredential, devcerrors.CodeCredentialUnavailable,
			"failed to parse host ~/.docker/config.json")
	}
	return cfg.CredsStore, nil
}

func (d *DockerResolver) Resolve(ctx context.Context, op Op, stdin []byte) ([]byte, error) {
	if d == nil || d.Program == nil {
		return nil, devcerrors.Newf(devcerrors.CategoryCredential, devcerrors.CodeCredentialUnavailable,
			"no docker credential helper configured")
	}
	switch op {
	case OpGet:
		serverURL := strings.TrimSpace(string(stdin))
		creds, err := client.Get(d.Program, serverURL)
		if err != nil {
			return nil, devcerrors.CredentialUnavailable("docker", serverURL, err)
		}
		return json.Marshal(creds)
	case OpStore:
		var c credentials.Credentials
		if err := json.Unmarshal(stdin, &c); err != nil {
			return nil, devcerrors.Internal(err)
		}
		if err := client.Store(d.Program, &c); err != nil {
			return nil, devcerrors.CredentialUnavailable("docker", c.ServerURL, err)
		}
		return []byte("{}"), nil
	case OpErase:
		serverURL := strings.TrimSpace(string(stdin))
		if err := client.Erase(d.Program, serverURL); err != nil {
			return nil, devcerrors.CredentialUnavailable("docker", serverURL, err)
		}
		return []byte("{}"), nil
	case OpList:
		m, err := client.List(d.Program)
		if err != nil {
			return nil, devcerrors.CredentialUnavailable("docker", "", err)
		}
		return json.Marshal(m)
	default:
		return nil, fmt.Errorf("docker credential op %q unsupported", op)
	}
}
