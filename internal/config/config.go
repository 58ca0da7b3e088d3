package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// rawConfig mirrors the on-disk devcontainer.json shape before it is turned
// into a Plan + DevcontainerConfig. Kept private: callers only ever see the
// resolved DevcontainerConfig produced by Resolve.
type rawConfig struct {
	Name    string `json:"name"`
	Image   string `json:"image"`
	Build   *struct {
		Dockerfile string            `json:"dockerfile"`
		Context    string            `json:"context"`
		Args       map[string]string `json:"args"`
		Target     string            `json:"target"`
	} `json:"build"`
	DockerComposeFile StringOrSlice `json:"dockerComposeFile"`
	Service           string        `json:"service"`
	RunServices       []string      `json:"runServices"`

	RemoteUser      string                 `json:"remoteUser"`
	ContainerEnv    map[string]string      `json:"containerEnv"`
	RemoteEnv       map[string]string      `json:"remoteEnv"`
	Mounts          []string               `json:"mounts"`
	ForwardPorts    PortSpecs              `json:"forwardPorts"`
	AppPort         *PortSpec              `json:"appPort"`
	PortsAttributes map[string]PortSpec    `json:"portsAttributes"`
	RunArgs         []string               `json:"runArgs"`
	Privileged      bool                   `json:"privileged"`
	CapAdd          []string               `json:"capAdd"`
	SecurityOpt     []string               `json:"securityOpt"`
	Features        map[string]interface{} `json:"features"`

	InitializeCommand     *LifecycleCommand `json:"initializeCommand"`
	OnCreateCommand       *LifecycleCommand `json:"onCreateCommand"`
	UpdateContentCommand  *LifecycleCommand `json:"updateContentCommand"`
	PostCreateCommand     *LifecycleCommand `json:"postCreateCommand"`
	PostStartCommand      *LifecycleCommand `json:"postStartCommand"`
	PostAttachCommand     *LifecycleCommand `json:"postAttachCommand"`
}

// DevcontainerConfig is the parsed, substituted configuration — created
// per-invocation, never mutated after construction, per spec.md §3.
type DevcontainerConfig struct {
	Name string
	Plan Plan

	RemoteUser      string
	ContainerEnv    map[string]string
	RemoteEnv       map[string]string
	Mounts          []string
	ForwardPorts    PortSpecs
	AppPort         *PortSpec
	PortsAttributes map[string]PortSpec
	RunArgs         []string
	Privileged      bool
	CapAdd          []string
	SecurityOpt     []string
	Features        []FeatureConfig

	InitializeCommand    *LifecycleCommand
	OnCreateCommand      *LifecycleCommand
	UpdateContentCommand *LifecycleCommand
	PostCreateCommand    *LifecycleCommand
	PostStartCommand     *LifecycleCommand
	PostAttachCommand    *LifecycleCommand

	// SourcePath is the absolute path of the devcontainer.json this config
	// was parsed from, kept for diagnostics and substitution.
	SourcePath string
}

// FindConfigPath locates devcontainer.json under a workspace, preferring
// .devcontainer/devcontainer.json, falling back to the workspace root.
func FindConfigPath(workspaceDir string) (string, error) {
	candidates := []string{
		filepath.Join(workspaceDir, ".devcontainer", "devcontainer.json"),
		filepath.Join(workspaceDir, "devcontainer.json"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", devcerrors.ErrConfigNotFound.Clone().WithContext("workspace", workspaceDir)
}

// ParseFile reads and JSONC-tolerantly parses devcontainer.json into a
// DevcontainerConfig, without variable substitution (see Substitute).
func ParseFile(path string) (*DevcontainerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, devcerrors.Wrap(err, devcerrors.CategoryConfig, devcerrors.CodeConfigInvalid,
			"failed to read devcontainer.json").WithContext("path", path)
	}
	clean := jsonc.ToJSON(data)

	var raw rawConfig
	if err := json.Unmarshal(clean, &raw); err != nil {
		return nil, devcerrors.ConfigInvalid(path, err)
	}

	cfg := &DevcontainerConfig{
		Name:                  raw.Name,
		RemoteUser:            raw.RemoteUser,
		ContainerEnv:          raw.ContainerEnv,
		RemoteEnv:             raw.RemoteEnv,
		Mounts:                raw.Mounts,
		ForwardPorts:          raw.ForwardPorts,
		AppPort:               raw.AppPort,
		PortsAttributes:       raw.PortsAttributes,
		RunArgs:               raw.RunArgs,
		Privileged:            raw.Privileged,
		CapAdd:                raw.CapAdd,
		SecurityOpt:           raw.SecurityOpt,
		Features:              ParseFeatures(raw.Features),
		InitializeCommand:     raw.InitializeCommand,
		OnCreateCommand:       raw.OnCreateCommand,
		UpdateContentCommand:  raw.UpdateContentCommand,
		PostCreateCommand:     raw.PostCreateCommand,
		PostStartCommand:      raw.PostStartCommand,
		PostAttachCommand:     raw.PostAttachCommand,
		SourcePath:            path,
	}

	workspaceDir := filepath.Dir(filepath.Dir(path)) // .devcontainer/..
	switch {
	case len(raw.DockerComposeFile) > 0:
		files := make([]string, 0, len(raw.DockerComposeFile))
		for _, f := range raw.DockerComposeFile {
			files = append(files, filepath.Join(filepath.Dir(path), f))
		}
		cfg.Plan = NewComposePlan(files, raw.Service, "")
		cfg.Plan.(*ComposePlan).RunServices = raw.RunServices
		cfg.Plan.(*ComposePlan).WorkDir = workspaceDir
	case raw.Build != nil:
		dockerfile := filepath.Join(filepath.Dir(path), raw.Build.Dockerfile)
		context := filepath.Join(filepath.Dir(path), raw.Build.Context)
		bp := NewBuildPlan(dockerfile, context)
		bp.Target = raw.Build.Target
		if raw.Build.Args != nil {
			bp.Args = raw.Build.Args
		}
		cfg.Plan = bp
	case raw.Image != "":
		cfg.Plan = NewImagePlan(raw.Image)
	default:
		return nil, devcerrors.ConfigInvalid(path, nil).WithHint("must specify one of image, build, or dockerComposeFile")
	}

	return cfg, nil
}
