// Package features implements C4: resolving, ordering, and installing
// devcontainer-spec OCI Features into a running container.
package features

import (
	"encoding/json"

	"github.com/s-retlaw/devc/internal/config"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// Metadata is a parsed devcontainer-feature.json: the subset of the
// devcontainer-features spec this installer acts on.
type Metadata struct {
	ID                   string                   `json:"id"`
	Version              string                   `json:"version"`
	Name                 string                   `json:"name"`
	DependsOn            map[string]interface{}   `json:"dependsOn"`
	InstallsAfter        []string                 `json:"installsAfter"`
	Options              map[string]interface{}   `json:"options"`
	ContainerEnv         map[string]string        `json:"containerEnv"`
	Privileged           bool                     `json:"privileged"`
	CapAdd               []string                 `json:"capAdd"`
	Entrypoint           string                   `json:"entrypoint"`
	OnCreateCommand      *config.LifecycleCommand `json:"onCreateCommand"`
	UpdateContentCommand *config.LifecycleCommand `json:"updateContentCommand"`
	PostCreateCommand    *config.LifecycleCommand `json:"postCreateCommand"`
	PostStartCommand     *config.LifecycleCommand `json:"postStartCommand"`
}

// ParseMetadata unmarshals a fetched devcontainer-feature.json.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, devcerrors.Wrap(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"invalid devcontainer-feature.json")
	}
	return &m, nil
}

// DependencyIDs returns dependsOn's keys with version tags stripped, the
// same vertex-ID normalization the installation graph keys features by.
func (m *Metadata) DependencyIDs() []string {
	ids := make([]string, 0, len(m.DependsOn))
	for id := range m.DependsOn {
		ids = append(ids, NormalizeID(id))
	}
	return ids
}

// Hook is one feature-contributed lifecycle command, threaded into
// lifecycle.HookRunner.SetFeatureHooks after installation so a feature's
// own onCreate/postCreate/postStart commands run alongside devcontainer.json's.
type Hook struct {
	FeatureID   string
	FeatureName string
	Argv        []string
}

// Resolved ties one devcontainer.json features-map entry to its
// fetched-and-extracted local directory and (for OCI features) resolved
// manifest digest.
type Resolved struct {
	Config   config.FeatureConfig
	Metadata Metadata
	CacheDir string
	Digest   string // OCI manifest digest; empty for locally-referenced features
}
