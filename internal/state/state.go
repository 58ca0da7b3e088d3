// Package state implements C8: per-workspace container-identity and
// lifecycle metadata persistence, atomic across writes and self-healing on
// a corrupt read, per spec.md §3 ContainerState / §4.8.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/util"
)

// Phase is the lifecycle phase persisted in ContainerState; the full phase
// transition table lives in internal/lifecycle, this package only needs the
// enum for validation and display.
type Phase string

const (
	PhaseUninitialized Phase = "Uninitialized"
	PhaseBuilt         Phase = "Built"
	PhaseCreated       Phase = "Created"
	PhaseStarted       Phase = "Started"
	PhaseHooksRan      Phase = "HooksRan"
	PhaseStopped       Phase = "Stopped"
	PhaseAdopted       Phase = "Adopted"
	PhaseRemoved       Phase = "Removed"
)

var validPhases = map[Phase]bool{
	PhaseUninitialized: true, PhaseBuilt: true, PhaseCreated: true,
	PhaseStarted: true, PhaseHooksRan: true, PhaseStopped: true,
	PhaseAdopted: true, PhaseRemoved: true,
}

// ContainerState is the persisted record for one workspace.
type ContainerState struct {
	ID                  string   `json:"id"`
	WorkspacePath       string   `json:"workspacePath"`
	Runtime             string   `json:"runtime"` // "docker" | "podman"
	ImageRef            string   `json:"imageRef"`
	ContainerName       string   `json:"containerName"`
	ComposeProject      string   `json:"composeProject,omitempty"`
	LifecyclePhase      Phase    `json:"lifecyclePhase"`
	Features            []string `json:"features"`
	LastSuccessfulPhase Phase    `json:"lastSuccessfulPhase"`
	MarkerFiles         []string `json:"markerFiles"`
}

// Validate checks the required-field and enum-membership rules a small
// hand-written validator enforces instead of a JSON-schema library — the
// shape is small, internal-only, and versioned by this module itself (see
// DESIGN.md for why this stays stdlib-only).
func (s *ContainerState) Validate() error {
	if s.ID == "" {
		return devcerrors.Newf(devcerrors.CategoryState, devcerrors.CodeStateCorrupt, "missing id")
	}
	if s.WorkspacePath == "" {
		return devcerrors.Newf(devcerrors.CategoryState, devcerrors.CodeStateCorrupt, "missing workspacePath")
	}
	if s.Runtime != "" && s.Runtime != "docker" && s.Runtime != "podman" {
		return devcerrors.Newf(devcerrors.CategoryState, devcerrors.CodeStateCorrupt, "invalid runtime %q", s.Runtime)
	}
	if !validPhases[s.LifecyclePhase] {
		return devcerrors.Newf(devcerrors.CategoryState, devcerrors.CodeStateCorrupt, "invalid lifecyclePhase %q", s.LifecyclePhase)
	}
	return nil
}

// dir returns the state directory, honoring DEVC_STATE_DIR.
func dir() (string, error) {
	d, err := util.StateDir()
	if err != nil {
		return "", err
	}
	if err := util.EnsureDir(d, 0755); err != nil {
		return "", devcerrors.Internal(err)
	}
	return d, nil
}

func path(id string) (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, id+".json"), nil
}

// Load reads the ContainerState for id. A missing file means
// Uninitialized (not an error); a file that fails schema validation is
// quarantined to `<id>.json.corrupt` and treated as Uninitialized with the
// validation error returned alongside the zero-value state as a warning.
func Load(id string) (*ContainerState, error) {
	p, err := path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return &ContainerState{ID: id, LifecyclePhase: PhaseUninitialized}, nil
	}
	if err != nil {
		return nil, devcerrors.Internal(err)
	}

	var s ContainerState
	parseErr := json.Unmarshal(data, &s)
	if parseErr == nil {
		parseErr = s.Validate()
	}
	if parseErr != nil {
		quarantine := p + ".corrupt"
		_ = os.Rename(p, quarantine)
		return &ContainerState{ID: id, LifecyclePhase: PhaseUninitialized}, devcerrors.StateCorrupt(p, parseErr)
	}
	return &s, nil
}

// Save writes s atomically: write to a temp file in the same directory,
// then rename — POSIX-atomic on the same filesystem, so no reader ever
// observes a partial write (§8 invariant 7).
func Save(s *ContainerState) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p, err := path(s.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return devcerrors.Internal(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".tmp-*")
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
	return os.Rename(tmp.Name(), p)
}

// Remove deletes the state file (`rm` semantics — `down` alone preserves
// the state file per §4.3). A missing file is not an error; the marker
// files listed in the record are not touched.
func Remove(id string) error {
	p, err := path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return devcerrors.Internal(err)
	}
	return nil
}

// ListAll enumerates every known workspace's state, for `devc list`
// (spec.md §6's `list` row, given a concrete body in SPEC_FULL §X).
func ListAll() ([]*ContainerState, error) {
	d, err := dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d)
	if err != nil {
		return nil, devcerrors.Internal(err)
	}
	var out []*ContainerState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]
		s, err := Load(id)
		if err != nil {
			continue // quarantined entries are skipped, not fatal to the listing
		}
		out = append(out, s)
	}
	return out, nil
}
