package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s-retlaw/devc/internal/agent"
	"github.com/s-retlaw/devc/internal/config"
	"github.com/s-retlaw/devc/internal/creds"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/features"
	"github.com/s-retlaw/devc/internal/lock"
	"github.com/s-retlaw/devc/internal/ports"
	"github.com/s-retlaw/devc/internal/provider"
	"github.com/s-retlaw/devc/internal/state"
	"github.com/s-retlaw/devc/internal/util"
	"github.com/s-retlaw/devc/internal/workspace"
)

// Orchestrator drives one workspace's container through the Phase state
// machine, holding the workspace lock for the duration of any mutating
// call. Every step that changes Phase is persisted before the next one
// starts, so a crash mid-`up` resumes from the last completed step
// instead of repeating work (§8 invariant: "no operation straddles two
// phases without a durable checkpoint in between").
type Orchestrator struct {
	Provider *provider.Provider
	Cfg      *config.DevcontainerConfig
	WS       *workspace.Workspace
	ID       string
	Logger   *slog.Logger

	// CredsProxy, HelperBinaryPath, and AgentSettings are optional — when
	// CredsProxy is nil, C5 wiring is skipped entirely (credentials.go);
	// when AgentSettings is empty, C6 wiring is a no-op (agents.go). Both
	// are nil-safe so existing callers that only set the five fields
	// above keep working unchanged.
	CredsProxy       *creds.Proxy
	HelperBinaryPath string
	AgentSettings    map[agent.Kind]agent.Settings
	HostEnv          map[string]string

	// PortForwarder drives C7 (ports.go). Nil-safe like CredsProxy/
	// AgentSettings — when unset, `up` runs with port discovery/tunneling
	// skipped entirely.
	PortForwarder *ports.Forwarder
}

func (o *Orchestrator) containerName() string {
	if cp, ok := o.Cfg.Plan.(*config.ComposePlan); ok && cp.ProjectName != "" {
		return cp.ProjectName
	}
	return workspace.ContainerName(o.ID)
}

// ContainerName exports the derived container name for callers (the CLI's
// `shell`/`run`/`list`) that need it without going through a full
// lifecycle operation.
func (o *Orchestrator) ContainerName() string {
	return o.containerName()
}

// withLock acquires the workspace's advisory lock, runs fn, and releases
// it — every mutating Orchestrator method is a thin wrapper around this.
func (o *Orchestrator) withLock(fn func() error) error {
	l, err := lock.Acquire(o.ID)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// Up realizes the full create→start→hooks sequence, picking up from
// whatever phase the workspace's persisted state says it's already in —
// a container left Created by an earlier crash is started and hooked
// without being recreated.
func (o *Orchestrator) Up(ctx context.Context) error {
	return o.withLock(func() error {
		s, err := state.Load(o.ID)
		if err != nil && devcerrors.GetCode(err) != devcerrors.CodeStateCorrupt {
			return err
		}
		if s.ContainerName == "" {
			s.ContainerName = o.containerName()
			s.WorkspacePath = o.WS.Path
			s.Runtime = string(o.Provider.Kind)
		}

		// A resume from Stopped is a `devc start` of an already-provisioned
		// container rather than a fresh `up`/`rebuild` — §4.6 only runs
		// agent injection unconditionally on up/rebuild, gating it per-agent
		// on on_start=true here.
		isRestart := s.LifecyclePhase == state.PhaseStopped

		if s.LifecyclePhase == state.PhaseUninitialized {
			if err := o.build(ctx, s); err != nil {
				return err
			}
		}
		if s.LifecyclePhase == state.PhaseBuilt {
			if err := o.create(ctx, s); err != nil {
				return err
			}
		}

		if s.LifecyclePhase == state.PhaseCreated || s.LifecyclePhase == state.PhaseStopped {
			if err := o.start(ctx, s); err != nil {
				return err
			}
		}

		if s.LifecyclePhase == state.PhaseStarted {
			if err := o.runHooks(ctx, s, isRestart); err != nil {
				return err
			}
		}

		return nil
	})
}

func (o *Orchestrator) build(ctx context.Context, s *state.ContainerState) error {
	bp, ok := o.Cfg.Plan.(*config.BuildPlan)
	if !ok {
		return o.checkpoint(s, EventBuild, func() error { return nil })
	}
	tag := "devc-" + o.ID
	return o.checkpoint(s, EventBuild, func() error {
		return o.Provider.BuildImage(ctx, bp.Dockerfile, bp.Context, tag, bp.Args, false)
	})
}

func (o *Orchestrator) create(ctx context.Context, s *state.ContainerState) error {
	return o.checkpoint(s, EventCreate, func() error {
		if err := o.ensureCredsSocket(); err != nil {
			return err
		}
		switch plan := o.Cfg.Plan.(type) {
		case *config.ComposePlan:
			project := plan.ProjectName
			if project == "" {
				project = workspace.ComposeProjectName(o.ID)
			}
			s.ComposeProject = project
			return o.Provider.ComposeUp(ctx, project, plan.Files, true)
		case *config.BuildPlan:
			tag := "devc-" + o.ID
			s.ImageRef = tag
			return o.createContainer(ctx, s, tag)
		case *config.ImagePlan:
			if err := o.Provider.EnsureImage(ctx, plan.Image); err != nil {
				return err
			}
			s.ImageRef = plan.Image
			return o.createContainer(ctx, s, plan.Image)
		default:
			return devcerrors.Newf(devcerrors.CategoryConfig, devcerrors.CodeConfigInvalid, "unknown plan type")
		}
	})
}

func (o *Orchestrator) createContainer(ctx context.Context, s *state.ContainerState, image string) error {
	ports, err := provider.ValidatePorts(portStrings(o.Cfg.ForwardPorts))
	if err != nil {
		return err
	}
	runArgs := append(append([]string{}, o.Cfg.RunArgs...), o.credsMountArgs()...)
	opts := provider.CreateOptions{
		Name:        s.ContainerName,
		Image:       image,
		Privileged:  o.Cfg.Privileged,
		CapAdd:      o.Cfg.CapAdd,
		SecurityOpt: o.Cfg.SecurityOpt,
		Mounts:      o.Cfg.Mounts,
		Env:         o.Cfg.ContainerEnv,
		RunArgs:     runArgs,
		Ports:       ports,
	}
	_, err = o.Provider.CreateContainer(ctx, opts)
	return err
}

func portStrings(specs config.PortSpecs) []string {
	out := make([]string, 0, len(specs))
	for _, p := range specs {
		out = append(out, p.String())
	}
	return out
}

func (o *Orchestrator) start(ctx context.Context, s *state.ContainerState) error {
	return o.checkpoint(s, EventStart, func() error {
		if cp, ok := o.Cfg.Plan.(*config.ComposePlan); ok {
			if err := o.Provider.ComposeUp(ctx, s.ComposeProject, cp.Files, false); err != nil {
				return err
			}
		} else if err := o.Provider.Start(ctx, s.ContainerName); err != nil {
			return err
		}
		return o.installCredsShim(ctx, s.ContainerName)
	})
}

func (o *Orchestrator) runHooks(ctx context.Context, s *state.ContainerState, isRestart bool) error {
	onCreate, postCreate, postStart, err := o.installFeatures(ctx, s.ContainerName)
	if err != nil {
		return err
	}

	runner := &HookRunner{
		Provider:      o.Provider,
		ContainerName: s.ContainerName,
		WorkspacePath: o.WS.Path,
		Cfg:           o.Cfg,
		Logger:        o.Logger,
		WaitFor:       WaitForPostStartCommand,
	}
	runner.SetFeatureHooks(onCreate, postCreate, postStart)
	if err := runner.RunAllCreateHooks(ctx); err != nil {
		return err
	}
	if err := o.checkpoint(s, EventHooks, func() error {
		if results := o.syncAgents(ctx, s.ContainerName, isRestart); results != nil {
			if msg, ok := agent.Summarize(results); ok {
				o.Logger.Warn(msg)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return o.syncPorts(ctx)
}

// installFeatures resolves, orders, and installs the workspace's
// devcontainer.json features into the already-started container, returning
// the onCreate/postCreate/postStart commands each feature contributes.
func (o *Orchestrator) installFeatures(ctx context.Context, containerName string) ([]FeatureHook, []FeatureHook, []FeatureHook, error) {
	if len(o.Cfg.Features) == 0 {
		return nil, nil, nil, nil
	}
	cacheRoot, err := util.FeatureCacheDir()
	if err != nil {
		return nil, nil, nil, devcerrors.Internal(err)
	}
	installer := &features.Installer{
		Provider:   o.Provider,
		CacheRoot:  cacheRoot,
		ConfigPath: o.Cfg.SourcePath,
		Logger:     o.Logger,
	}
	resolved, err := installer.Resolve(ctx, o.Cfg.Features)
	if err != nil {
		return nil, nil, nil, err
	}
	ordered, err := features.Order(resolved)
	if err != nil {
		return nil, nil, nil, err
	}
	onCreate, postCreate, postStart, err := installer.InstallAll(ctx, containerName, ordered)
	if err != nil {
		return nil, nil, nil, err
	}
	return convertHooks(onCreate), convertHooks(postCreate), convertHooks(postStart), nil
}

func convertHooks(in []features.Hook) []FeatureHook {
	out := make([]FeatureHook, 0, len(in))
	for _, h := range in {
		out = append(out, FeatureHook{FeatureID: h.FeatureID, FeatureName: h.FeatureName, Argv: h.Argv})
	}
	return out
}

// checkpoint advances s.LifecyclePhase per the transitions table only
// after fn succeeds, then persists s — the durable-checkpoint invariant
// Up relies on to resume correctly after a crash.
func (o *Orchestrator) checkpoint(s *state.ContainerState, event Event, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	next, err := Advance(s.LifecyclePhase, event)
	if err != nil {
		return err
	}
	s.LifecyclePhase = next
	s.LastSuccessfulPhase = next
	return state.Save(s)
}

// Stop stops the container without removing it or its state record.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.withLock(func() error {
		s, err := state.Load(o.ID)
		if err != nil && devcerrors.GetCode(err) != devcerrors.CodeStateCorrupt {
			return err
		}
		if o.PortForwarder != nil {
			o.PortForwarder.StopAll()
		}
		return o.checkpoint(s, EventStop, func() error {
			if _, ok := o.Cfg.Plan.(*config.ComposePlan); ok {
				// The compose mixin only exposes up/down/ps (§4.1); stopping
				// without removing isn't distinguishable from Down for a
				// compose-backed workspace, so Stop tears the project down
				// the same way Down does and `up` recreates it next time.
				return o.Provider.ComposeDown(ctx, s.ComposeProject, false)
			}
			return o.Provider.Stop(ctx, s.ContainerName)
		})
	})
}

// Down stops and removes the container but preserves the state file, so a
// subsequent `up` knows the workspace was previously provisioned (distinct
// from `rm`, which also deletes the state record — see spec.md §4.3).
func (o *Orchestrator) Down(ctx context.Context) error {
	return o.withLock(func() error {
		s, err := state.Load(o.ID)
		if err != nil && devcerrors.GetCode(err) != devcerrors.CodeStateCorrupt {
			return err
		}
		if o.PortForwarder != nil {
			o.PortForwarder.StopAll()
		}
		if _, ok := o.Cfg.Plan.(*config.ComposePlan); ok {
			if err := o.Provider.ComposeDown(ctx, s.ComposeProject, false); err != nil {
				return err
			}
			s.LifecyclePhase = state.PhaseUninitialized
			return state.Save(s)
		}
		if err := o.Provider.Remove(ctx, s.ContainerName, true); err != nil {
			return err
		}
		s.LifecyclePhase = state.PhaseUninitialized
		return state.Save(s)
	})
}

// Remove tears the container down and deletes its state record entirely
// (`devc rm`). Calls Down directly rather than under its own lock, for the
// same non-reentrancy reason documented on Rebuild.
func (o *Orchestrator) Remove(ctx context.Context) error {
	if err := o.Down(ctx); err != nil {
		return err
	}
	return o.withLock(func() error {
		return state.Remove(o.ID)
	})
}

// Rebuild forces a fresh build+create, discarding the existing container
// first; used by `devc rebuild`. The reset step and the
// subsequent Up each take the workspace lock on their own rather than one
// call nesting inside the other — flock is not reentrant within a process,
// so holding it across both would deadlock against Up's own Acquire.
func (o *Orchestrator) Rebuild(ctx context.Context) error {
	err := o.withLock(func() error {
		s, err := state.Load(o.ID)
		if err == nil && s.LifecyclePhase != state.PhaseUninitialized {
			if err := o.Provider.Remove(ctx, s.ContainerName, true); err != nil {
				o.Logger.Warn("rebuild: failed to remove existing container, continuing", "error", err)
			}
			// Only a BuildPlan's image is workspace-built; an ImagePlan's
			// s.ImageRef names a pulled image the workspace doesn't own.
			if _, ok := o.Cfg.Plan.(*config.BuildPlan); ok && s.ImageRef != "" {
				if err := o.Provider.RemoveImage(ctx, s.ImageRef); err != nil {
					o.Logger.Warn("rebuild: failed to remove existing image, continuing", "error", err)
				}
			}
		}
		reset := &state.ContainerState{ID: o.ID, WorkspacePath: o.WS.Path, LifecyclePhase: state.PhaseUninitialized}
		return state.Save(reset)
	})
	if err != nil {
		return err
	}
	return o.Up(ctx)
}

// Adopt marks an externally created container (matching this workspace's
// derived name) as devc-managed, without running any lifecycle hooks.
func (o *Orchestrator) Adopt(ctx context.Context) error {
	return o.withLock(func() error {
		name := o.containerName()
		if _, err := o.Provider.Inspect(ctx, name); err != nil {
			return devcerrors.NotFound(fmt.Sprintf("container %q", name))
		}
		s := &state.ContainerState{
			ID: o.ID, WorkspacePath: o.WS.Path, Runtime: string(o.Provider.Kind),
			ContainerName: name, LifecyclePhase: state.PhaseAdopted, LastSuccessfulPhase: state.PhaseAdopted,
		}
		return state.Save(s)
	})
}
