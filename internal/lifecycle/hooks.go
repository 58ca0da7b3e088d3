package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/s-retlaw/devc/internal/config"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/provider"
)

// WaitFor names the hook up to which `up` blocks before returning control;
// hooks after this point run in the background under the same errgroup, per
// §4.3's hook catalog and §9's "structured concurrency, never fire-and-
// forget" design note.
type WaitFor string

const (
	WaitForInitializeCommand    WaitFor = "initializeCommand"
	WaitForOnCreateCommand      WaitFor = "onCreateCommand"
	WaitForUpdateContentCommand WaitFor = "updateContentCommand"
	WaitForPostCreateCommand    WaitFor = "postCreateCommand"
	WaitForPostStartCommand     WaitFor = "postStartCommand"
)

var waitForOrder = map[WaitFor]int{
	WaitForInitializeCommand:    0,
	WaitForOnCreateCommand:      1,
	WaitForUpdateContentCommand: 2,
	WaitForPostCreateCommand:    3,
	WaitForPostStartCommand:     4,
}

// FeatureHook is one lifecycle command contributed by an installed feature,
// run after the corresponding devcontainer.json hook of the same name.
type FeatureHook struct {
	FeatureID   string
	FeatureName string
	Argv        []string
}

// HookRunner executes the fixed hook ordering from §4.3/§5 against one
// container, streaming output to the given logger.
type HookRunner struct {
	Provider      *provider.Provider
	ContainerName string
	WorkspacePath string
	Cfg           *config.DevcontainerConfig
	Logger        *slog.Logger
	WaitFor       WaitFor

	featureOnCreate   []FeatureHook
	featurePostCreate []FeatureHook
	featurePostStart  []FeatureHook
}

// SetFeatureHooks registers the per-feature lifecycle commands resolved by
// the feature installer (C4), run immediately after the matching
// devcontainer.json hook.
func (r *HookRunner) SetFeatureHooks(onCreate, postCreate, postStart []FeatureHook) {
	r.featureOnCreate = onCreate
	r.featurePostCreate = postCreate
	r.featurePostStart = postStart
}

func (r *HookRunner) waitFor() WaitFor {
	if _, ok := waitForOrder[r.WaitFor]; !ok {
		return WaitForPostStartCommand
	}
	return r.WaitFor
}

func (r *HookRunner) shouldBlock(cmd WaitFor) bool {
	return waitForOrder[cmd] <= waitForOrder[r.waitFor()]
}

// markerPath is the idempotence marker file for a once-only hook.
func markerPath(hook string) string {
	return fmt.Sprintf("/var/devc/%s.ran", hook)
}

// hasRun checks whether a once-only hook's marker already exists in the
// container.
func (r *HookRunner) hasRun(ctx context.Context, hook string) bool {
	res, err := r.Provider.Exec(ctx, r.ContainerName, []string{"test", "-f", markerPath(hook)}, "", nil, false, nil, nil, nil)
	return err == nil && res.ExitCode == 0
}

// markRun writes the idempotence marker for a once-only hook.
func (r *HookRunner) markRun(ctx context.Context, hook string) error {
	return r.Provider.CopyInto(ctx, r.ContainerName, markerPath(hook), []byte(""), 0644)
}

// RunInitialize runs initializeCommand on the host, before any container
// operation, with working directory set to the workspace.
func (r *HookRunner) RunInitialize(ctx context.Context) error {
	if r.Cfg.InitializeCommand == nil {
		return nil
	}
	r.Logger.Info("running hook", "hook", "initializeCommand")
	return r.runHost(ctx, r.Cfg.InitializeCommand)
}

// RunOnCreate runs onCreateCommand exactly once per container lifetime.
func (r *HookRunner) RunOnCreate(ctx context.Context) error {
	if r.Cfg.OnCreateCommand == nil || r.hasRun(ctx, "onCreate") {
		return nil
	}
	r.Logger.Info("running hook", "hook", "onCreateCommand")
	if err := r.runContainer(ctx, "onCreateCommand", r.Cfg.OnCreateCommand); err != nil {
		return err
	}
	return r.markRun(ctx, "onCreate")
}

// RunUpdateContent runs updateContentCommand on every create-or-start.
func (r *HookRunner) RunUpdateContent(ctx context.Context) error {
	if r.Cfg.UpdateContentCommand == nil {
		return nil
	}
	r.Logger.Info("running hook", "hook", "updateContentCommand")
	return r.runContainer(ctx, "updateContentCommand", r.Cfg.UpdateContentCommand)
}

// RunPostCreate runs postCreateCommand exactly once, after onCreate.
func (r *HookRunner) RunPostCreate(ctx context.Context) error {
	if r.Cfg.PostCreateCommand == nil || r.hasRun(ctx, "postCreate") {
		return nil
	}
	r.Logger.Info("running hook", "hook", "postCreateCommand")
	if err := r.runContainer(ctx, "postCreateCommand", r.Cfg.PostCreateCommand); err != nil {
		return err
	}
	return r.markRun(ctx, "postCreate")
}

// RunPostStart runs postStartCommand on every start.
func (r *HookRunner) RunPostStart(ctx context.Context) error {
	if r.Cfg.PostStartCommand == nil {
		return nil
	}
	r.Logger.Info("running hook", "hook", "postStartCommand")
	return r.runContainer(ctx, "postStartCommand", r.Cfg.PostStartCommand)
}

// RunPostAttach runs postAttachCommand on every interactive attach.
func (r *HookRunner) RunPostAttach(ctx context.Context) error {
	if r.Cfg.PostAttachCommand == nil {
		return nil
	}
	r.Logger.Info("running hook", "hook", "postAttachCommand")
	return r.runContainer(ctx, "postAttachCommand", r.Cfg.PostAttachCommand)
}

// RunAllCreateHooks drives the full create-time hook sequence in the strict
// order §5 requires: initializeCommand → onCreate → updateContent →
// postCreate → postStart. Hooks past the configured WaitFor point run
// concurrently in an errgroup whose context derives from ctx, so a parent
// cancellation (Ctrl-C) reaches them too; the function returns without
// waiting for them (see the note at its end).
func (r *HookRunner) RunAllCreateHooks(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	runHook := func(kind WaitFor, fn func(context.Context) error) error {
		if r.shouldBlock(kind) {
			return fn(gctx)
		}
		g.Go(func() error { return fn(gctx) })
		return nil
	}

	if err := runHook(WaitForInitializeCommand, r.RunInitialize); err != nil {
		return err
	}
	if err := runHook(WaitForOnCreateCommand, func(ctx context.Context) error {
		if err := r.RunOnCreate(ctx); err != nil {
			return err
		}
		return r.runFeatureHooks(ctx, r.featureOnCreate, "onCreateCommand")
	}); err != nil {
		return err
	}
	if err := runHook(WaitForUpdateContentCommand, r.RunUpdateContent); err != nil {
		return err
	}
	if err := runHook(WaitForPostCreateCommand, func(ctx context.Context) error {
		if err := r.RunPostCreate(ctx); err != nil {
			return err
		}
		return r.runFeatureHooks(ctx, r.featurePostCreate, "postCreateCommand")
	}); err != nil {
		return err
	}
	if err := runHook(WaitForPostStartCommand, func(ctx context.Context) error {
		if err := r.RunPostStart(ctx); err != nil {
			return err
		}
		return r.runFeatureHooks(ctx, r.featurePostStart, "postStartCommand")
	}); err != nil {
		return err
	}

	// The background tail (if WaitFor stopped early) is awaited by a
	// detached-but-tracked goroutine whose errors are logged, not returned —
	// `up` has already reported success to the blocking caller by this point.
	go func() {
		if err := g.Wait(); err != nil {
			r.Logger.Warn("background lifecycle hook failed", "error", err)
		}
	}()
	return nil
}

// RunStartHooks runs the hooks needed on every non-first start.
func (r *HookRunner) RunStartHooks(ctx context.Context) error {
	if err := r.RunPostStart(ctx); err != nil {
		return err
	}
	return r.runFeatureHooks(ctx, r.featurePostStart, "postStartCommand")
}

func (r *HookRunner) runFeatureHooks(ctx context.Context, hooks []FeatureHook, hookType string) error {
	for _, h := range hooks {
		r.Logger.Info("running feature hook", "feature", h.FeatureName, "hook", hookType)
		if _, err := r.Provider.Exec(ctx, r.ContainerName, h.Argv, "root", nil, false, nil, nil, nil); err != nil {
			return fmt.Errorf("feature %s %s failed: %w", h.FeatureName, hookType, err)
		}
	}
	return nil
}

func (r *HookRunner) runHost(ctx context.Context, cmd *config.LifecycleCommand) error {
	for _, argv := range cmd.Argv() {
		c := execCommand(ctx, argv, r.WorkspacePath)
		if out, err := c.CombinedOutput(); err != nil {
			return fmt.Errorf("%s: %w: %s", argv, err, out)
		}
	}
	return nil
}

func (r *HookRunner) runContainer(ctx context.Context, hookName string, cmd *config.LifecycleCommand) error {
	for _, argv := range cmd.Argv() {
		_, err := r.Provider.Exec(ctx, r.ContainerName, argv, r.Cfg.RemoteUser, r.Cfg.RemoteEnv, false, nil, nil, nil)
		if err == nil {
			continue
		}
		var perr *provider.ProviderError
		if errors.As(err, &perr) {
			return devcerrors.HookFailed(hookName, perr.ExitCode, perr.StderrTail)
		}
		return err
	}
	return nil
}
