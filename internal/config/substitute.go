package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// SubstitutionContext supplies the values named in spec.md §3:
// ${localWorkspaceFolder}, ${containerWorkspaceFolder}, ${devcontainerId},
// ${localEnv:NAME}, ${containerEnv:NAME}.
type SubstitutionContext struct {
	LocalWorkspaceFolder     string
	ContainerWorkspaceFolder string
	DevcontainerID           string
	UserHome                 string
	ContainerEnv             map[string]string
	LocalEnv                 func(string) string
}

type substitution struct {
	pattern *regexp.Regexp
	handler func(match []string, ctx *SubstitutionContext) string
}

var substitutions = []substitution{
	{regexp.MustCompile(`\$\{localEnv:([^}:]+)(?::([^}]*))?\}`), handleLocalEnv},
	{regexp.MustCompile(`\$\{env:([^}:]+)(?::([^}]*))?\}`), handleLocalEnv},
	{regexp.MustCompile(`\$\{containerEnv:([^}:]+)(?::([^}]*))?\}`), handleContainerEnv},
	{regexp.MustCompile(`\$\{localWorkspaceFolder\}`), handleLocalWorkspaceFolder},
	{regexp.MustCompile(`\$\{containerWorkspaceFolder\}`), handleContainerWorkspaceFolder},
	{regexp.MustCompile(`\$\{localWorkspaceFolderBasename\}`), handleLocalWorkspaceFolderBasename},
	{regexp.MustCompile(`\$\{containerWorkspaceFolderBasename\}`), handleContainerWorkspaceFolderBasename},
	{regexp.MustCompile(`\$\{devcontainerId\}`), handleDevcontainerID},
	{regexp.MustCompile(`\$\{pathSeparator\}`), handlePathSeparator},
	{regexp.MustCompile(`\$\{userHome\}`), handleUserHome},
}

func handleLocalEnv(match []string, ctx *SubstitutionContext) string {
	if len(match) < 2 {
		return match[0]
	}
	var value string
	if ctx != nil && ctx.LocalEnv != nil {
		value = ctx.LocalEnv(match[1])
	} else {
		value = os.Getenv(match[1])
	}
	if value == "" && len(match) >= 3 && match[2] != "" {
		value = match[2]
	}
	return value
}

func handleContainerEnv(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.ContainerEnv == nil || len(match) < 2 {
		return match[0]
	}
	value, ok := ctx.ContainerEnv[match[1]]
	if !ok && len(match) >= 3 {
		value = match[2]
	}
	return value
}

func handleLocalWorkspaceFolder(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.LocalWorkspaceFolder == "" {
		return match[0]
	}
	return ctx.LocalWorkspaceFolder
}

func handleContainerWorkspaceFolder(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.ContainerWorkspaceFolder == "" {
		return match[0]
	}
	return ctx.ContainerWorkspaceFolder
}

func handleLocalWorkspaceFolderBasename(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.LocalWorkspaceFolder == "" {
		return match[0]
	}
	return filepath.Base(ctx.LocalWorkspaceFolder)
}

func handleContainerWorkspaceFolderBasename(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.ContainerWorkspaceFolder == "" {
		return match[0]
	}
	return filepath.Base(ctx.ContainerWorkspaceFolder)
}

func handleDevcontainerID(match []string, ctx *SubstitutionContext) string {
	if ctx == nil || ctx.DevcontainerID == "" {
		return match[0]
	}
	return ctx.DevcontainerID
}

func handlePathSeparator(match []string, ctx *SubstitutionContext) string {
	return string(filepath.Separator)
}

func handleUserHome(match []string, ctx *SubstitutionContext) string {
	if ctx != nil && ctx.UserHome != "" {
		return ctx.UserHome
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return match[0]
}

// Substitute applies every pattern in the registry once. Tokens whose
// handler had nothing to substitute (nil or empty context field) are left
// intact so a second pass can detect them as unresolved, per §8 invariant 2
// (substitute is idempotent on clean input). An env variable that is not
// set and has no default is replaced by the empty string.
func Substitute(s string, ctx *SubstitutionContext) string {
	for _, sub := range substitutions {
		s = sub.pattern.ReplaceAllStringFunc(s, func(match string) string {
			parts := sub.pattern.FindStringSubmatch(match)
			return sub.handler(parts, ctx)
		})
	}
	return s
}

var unresolvedPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// findUnresolved returns the first unresolved ${...} token name in s, or "".
func findUnresolved(s string) string {
	m := unresolvedPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// SubstituteConfig walks every string-bearing field of cfg, substitutes
// variables, and fails with UnresolvedSubstitution naming the offending
// dotted path if any ${...} token survives.
func SubstituteConfig(cfg *DevcontainerConfig, ctx *SubstitutionContext) error {
	for i, m := range cfg.Mounts {
		cfg.Mounts[i] = Substitute(m, ctx)
		if name := findUnresolved(cfg.Mounts[i]); name != "" {
			return devcerrors.UnresolvedSubstitution(name, fmt.Sprintf("mounts[%d]", i))
		}
	}
	for i, a := range cfg.RunArgs {
		cfg.RunArgs[i] = Substitute(a, ctx)
		if name := findUnresolved(cfg.RunArgs[i]); name != "" {
			return devcerrors.UnresolvedSubstitution(name, fmt.Sprintf("runArgs[%d]", i))
		}
	}
	for k, v := range cfg.ContainerEnv {
		cfg.ContainerEnv[k] = Substitute(v, ctx)
		if name := findUnresolved(cfg.ContainerEnv[k]); name != "" {
			return devcerrors.UnresolvedSubstitution(name, fmt.Sprintf("containerEnv.%s", k))
		}
	}
	for k, v := range cfg.RemoteEnv {
		cfg.RemoteEnv[k] = Substitute(v, ctx)
		if name := findUnresolved(cfg.RemoteEnv[k]); name != "" {
			return devcerrors.UnresolvedSubstitution(name, fmt.Sprintf("remoteEnv.%s", k))
		}
	}
	cfg.RemoteUser = Substitute(cfg.RemoteUser, ctx)
	if name := findUnresolved(cfg.RemoteUser); name != "" {
		return devcerrors.UnresolvedSubstitution(name, "remoteUser")
	}

	switch p := cfg.Plan.(type) {
	case *ImagePlan:
		p.Image = Substitute(p.Image, ctx)
		if name := findUnresolved(p.Image); name != "" {
			return devcerrors.UnresolvedSubstitution(name, "image")
		}
	case *BuildPlan:
		p.Dockerfile = Substitute(p.Dockerfile, ctx)
		p.Context = Substitute(p.Context, ctx)
		for k, v := range p.Args {
			p.Args[k] = Substitute(v, ctx)
		}
	case *ComposePlan:
		for i, f := range p.Files {
			p.Files[i] = Substitute(f, ctx)
		}
	}
	return nil
}

// DetermineContainerWorkspaceFolder returns the in-container mount point for
// the workspace: `workspaceFolder` if set, else `/workspaces/<basename>`.
func DetermineContainerWorkspaceFolder(explicit, localWorkspaceFolder string) string {
	if explicit != "" {
		return explicit
	}
	return "/workspaces/" + strings.TrimSuffix(filepath.Base(localWorkspaceFolder), "/")
}
