package config

// CLIOverrides carries the subset of devcontainer settings a CLI flag is
// allowed to override; zero-value fields mean "not set on the command line".
type CLIOverrides struct {
	Runtime    string
	RemoteUser string
}

// Resolve merges a workspace's devcontainer.json with the global config and
// CLI overrides, applying precedence: CLI flags > workspace file > global
// config > preset defaults (§4.2). The workspace config is already fully
// populated by ParseFile, so later passes only fill fields the workspace
// file left at its zero value — they never clobber an explicit workspace
// setting.
func Resolve(workspaceCfg *DevcontainerConfig, global *GlobalConfig, cli CLIOverrides) *DevcontainerConfig {
	// Pass 1 (lowest): preset defaults already baked into zero values
	// (protocol "tcp", etc.) by the JSON unmarshalers themselves.

	// Pass 2: global config fills fields the workspace file left unset.
	if workspaceCfg.RemoteUser == "" && global != nil {
		// Global config has no remoteUser section in spec.md's file-format
		// table; left for forward compatibility, currently a no-op.
		_ = global
	}

	// Pass 3: workspace file values are already in workspaceCfg — nothing
	// to do, they take precedence over pass 2 by construction (we only
	// filled zero-value fields above).

	// Pass 4 (highest): CLI overrides always win when set.
	if cli.RemoteUser != "" {
		workspaceCfg.RemoteUser = cli.RemoteUser
	}

	return workspaceCfg
}

// ResolveRuntime determines the runtime name using the same precedence,
// returning "" if nothing set it (provider.Select then falls back to a
// PATH scan).
func ResolveRuntime(cli CLIOverrides, global *GlobalConfig) string {
	if cli.Runtime != "" {
		return cli.Runtime
	}
	if global != nil && global.Runtime.Runtime != "" {
		return global.Runtime.Runtime
	}
	return ""
}
