// Package agent implements C6: the agent injector. It best-effort syncs
// host coding-assistant CLI configuration/auth material into the
// container as a side channel with warning semantics — never fatal to the
// enclosing lifecycle operation (§4.6).
package agent

// Kind identifies one of the four supported coding-assistant presets.
type Kind string

const (
	KindCodex  Kind = "codex"
	KindClaude Kind = "claude"
	KindCursor Kind = "cursor"
	KindGemini Kind = "gemini"
)

// FileSpec is one host-file-to-container-file sync entry. Secret is true
// for files that must be created under the 0600/umask-077 rule (§4.6 step
// 3); false for plain 0644 config files.
type FileSpec struct {
	HostPath      string // may contain "~", expanded against the host home dir
	ContainerPath string
	Secret        bool
}

// Preset is the immutable description of one agent kind, data-driven
// exactly like the teacher's shortcut-resolver table (DESIGN.md).
type Preset struct {
	Kind           Kind
	Files          []FileSpec
	RequiredEnv    []string
	ProbeCommand   []string // e.g. ["claude", "--version"]
	InstallCommand []string // e.g. ["npm", "install", "-g", "@anthropic-ai/claude-code"]
}

// Presets is the immutable, in-code table of all four supported agents.
// Claude carries three files per §4.3's "Claude invariant": all three must
// sync or the whole agent is marked unvalidated.
var Presets = map[Kind]Preset{
	KindCodex: {
		Kind: KindCodex,
		Files: []FileSpec{
			{HostPath: "~/.codex", ContainerPath: "/root/.codex", Secret: false},
		},
		RequiredEnv:    []string{"OPENAI_API_KEY"},
		ProbeCommand:   []string{"codex", "--version"},
		InstallCommand: []string{"npm", "install", "-g", "@openai/codex"},
	},
	KindClaude: {
		Kind: KindClaude,
		Files: []FileSpec{
			{HostPath: "~/.claude/.credentials.json", ContainerPath: "/root/.claude/.credentials.json", Secret: true},
			{HostPath: "~/.claude/settings.json", ContainerPath: "/root/.claude/settings.json", Secret: false},
			{HostPath: "~/.claude.json", ContainerPath: "/root/.claude.json", Secret: true},
		},
		RequiredEnv:    nil,
		ProbeCommand:   []string{"claude", "--version"},
		InstallCommand: []string{"npm", "install", "-g", "@anthropic-ai/claude-code"},
	},
	KindCursor: {
		Kind: KindCursor,
		Files: []FileSpec{
			{HostPath: "~/.cursor", ContainerPath: "/root/.cursor", Secret: false},
		},
		RequiredEnv:    nil,
		ProbeCommand:   []string{"cursor-agent", "--version"},
		InstallCommand: []string{"npm", "install", "-g", "cursor-agent"},
	},
	KindGemini: {
		Kind: KindGemini,
		Files: []FileSpec{
			{HostPath: "~/.gemini", ContainerPath: "/root/.gemini", Secret: false},
		},
		RequiredEnv:    []string{"GEMINI_API_KEY"},
		ProbeCommand:   []string{"gemini", "--version"},
		InstallCommand: []string{"npm", "install", "-g", "@google/gemini-cli"},
	},
}

// AllKinds lists every preset kind in a stable order, for `agents doctor`
// table rendering and deterministic sync ordering.
var AllKinds = []Kind{KindCodex, KindClaude, KindCursor, KindGemini}
