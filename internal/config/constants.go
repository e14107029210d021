package config

// Version is reported by `logex -version` and the sys package.
const Version = "0.4.0"

const SourceFileExt = ".lx"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lx", ".logex"}

// BytecodeFileExt is the extension written by `logex -c`.
const BytecodeFileExt = ".lxc"

// Settings file names, searched in this order.
var SettingsFileNames = []string{"logex.yaml", "logex.yml", "logex.toml"}

// BackendEnvVar overrides Settings.Backend when set.
const BackendEnvVar = "LOGEX_BACKEND"

// Backend names
const (
	BackendVM   = "vm"
	BackendTree = "tree"
)

// Defaults
const (
	DefaultStackSize = 1024
	DefaultBackend   = BackendVM
)

// HiddenPrefix starts compiler-generated variable names. It cannot begin an
// identifier, so user code never collides with them.
const HiddenPrefix = "$"
