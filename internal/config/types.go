package config

import "time"

// Config is the root of config.yaml, decoded and then expanded/resolved in
// place by the loader pipeline.
type Config struct {
	LogLevel                 string                    `yaml:"log_level"`
	Daemon                   DaemonConfig              `yaml:"daemon"`
	Health                   HealthConfig              `yaml:"health"`
	AllowRuntimeRegistration bool                      `yaml:"allow_runtime_registration"`
	MaxDynamicBackends       int                       `yaml:"max_dynamic_backends"`
	Semantic                 SemanticConfig            `yaml:"semantic"`
	Secrets                  SecretsConfig             `yaml:"secrets"`
	Sandbox                  SandboxConfig             `yaml:"sandbox"`
	Backends                 map[string]*BackendConfig `yaml:"backends"`

	// sourcePath is the absolute path config.yaml was loaded from; it is not
	// itself a YAML field but is needed to resolve the cache sidecar and the
	// hot-reload watch target.
	sourcePath string `yaml:"-"`
}

// SourcePath returns the absolute path this config was loaded from.
func (c *Config) SourcePath() string {
	return c.sourcePath
}

// DaemonConfig controls the daemon's own lifecycle.
type DaemonConfig struct {
	// IdleTimeout is seconds of zero active sessions before the daemon exits
	// on its own. Zero disables idle shutdown.
	IdleTimeout int `yaml:"idle_timeout"`
}

// HealthConfig parameterizes the health supervisor (spec.md §4.4). The YAML
// default for Interval is authoritative at 30s; older docs that say 5s are
// wrong and not honored here (see DESIGN.md open-question decisions).
type HealthConfig struct {
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	MaxRestarts      int           `yaml:"max_restarts"`
	RestartWindow    time.Duration `yaml:"restart_window"`
}

// SemanticConfig controls optional cosine-similarity search.
type SemanticConfig struct {
	// ModelPath enables semantic search when non-empty, using the built-in
	// hashed embedder; the file at this path is not read and no real model
	// is loaded. When empty, semantic search is disabled and the registry
	// runs BM25-only.
	ModelPath string `yaml:"model_path"`
}

// SandboxConfig parameterizes call_tool_chain's JavaScript tier (spec.md
// §4.9). The regex and direct-JSON tiers ahead of it have no tunables.
type SandboxConfig struct {
	HeapLimitBytes   int64         `yaml:"heap_limit_bytes"`
	WallClockTimeout time.Duration `yaml:"wall_clock_timeout"`
	MaxOutputChars   int           `yaml:"max_output_chars"`
}

// SecretsConfig controls secretref resolution.
type SecretsConfig struct {
	// Strict fails validation on any secretref: literal left unresolved, and
	// on any provider returning an empty value.
	Strict    bool                  `yaml:"strict"`
	Providers SecretProvidersConfig `yaml:"providers"`
}

// SecretProvidersConfig lists the configured secret provider backends.
type SecretProvidersConfig struct {
	BWS BWSProviderConfig `yaml:"bws"`
}

// BWSProviderConfig configures the Bitwarden Secrets Manager provider.
type BWSProviderConfig struct {
	Enabled        bool   `yaml:"enabled"`
	AccessToken    string `yaml:"access_token"`
	OrganizationID string `yaml:"organization_id"`
}

// SecretProviderConfig is a uniform description of one registered provider.
// BuildSecretRegistry does not use it; it reads secrets.providers.bws
// directly.
type SecretProviderConfig struct {
	Name     string
	Kind     string // "env" | "bws"
	Settings map[string]string
}

// Transport identifies how a backend is reached.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// BackendConfig describes one MCP backend (spec.md §3 BackendConfig).
type BackendConfig struct {
	// Name is set by the loader from the backends map key, not from YAML.
	Name string `yaml:"-"`

	Transport Transport `yaml:"transport"`

	// Stdio transport fields.
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Cwd     string            `yaml:"cwd"`

	// HTTP transport fields.
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`

	Timeout      time.Duration       `yaml:"timeout"`
	RequiredKeys []string            `yaml:"required_keys"`
	Prerequisite *PrerequisiteConfig `yaml:"prerequisite"`

	// Managed marks a backend whose lifecycle (and, for prerequisites, whose
	// underlying process) this daemon owns end to end.
	Managed bool `yaml:"managed"`

	// IsDynamic is true for backends registered at runtime via
	// register_manual; it is never set from YAML and protects static
	// backends from deregister_manual.
	IsDynamic bool `yaml:"-"`
}

// PrerequisiteConfig describes a process that must exist before a backend is
// started (spec.md §4.3 "Prerequisite processes").
type PrerequisiteConfig struct {
	// MatchPattern is matched against the command line of running processes
	// to decide whether the prerequisite is already running.
	MatchPattern string `yaml:"match_pattern"`

	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`

	// StartupDelay is how long to wait after spawning before proceeding.
	StartupDelay time.Duration `yaml:"startup_delay"`

	// Managed processes are killed (by process group) at daemon shutdown;
	// unmanaged ones are left running.
	Managed bool `yaml:"managed"`
}

// Defaults applied when a field is absent from the decoded YAML. Applied
// before expansion so expansion operates on concrete default strings too.
const (
	DefaultLogLevel                = "info"
	DefaultHealthInterval           = 30 * time.Second
	DefaultHealthTimeout            = 5 * time.Second
	DefaultHealthFailureThreshold   = 3
	DefaultHealthMaxRestarts        = 5
	DefaultHealthRestartWindow      = 5 * time.Minute
	DefaultBackendTimeout           = 30 * time.Second
	DefaultMaxDynamicBackends       = 50
	DefaultPrerequisiteStartupDelay = 2 * time.Second
	DefaultSandboxHeapLimitBytes    = 50 * 1024 * 1024
	DefaultSandboxWallClockTimeout  = 30 * time.Second
	DefaultSandboxMaxOutputChars    = 200_000
)

// applyDefaults fills zero-valued fields with the documented defaults. It
// runs once, right after YAML decode, before expansion and secret
// resolution.
func applyDefaults(c *Config) {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Health.Interval == 0 {
		c.Health.Interval = DefaultHealthInterval
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = DefaultHealthTimeout
	}
	if c.Health.FailureThreshold == 0 {
		c.Health.FailureThreshold = DefaultHealthFailureThreshold
	}
	if c.Health.MaxRestarts == 0 {
		c.Health.MaxRestarts = DefaultHealthMaxRestarts
	}
	if c.Health.RestartWindow == 0 {
		c.Health.RestartWindow = DefaultHealthRestartWindow
	}
	if c.MaxDynamicBackends == 0 {
		c.MaxDynamicBackends = DefaultMaxDynamicBackends
	}
	if c.Sandbox.HeapLimitBytes == 0 {
		c.Sandbox.HeapLimitBytes = DefaultSandboxHeapLimitBytes
	}
	if c.Sandbox.WallClockTimeout == 0 {
		c.Sandbox.WallClockTimeout = DefaultSandboxWallClockTimeout
	}
	if c.Sandbox.MaxOutputChars == 0 {
		c.Sandbox.MaxOutputChars = DefaultSandboxMaxOutputChars
	}
	for name, b := range c.Backends {
		b.Name = name
		if b.Timeout == 0 {
			b.Timeout = DefaultBackendTimeout
		}
		if b.Transport == "" {
			if b.URL != "" {
				b.Transport = TransportHTTP
			} else {
				b.Transport = TransportStdio
			}
		}
		if b.Prerequisite != nil && b.Prerequisite.StartupDelay == 0 {
			b.Prerequisite.StartupDelay = DefaultPrerequisiteStartupDelay
		}
	}
}
