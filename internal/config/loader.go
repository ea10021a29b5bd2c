package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gatemini/pkg/logging"
	"gatemini/pkg/secrets"
)

// Load runs the full pipeline of spec.md §4.2 over the file at path: decode
// YAML, apply defaults, expand shell-like patterns, resolve secretref:
// literals, then validate. LoadEnvFiles must have already been called once
// by the caller (internal/app's New) before Load — Load itself never touches environment
// files, so hot-reload can call it repeatedly without violating load-once.
func Load(ctx context.Context, path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", abs, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", abs, err)
	}
	c.sourcePath = abs

	applyDefaults(&c)
	ExpandConfig(&c)

	reg, err := BuildSecretRegistry(&c)
	if err != nil {
		return nil, fmt.Errorf("build secret registry: %w", err)
	}

	secretErrs := NewConfigurationErrorCollection()
	ResolveSecrets(ctx, &c, reg, secretErrs)
	if secretErrs.HasErrors() && c.Secrets.Strict {
		return nil, secretErrs
	}
	for _, e := range secretErrs.Errors {
		logging.Warn("Config-Loader", "%s", e.Error())
	}

	if errs := Validate(&c); errs.HasErrors() {
		return nil, errs
	}

	logging.Info("Config-Loader", "loaded configuration from %s (%d backends)", abs, len(c.Backends))
	return &c, nil
}

// BuildSecretRegistryFor is an exported wrapper around BuildSecretRegistry
// for callers outside this package that need a registry without reloading
// the whole file. Nothing in this repository calls it.
func BuildSecretRegistryFor(c *Config) (*secrets.Registry, error) {
	return BuildSecretRegistry(c)
}
