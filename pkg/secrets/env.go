package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves a reference by treating its last path segment as an
// environment variable name. It is always registered under alias "env" so
// that references authored for an external secret manager still resolve
// locally when that manager is disabled (spec.md §4.2).
type EnvProvider struct{}

// NewEnvProvider returns the env-fallback provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) Name() string {
	return "env"
}

func (p *EnvProvider) Resolve(_ context.Context, reference string) (string, error) {
	varName := reference
	if idx := strings.LastIndexByte(reference, '/'); idx != -1 {
		varName = reference[idx+1:]
	}
	value, ok := os.LookupEnv(varName)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", varName)
	}
	return value, nil
}
