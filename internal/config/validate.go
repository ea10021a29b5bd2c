package config

import (
	"fmt"
	"regexp"
)

// DynamicBackendNamePattern is the regular expression runtime-registered
// backend names must match (spec.md §4.3 "Runtime registration").
var DynamicBackendNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Validate checks c against spec.md §4.2's validation rules and returns every
// violation found, not just the first.
func Validate(c *Config) *ConfigurationErrorCollection {
	errs := NewConfigurationErrorCollection()

	if c.MaxDynamicBackends < 0 {
		errs.AddError("", "daemon", "validation", "max_dynamic_backends must not be negative")
	}

	dynamicCount := 0
	for name, b := range c.Backends {
		validateBackend(name, b, errs)
		if b.IsDynamic {
			dynamicCount++
		}
	}
	if dynamicCount > c.MaxDynamicBackends {
		errs.AddError("", "backends", "validation",
			fmt.Sprintf("dynamic backend count %d exceeds max_dynamic_backends %d", dynamicCount, c.MaxDynamicBackends))
	}

	if c.Secrets.Strict {
		validateNoUnresolvedSecrets(c, errs)
	}

	return errs
}

// validTransports is the allowed-values list ValidateOneOf checks the
// decoded (and already-defaulted) transport string against.
var validTransports = []string{string(TransportStdio), string(TransportHTTP)}

func validateBackend(name string, b *BackendConfig, errs *ConfigurationErrorCollection) {
	if err := ValidateEntityName(name, "backend"); err != nil {
		errs.AddError("", "backends", "validation", err.Error())
	}

	// Transport defaults to inferred stdio/http in applyDefaults before
	// Load reaches Validate; an empty value here just means a caller (e.g.
	// a test, or register_manual before defaulting) hasn't run that step
	// yet, so only reject an explicit value that isn't one of the two
	// known transports.
	if b.Transport != "" {
		if err := ValidateOneOf("transport", string(b.Transport), validTransports); err != nil {
			errs.AddError("", "backends."+name, "validation", err.Error())
		}
	}

	hasCommand := b.Command != ""
	hasURL := b.URL != ""
	switch {
	case hasCommand && hasURL:
		errs.AddError("", "backends."+name, "validation", "exactly one of command or url is required, got both")
	case !hasCommand && !hasURL:
		errs.AddError("", "backends."+name, "validation", "exactly one of command or url is required, got neither")
	}

	if b.Timeout <= 0 {
		errs.AddError("", "backends."+name, "validation", "timeout must be positive")
	}

	if b.Prerequisite != nil && b.Prerequisite.MatchPattern == "" {
		errs.AddError("", "backends."+name, "validation", "prerequisite.match_pattern is required when prerequisite is set")
	}
}

// ValidateDynamicName checks a runtime-registration name against the naming
// rule and the current dynamic-backend quota (spec.md §4.3).
func ValidateDynamicName(name string, currentDynamicCount, maxDynamicBackends int, existing map[string]*BackendConfig) error {
	if !DynamicBackendNamePattern.MatchString(name) {
		return ValidationError{Field: "name", Value: name, Message: "must match " + DynamicBackendNamePattern.String()}
	}
	if _, exists := existing[name]; exists {
		return ValidationError{Field: "name", Value: name, Message: "a backend with this name already exists"}
	}
	if currentDynamicCount >= maxDynamicBackends {
		return ValidationError{Field: "name", Value: name, Message: "max_dynamic_backends quota reached"}
	}
	return nil
}

func validateNoUnresolvedSecrets(c *Config, errs *ConfigurationErrorCollection) {
	check := func(section, field, s string) {
		if hasUnresolvedSecretRef(s) {
			errs.AddError("", section, "secret", field+" still contains an unresolved secretref: literal under secrets.strict")
		}
	}
	for name, b := range c.Backends {
		section := "backends." + name
		check(section, "command", b.Command)
		check(section, "url", b.URL)
		for _, a := range b.Args {
			check(section, "args", a)
		}
		for _, v := range b.Env {
			check(section, "env", v)
		}
		for _, v := range b.Headers {
			check(section, "headers", v)
		}
	}
}
