package config

import (
	"context"
	"regexp"
	"strings"

	"gatemini/pkg/secrets"
)

// secretRefPattern matches secretref:<provider>:<reference> anywhere in a
// string, for the inline resolution mode (spec.md §4.2 "Secret resolution").
// Provider aliases are restricted to identifier-like tokens; references may
// contain any non-whitespace character up to the next one.
var secretRefPattern = regexp.MustCompile(`secretref:([A-Za-z0-9_-]+):(\S+)`)

// BuildSecretRegistry constructs the provider registry named by
// secrets.providers in c. The env provider is always registered; bws is
// added only when enabled.
func BuildSecretRegistry(c *Config) (*secrets.Registry, error) {
	reg := secrets.NewRegistry()
	reg.Register(secrets.NewEnvProvider())

	if c.Secrets.Providers.BWS.Enabled {
		bws, err := secrets.NewBWSProvider(c.Secrets.Providers.BWS.AccessToken, c.Secrets.Providers.BWS.OrganizationID)
		if err != nil {
			return nil, err
		}
		reg.Register(bws)
	}
	return reg, nil
}

// ResolveSecrets walks every string field of c that spec.md §4.2 names
// (command, args, env values, url, headers, prerequisite args/env) and
// resolves secretref: literals through reg. Resolution happens in place.
func ResolveSecrets(ctx context.Context, c *Config, reg *secrets.Registry, errs *ConfigurationErrorCollection) {
	resolve := func(s string) string {
		return resolveOne(ctx, s, reg, c.Secrets.Strict, errs)
	}

	for _, b := range c.Backends {
		b.Command = resolve(b.Command)
		b.URL = resolve(b.URL)
		for i, a := range b.Args {
			b.Args[i] = resolve(a)
		}
		for k, v := range b.Env {
			b.Env[k] = resolve(v)
		}
		for k, v := range b.Headers {
			b.Headers[k] = resolve(v)
		}
		if b.Prerequisite != nil {
			p := b.Prerequisite
			p.Command = resolve(p.Command)
			for i, a := range p.Args {
				p.Args[i] = resolve(a)
			}
			for k, v := range p.Env {
				p.Env[k] = resolve(v)
			}
		}
	}
}

// resolveOne resolves s in either full-value mode (the entire string is one
// secretref:) or inline mode (a regex-replace over matches inside a larger
// string), per spec.md §4.2.
func resolveOne(ctx context.Context, s string, reg *secrets.Registry, strict bool, errs *ConfigurationErrorCollection) string {
	if s == "" {
		return s
	}

	if provider, reference, ok := fullValueRef(s); ok {
		value, err := reg.Resolve(ctx, provider, reference)
		if err != nil {
			errs.AddError("", "secrets", "secret", err.Error())
			return s
		}
		if value == "" && strict {
			errs.AddError("", "secrets", "secret", "secret "+s+" resolved to an empty value")
		}
		return value
	}

	if !strings.Contains(s, "secretref:") {
		return s
	}

	return secretRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := secretRefPattern.FindStringSubmatch(match)
		provider, reference := sub[1], sub[2]
		value, err := reg.Resolve(ctx, provider, reference)
		if err != nil {
			errs.AddError("", "secrets", "secret", err.Error())
			return match
		}
		if value == "" && strict {
			errs.AddError("", "secrets", "secret", "secret "+match+" resolved to an empty value")
		}
		return value
	})
}

// fullValueRef reports whether s is, in its entirety, one
// secretref:<provider>:<reference> literal (no surrounding text).
func fullValueRef(s string) (provider, reference string, ok bool) {
	loc := secretRefPattern.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return "", "", false
	}
	sub := secretRefPattern.FindStringSubmatch(s)
	return sub[1], sub[2], true
}

// hasUnresolvedSecretRef reports whether s still contains a secretref:
// literal, used by strict validation after resolution has run.
func hasUnresolvedSecretRef(s string) bool {
	return secretRefPattern.MatchString(s)
}
