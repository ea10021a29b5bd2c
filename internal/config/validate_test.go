package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		MaxDynamicBackends: 10,
		Backends: map[string]*BackendConfig{
			"time": {Command: "time-server", Timeout: 5 * time.Second},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	errs := Validate(validConfig())
	assert.False(t, errs.HasErrors())
}

func TestValidate_RequiresExactlyOneOfCommandOrURL(t *testing.T) {
	c := validConfig()
	c.Backends["time"].Command = ""
	errs := Validate(c)
	assert.True(t, errs.HasErrors())

	c2 := validConfig()
	c2.Backends["time"].URL = "http://localhost:1234"
	errs2 := Validate(c2)
	assert.True(t, errs2.HasErrors(), "command and url together is also invalid")
}

func TestValidate_DynamicBackendQuota(t *testing.T) {
	c := validConfig()
	c.MaxDynamicBackends = 1
	c.Backends["a"] = &BackendConfig{Command: "x", Timeout: time.Second, IsDynamic: true}
	c.Backends["b"] = &BackendConfig{Command: "x", Timeout: time.Second, IsDynamic: true}

	errs := Validate(c)
	assert.True(t, errs.HasErrors())
}

func TestValidate_PrerequisiteRequiresMatchPattern(t *testing.T) {
	c := validConfig()
	c.Backends["time"].Prerequisite = &PrerequisiteConfig{Command: "docker"}
	errs := Validate(c)
	assert.True(t, errs.HasErrors())
}

func TestValidateDynamicName(t *testing.T) {
	existing := map[string]*BackendConfig{"time": {}}

	assert.NoError(t, ValidateDynamicName("new-backend", 0, 10, existing))
	assert.Error(t, ValidateDynamicName("time", 0, 10, existing), "duplicate name")
	assert.Error(t, ValidateDynamicName("has space", 0, 10, existing), "invalid characters")
	assert.Error(t, ValidateDynamicName("new", 10, 10, existing), "quota reached")
}

func TestValidate_StrictRejectsUnresolvedSecretRef(t *testing.T) {
	c := validConfig()
	c.Secrets.Strict = true
	c.Backends["time"].Command = "secretref:env:SOME_VAR"

	errs := Validate(c)
	assert.True(t, errs.HasErrors())
}
