package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandString(t *testing.T) {
	t.Setenv("GATEMINI_TEST_VAR", "value")
	os.Unsetenv("GATEMINI_TEST_UNSET")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dollar form", "$GATEMINI_TEST_VAR", "value"},
		{"braced form", "${GATEMINI_TEST_VAR}", "value"},
		{"braced with default, set", "${GATEMINI_TEST_VAR:-fallback}", "value"},
		{"braced with default, unset", "${GATEMINI_TEST_UNSET:-fallback}", "fallback"},
		{"unset without default", "${GATEMINI_TEST_UNSET}", ""},
		{"no expansion needed", "plain-string", "plain-string"},
		{"embedded in larger string", "prefix-$GATEMINI_TEST_VAR-suffix", "prefix-value-suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandString(tt.input))
		})
	}
}

func TestExpandString_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	assert.Equal(t, home, ExpandString("~"))
	assert.Equal(t, home+"/foo", ExpandString("~/foo"))
	assert.Equal(t, "~user/foo", ExpandString("~user/foo"), "only a bare ~ or ~/ expands")
}

func TestExpandConfig_WalksBackendFields(t *testing.T) {
	t.Setenv("GATEMINI_TOKEN", "secret-token")

	c := &Config{
		Backends: map[string]*BackendConfig{
			"svc": {
				Command: "$GATEMINI_TOKEN",
				Args:    []string{"--token=${GATEMINI_TOKEN}"},
				Env:     map[string]string{"TOKEN": "$GATEMINI_TOKEN"},
				Headers: map[string]string{"Authorization": "Bearer $GATEMINI_TOKEN"},
			},
		},
	}

	ExpandConfig(c)

	b := c.Backends["svc"]
	assert.Equal(t, "secret-token", b.Command)
	assert.Equal(t, "--token=secret-token", b.Args[0])
	assert.Equal(t, "secret-token", b.Env["TOKEN"])
	assert.Equal(t, "Bearer secret-token", b.Headers["Authorization"])
}
