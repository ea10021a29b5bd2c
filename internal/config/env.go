package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gatemini/pkg/logging"
)

var envLoadOnce sync.Once

// LoadEnvFiles loads KEY=VALUE pairs from up to three deduplicated
// locations — the user's home directory, the platform config directory, and
// the directory containing configPath — applying os.Setenv only for keys not
// already present in the real process environment (spec.md §4.2 "Environment
// stage").
//
// It runs at most once per process: hot-reload must not re-read environment
// files, since mutating the process environment concurrently with readers
// elsewhere in the program is unsound.
func LoadEnvFiles(configPath string) {
	envLoadOnce.Do(func() {
		loadEnvFilesOnce(configPath)
	})
}

func loadEnvFilesOnce(configPath string) {
	seen := make(map[string]bool)
	var candidates []string

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".gatemini.env"))
	}
	if cfgDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(cfgDir, "gatemini", ".env"))
	}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}

	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		loadEnvFile(abs)
	}
}

func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			logging.Warn("Config-Env", "%s:%d: ignoring malformed line (no '=')", path, lineNo)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, already := os.LookupEnv(key); already {
			continue
		}
		os.Setenv(key, value)
	}
}
