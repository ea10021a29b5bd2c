package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"gatemini/internal/config"
	"gatemini/pkg/logging"
)

// prerequisiteHandle tracks a prerequisite process this engine spawned, so
// Stop can terminate it at shutdown when (and only when) it was declared
// managed (spec.md §4.3 "Prerequisite processes").
type prerequisiteHandle struct {
	cmd     *exec.Cmd
	managed bool
}

// ensurePrerequisite checks whether a process matching pc's match pattern
// already exists and, if not, spawns pc.Command and waits the configured
// startup delay before returning.
func ensurePrerequisite(ctx context.Context, backendName string, pc *config.PrerequisiteConfig) (*prerequisiteHandle, error) {
	matched, err := matchExistingProcess(pc.MatchPattern)
	if err != nil {
		logging.Warn("Backend-Prerequisite", "matching existing processes for %s: %v", backendName, err)
	}
	if matched {
		logging.Debug("Backend-Prerequisite", "backend %s: prerequisite already running", backendName)
		return &prerequisiteHandle{managed: false}, nil
	}

	env := os.Environ()
	for k, v := range pc.Env {
		env = append(env, k+"="+v)
	}

	cmd := exec.Command(pc.Command, pc.Args...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn prerequisite %s: %w", pc.Command, err)
	}
	logging.Info("Backend-Prerequisite", "backend %s: spawned prerequisite %s (pid %d)", backendName, pc.Command, cmd.Process.Pid)

	delay := pc.StartupDelay
	if delay <= 0 {
		delay = config.DefaultPrerequisiteStartupDelay
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}

	return &prerequisiteHandle{cmd: cmd, managed: pc.Managed}, nil
}

// matchExistingProcess reports whether any running process's command line
// matches pattern.
func matchExistingProcess(pattern string) (bool, error) {
	if pattern == "" {
		return false, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid match_pattern %q: %w", pattern, err)
	}

	procs, err := process.Processes()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		if re.MatchString(cmdline) {
			return true, nil
		}
	}
	return false, nil
}

// stopIfManaged kills the prerequisite's process group if this engine
// spawned it and it was declared managed; unmanaged prerequisites (and
// ones that were already running before this engine started) are left
// running untouched.
func (h *prerequisiteHandle) stopIfManaged() {
	if h == nil || h.cmd == nil || h.cmd.Process == nil || !h.managed {
		return
	}
	pgid := h.cmd.Process.Pid
	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_, _ = h.cmd.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
}
