package socketcoord

import (
	"os"
	"os/user"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// IsDaemonAlive reads the PID file at pidPath and issues a zero-signal probe
// against it: the probe succeeds only if a process with that PID exists and
// is owned by the user running this call (spec.md §4.1). A missing PID file
// or a dead/foreign-owned process both count as "not alive".
func IsDaemonAlive(pidPath string) (bool, error) {
	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return isAliveAndOwnedByUs(pid)
}

// isAliveAndOwnedByUs sends signal 0 to pid, which the kernel still
// validates for existence and permission without actually delivering a
// signal, then double-checks the owning user so a recycled PID belonging to
// someone else's process is never mistaken for our daemon.
func isAliveAndOwnedByUs(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	if err := syscall.Kill(pid, 0); err != nil {
		return false, nil
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false, nil
	}
	owner, err := proc.Username()
	if err != nil {
		// The process exists and answered the signal; if we can't resolve
		// its owner (e.g. it exited between the two checks), treat it as
		// no longer alive rather than risk a false positive.
		return false, nil
	}

	me, err := user.Current()
	if err != nil {
		return false, err
	}
	return owner == me.Username, nil
}
