package socketcoord

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WritePIDFile records the current process's PID at the given path.
func WritePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

// ReadPIDFile reads a PID previously written by WritePIDFile. It returns
// os.ErrNotExist (wrapped) if the file is missing.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("socketcoord: malformed pid file %s: %w", path, err)
	}
	return pid, nil
}
