package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// killGrace is how long KillExisting waits for SIGTERM before SIGKILL
const killGrace = 5 * time.Second

// ErrNotRunning is returned by Running when no live daemon owns the file.
var ErrNotRunning = errors.New("daemon is not running")

// PIDFile keeps a single planner daemon per host
type PIDFile struct {
	path string
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the file location
func (p *PIDFile) Path() string { return p.path }

// Acquire writes the current PID, failing when another live daemon owns
// the file. Stale and unreadable files are replaced.
func (p *PIDFile) Acquire() error {
	if pid, err := p.Running(); err == nil {
		return fmt.Errorf("autobuild daemon is already running (PID %d)", pid)
	} else if !errors.Is(err, ErrNotRunning) {
		return err
	}
	_ = os.Remove(p.path)

	pidData := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(pidData), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Running returns the PID of the live daemon recorded in the file, or
// ErrNotRunning when the file is missing, malformed or stale.
func (p *PIDFile) Running() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read existing PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !isProcessRunning(pid) {
		return 0, ErrNotRunning
	}
	return pid, nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// KillExisting terminates the daemon recorded in the file and removes the
// file. It is a no-op when no live daemon owns it.
func (p *PIDFile) KillExisting() error {
	pid, err := p.Running()
	if errors.Is(err, ErrNotRunning) {
		return p.Release()
	}
	if err != nil {
		return err
	}
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to kill own process (PID %d)", pid)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	deadline := time.Now().Add(killGrace)
	for time.Now().Before(deadline) {
		if !isProcessRunning(pid) {
			return p.Release()
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Signal(syscall.SIGKILL); err != nil && isProcessRunning(pid) {
		return fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	return p.Release()
}

// isProcessRunning sends signal 0, which only checks that the process
// exists and may be signalled.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// Exists but owned by someone else
		return true
	default:
		return false
	}
}
