// Package pidfile writes and removes the process id file the sensor
// drops on disk while running, so an external supervisor or a second
// invocation of the binary can tell whether a sensor is already
// running against the same base.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/slopevision/basesentry/internal/fsutil"
)

// PIDFile tracks the on-disk PID file at path, through fs so tests can
// substitute fsutil.NewMemoryFileSystem().
type PIDFile struct {
	fs   fsutil.FileSystem
	path string
}

// New returns a PIDFile bound to path using fs for all I/O.
func New(fs fsutil.FileSystem, path string) *PIDFile {
	return &PIDFile{fs: fs, path: path}
}

// Write writes the current process's id to the PID file, returning an
// error if a PID file already exists and names a process that is
// still alive (per IsProcessAlive).
func (p *PIDFile) Write() error {
	if p.fs.Exists(p.path) {
		existing, err := p.readPID()
		if err == nil && IsProcessAlive(existing) {
			return fmt.Errorf("pidfile: %s already names running process %d", p.path, existing)
		}
	}
	pid := os.Getpid()
	if err := p.fs.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("pidfile: write %s: %w", p.path, err)
	}
	return nil
}

// Remove deletes the PID file. It is not an error for the file to
// already be gone.
func (p *PIDFile) Remove() error {
	if !p.fs.Exists(p.path) {
		return nil
	}
	if err := p.fs.Remove(p.path); err != nil {
		return fmt.Errorf("pidfile: remove %s: %w", p.path, err)
	}
	return nil
}

func (p *PIDFile) readPID() (int, error) {
	data, err := p.fs.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pidfile: malformed contents of %s: %w", p.path, err)
	}
	return pid, nil
}

// IsProcessAlive reports whether pid names a live process. On
// unix-like systems, os.FindProcess never fails, so liveness is
// checked by sending signal 0, which performs permission/existence
// checks without actually signaling the process.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
