// Package simerr defines the sentinel error kinds the simulation's
// components surface. Nothing is retried inside the core: every error
// aborts the run, and callers distinguish kinds with errors.Is.
package simerr

import "errors"

var (
	// ErrOutOfMemory signals arena exhaustion or another allocator failure.
	// Fatal; the coordinator aborts the run.
	ErrOutOfMemory = errors.New("barnes-hut: out of memory")

	// ErrBadOption signals a malformed or invalid configuration value.
	// Fatal before any worker threads spawn.
	ErrBadOption = errors.New("barnes-hut: bad option")

	// ErrEarlyExit signals a request to exit with status 0 (e.g. --help)
	// rather than an actual failure.
	ErrEarlyExit = errors.New("barnes-hut: early exit")

	// ErrRender signals the visualization sink failed to initialize or the
	// user closed it. Fatal but graceful: the step loop stops and threads
	// are still joined.
	ErrRender = errors.New("barnes-hut: render error")

	// ErrThreadSpawn signals a worker goroutine could not be started.
	// Fatal; joins whatever was already spawned.
	ErrThreadSpawn = errors.New("barnes-hut: thread spawn failed")
)

// ExitCode maps an error produced by the core to a process exit code, the
// way cmd/barnes-hut's main reports status. ErrEarlyExit maps to 0; any
// other non-nil error maps to 1; nil maps to 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrEarlyExit):
		return 0
	default:
		return 1
	}
}
