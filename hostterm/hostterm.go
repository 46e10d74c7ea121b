// Package hostterm puts the controlling terminal into raw, non-blocking
// mode and exposes a single-shot Poll the run loop can call between
// instructions, satisfying spec.md §5's "non-blocking poll of the
// controlling terminal" rule without ever blocking the core on a
// channel or mutex. Adapted from the teacher's background-reader
// terminal_host.go into a synchronous poll-per-step shape, since the
// run loop here calls interrupt() itself rather than a goroutine
// pushing bytes into an MMIO device.
package hostterm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Monitor owns the raw-mode terminal state and the one outstanding
// non-blocking read per Poll call.
type Monitor struct {
	fd          int
	oldState    *term.State
	nonblockSet bool
}

// New wraps stdin. Start must be called before Poll.
func New() *Monitor {
	return &Monitor{fd: int(os.Stdin.Fd())}
}

// Start puts stdin into raw mode (disabling OS-level echo and line
// buffering) and non-blocking mode (so Poll never blocks the run loop).
func (m *Monitor) Start() error {
	oldState, err := term.MakeRaw(m.fd)
	if err != nil {
		return fmt.Errorf("hostterm: raw mode: %w", err)
	}
	m.oldState = oldState
	if err := unix.SetNonblock(m.fd, true); err != nil {
		_ = term.Restore(m.fd, m.oldState)
		m.oldState = nil
		return fmt.Errorf("hostterm: nonblocking stdin: %w", err)
	}
	m.nonblockSet = true
	return nil
}

// Stop restores stdin to its original blocking, cooked-mode state.
func (m *Monitor) Stop() error {
	if !m.nonblockSet {
		return nil
	}
	m.nonblockSet = false
	if m.oldState == nil {
		return nil
	}
	err := term.Restore(m.fd, m.oldState)
	m.oldState = nil
	return err
}

// Poll performs one non-blocking read. It reports (true, byte) when a
// keypress is waiting, (false, 0) when stdin is idle — the shape
// RunLoop.Run's interrupt callback expects, via Interrupted.
func (m *Monitor) Poll() (bool, byte) {
	var buf [1]byte
	n, err := unix.Read(m.fd, buf[:])
	if n > 0 {
		return true, buf[0]
	}
	_ = err // EAGAIN/EWOULDBLOCK on an idle terminal is the expected case
	return false, 0
}

// Interrupted adapts Poll to the bool-returning signature
// runloop.RunLoop.Run/StepOver take as their interrupt callback.
func (m *Monitor) Interrupted() bool {
	hit, _ := m.Poll()
	return hit
}
