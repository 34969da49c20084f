// Package mock provides an in-memory Actuator for tests and
// "-actuator mock" dry runs: it records every call instead of driving
// real hardware.
package mock

import (
	"sync"

	"github.com/windoze/barpi/internal/actuator"
	"github.com/windoze/barpi/internal/protocol"
)

// Report is one recorded WriteReport call.
type Report struct {
	Kind actuator.ReportKind
	Body []byte
}

// Actuator records every call made against it. Safe for concurrent
// reads of its fields via the accessor methods while the session
// writes to it; the session never calls concurrently with itself, but
// tests may inspect state from another goroutine.
type Actuator struct {
	mu sync.Mutex

	width, height uint16

	connected    int
	disconnected int
	entered      int
	left         int
	resetOpts    int

	reports   []Report
	options   []map[string]uint32
	clipboard []protocol.ClipboardData
}

// New returns a mock actuator presenting the given virtual screen size.
func New(width, height uint16) *Actuator {
	return &Actuator{width: width, height: height}
}

func (a *Actuator) Connected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected++
	return nil
}

func (a *Actuator) Disconnected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disconnected++
	return nil
}

func (a *Actuator) ScreenSize() (uint16, uint16) { return a.width, a.height }

func (a *Actuator) WriteReport(kind actuator.ReportKind, report []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := append([]byte(nil), report...)
	a.reports = append(a.reports, Report{Kind: kind, Body: cp})
	return nil
}

func (a *Actuator) Enter() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entered++
	return nil
}

func (a *Actuator) Leave() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.left++
	return nil
}

func (a *Actuator) SetOptions(opts map[string]uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.options = append(a.options, opts)
	return nil
}

func (a *Actuator) ResetOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetOpts++
	return nil
}

func (a *Actuator) SetClipboard(data protocol.ClipboardData) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clipboard = append(a.clipboard, data)
	return nil
}

// Reports returns every report written so far, in order.
func (a *Actuator) Reports() []Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Report(nil), a.reports...)
}

// LastReport returns the most recently written report of kind, and
// whether any was written at all.
func (a *Actuator) LastReport(kind actuator.ReportKind) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.reports) - 1; i >= 0; i-- {
		if a.reports[i].Kind == kind {
			return a.reports[i].Body, true
		}
	}
	return nil, false
}

// Clipboard returns every SetClipboard payload received so far.
func (a *Actuator) Clipboard() []protocol.ClipboardData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]protocol.ClipboardData(nil), a.clipboard...)
}

// Counts returns the connected/disconnected/entered/left/resetOpts
// call counters, for assertions that don't care about report bytes.
func (a *Actuator) Counts() (connected, disconnected, entered, left, resetOpts int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected, a.disconnected, a.entered, a.left, a.resetOpts
}
