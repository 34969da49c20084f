// Package hidgadget drives a Linux USB gadget's legacy HID function,
// writing synthesized reports straight to the kernel character
// devices (/dev/hidgN) that back the gadget's Keyboard, Mouse and
// Consumer-Control HID interfaces.
package hidgadget

import (
	"fmt"
	"os"

	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"

	"github.com/windoze/barpi/internal/actuator"
	"github.com/windoze/barpi/internal/protocol"
)

// Config names the three gadget device files this sink writes to.
type Config struct {
	KeyboardDevice string // e.g. "/dev/hidg0"
	MouseDevice    string // e.g. "/dev/hidg1"
	ConsumerDevice string // e.g. "/dev/hidg2"
}

// Actuator writes HID reports directly to the gadget's device files.
type Actuator struct {
	width, height uint16

	keyboard *os.File
	mouse    *os.File
	consumer *os.File
}

// requiredCap is the capability a process must hold effectively to
// open the gadget character devices when not running as root; device
// nodes for /dev/hidg* are typically root:root 0600.
const requiredCap = capability.CAP_DAC_OVERRIDE

// checkCapabilities returns an error unless the running process is
// root or effectively holds the capability needed to open the gadget
// device files, checked before any privileged operation is attempted.
func checkCapabilities() error {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return fmt.Errorf("hidgadget: load process capabilities: %w", err)
	}
	if err := caps.Load(); err != nil {
		return fmt.Errorf("hidgadget: load process capabilities: %w", err)
	}
	if os.Geteuid() == 0 {
		return nil
	}
	if !caps.Get(capability.EFFECTIVE, requiredCap) {
		return fmt.Errorf("hidgadget: process lacks %s and is not root; cannot open gadget device files", requiredCap)
	}
	return nil
}

// Open opens the three gadget device files named in cfg. It fails
// fast with a fatal-at-startup error per spec.md section 7 rather
// than retrying, since a missing or inaccessible gadget function is
// not something a reconnect will fix.
func Open(cfg Config, width, height uint16) (*Actuator, error) {
	if err := checkCapabilities(); err != nil {
		return nil, err
	}

	kb, err := openGadgetFile(cfg.KeyboardDevice)
	if err != nil {
		return nil, err
	}
	ms, err := openGadgetFile(cfg.MouseDevice)
	if err != nil {
		kb.Close()
		return nil, err
	}
	cc, err := openGadgetFile(cfg.ConsumerDevice)
	if err != nil {
		kb.Close()
		ms.Close()
		return nil, err
	}

	return &Actuator{width: width, height: height, keyboard: kb, mouse: ms, consumer: cc}, nil
}

// openGadgetFile opens a gadget character device for writing. The
// O_NONBLOCK open flag avoids blocking indefinitely if the gadget's
// host side hasn't claimed the HID interface yet; unix.Open is used
// because os.OpenFile has no portable way to combine O_WRONLY with
// O_NONBLOCK before the fd is wrapped back into an *os.File.
func openGadgetFile(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("hidgadget: open %s: %w", path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

func (a *Actuator) Connected() error    { return nil }
func (a *Actuator) Disconnected() error { return nil }

func (a *Actuator) ScreenSize() (uint16, uint16) { return a.width, a.height }

func (a *Actuator) WriteReport(kind actuator.ReportKind, report []byte) error {
	f, err := a.fileFor(kind)
	if err != nil {
		return err
	}
	if _, err := f.Write(report); err != nil {
		return fmt.Errorf("hidgadget: write %s report: %w", kind, err)
	}
	return nil
}

func (a *Actuator) fileFor(kind actuator.ReportKind) (*os.File, error) {
	switch kind {
	case actuator.ReportKeyboard:
		return a.keyboard, nil
	case actuator.ReportMouse:
		return a.mouse, nil
	case actuator.ReportConsumer:
		return a.consumer, nil
	default:
		return nil, fmt.Errorf("hidgadget: unknown report kind %v", kind)
	}
}

func (a *Actuator) Enter() error { return nil }
func (a *Actuator) Leave() error { return nil }

func (a *Actuator) SetOptions(map[string]uint32) error { return nil }
func (a *Actuator) ResetOptions() error                { return nil }

// SetClipboard is a no-op: a bare HID gadget has no clipboard to set.
func (a *Actuator) SetClipboard(protocol.ClipboardData) error { return nil }

// Close releases all three gadget device files.
func (a *Actuator) Close() error {
	var firstErr error
	for _, f := range []*os.File{a.keyboard, a.mouse, a.consumer} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
