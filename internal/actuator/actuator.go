// Package actuator defines the narrow interface the session loop
// drives to turn decoded protocol events into host-visible input, and
// the registry that picks a concrete sink from configuration.
package actuator

import "github.com/windoze/barpi/internal/protocol"

// Actuator is the sink the session owns exclusively for the lifetime
// of one connection. Every method may block; the session loop treats
// a returned error as a write failure and aborts the session per
// spec.md section 7.
type Actuator interface {
	// Connected is called once the handshake completes.
	Connected() error
	// Disconnected is called when the session loop exits, for any reason.
	Disconnected() error

	// ScreenSize reports the virtual screen size this actuator presents.
	ScreenSize() (uint16, uint16)

	// WriteReport delivers one synthesized HID report verbatim to the
	// endpoint named by kind.
	WriteReport(kind ReportKind, report []byte) error

	// Enter and Leave bracket a focus period, as signalled by
	// CursorEnter/CursorLeave.
	Enter() error
	Leave() error

	// SetOptions passes through server device options (only HBRT,
	// the heartbeat interval in milliseconds, is interpreted by the
	// session itself; others are opaque to the core).
	SetOptions(opts map[string]uint32) error
	// ResetOptions asks the sink to restore its default options.
	ResetOptions() error

	// SetClipboard delivers a completed clipboard transfer.
	SetClipboard(data protocol.ClipboardData) error
}

// ReportKind mirrors hid.ReportKind without importing the hid package,
// keeping actuator free of a dependency on the synthesizer.
type ReportKind int

const (
	ReportKeyboard ReportKind = iota
	ReportMouse
	ReportConsumer
)

func (k ReportKind) String() string {
	switch k {
	case ReportKeyboard:
		return "keyboard"
	case ReportMouse:
		return "mouse"
	case ReportConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// ClipboardSource is an optional capability: an actuator that can also
// supply the clipboard when this client owns input focus.
type ClipboardSource interface {
	GetClipboard() (*protocol.ClipboardData, error)
}
