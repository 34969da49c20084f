// Package serial relays HID reports to a microcontroller over a
// serial link, for hosts too constrained to expose a USB-HID gadget
// themselves: the MCU on the other end of the wire is the actual
// gadget, and this actuator just forwards framed reports to it.
package serial

import (
	"fmt"

	serial "github.com/daedaluz/goserial"

	"github.com/windoze/barpi/internal/actuator"
	"github.com/windoze/barpi/internal/protocol"
)

// reportTag identifies which endpoint a forwarded report targets, one
// byte on the wire ahead of the report bytes themselves.
type reportTag byte

const (
	tagKeyboard reportTag = 'K'
	tagMouse    reportTag = 'M'
	tagConsumer reportTag = 'C'
)

// Config parametrizes the serial link to the MCU.
type Config struct {
	Device   string // e.g. "/dev/ttyACM0"
	BaudRate uint32
}

// Actuator forwards every HID report as a single-byte tag plus the
// report body, newline-free, to a serial port the MCU reads from a
// tight loop. It does not implement ClipboardSource or clipboard
// passthrough: the MCU end has no display of its own.
type Actuator struct {
	width, height uint16
	port          *serial.Port
}

// Open configures and opens the serial port at cfg.Device.
func Open(cfg Config, width, height uint16) (*Actuator, error) {
	opts := serial.NewOptions().SetReadTimeout(0)
	port, err := serial.Open(cfg.Device, opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	if err := configureTermios(port, cfg.BaudRate); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial: configure %s: %w", cfg.Device, err)
	}
	return &Actuator{width: width, height: height, port: port}, nil
}

func configureTermios(port *serial.Port, baud uint32) error {
	if err := port.MakeRaw(); err != nil {
		return fmt.Errorf("make raw: %w", err)
	}
	t, err := port.GetAttr2()
	if err != nil {
		return fmt.Errorf("get attr: %w", err)
	}
	t.ISpeed = baud
	t.OSpeed = baud
	if err := port.SetAttr2(serial.TCSANOW, t); err != nil {
		return fmt.Errorf("set attr: %w", err)
	}
	return nil
}

func (a *Actuator) Connected() error    { return nil }
func (a *Actuator) Disconnected() error { return nil }

func (a *Actuator) ScreenSize() (uint16, uint16) { return a.width, a.height }

func (a *Actuator) WriteReport(kind actuator.ReportKind, report []byte) error {
	tag, err := tagFor(kind)
	if err != nil {
		return err
	}
	frame := make([]byte, 0, len(report)+1)
	frame = append(frame, byte(tag))
	frame = append(frame, report...)
	if _, err := a.port.Write(frame); err != nil {
		return fmt.Errorf("serial: write report: %w", err)
	}
	return nil
}

func tagFor(kind actuator.ReportKind) (reportTag, error) {
	switch kind {
	case actuator.ReportKeyboard:
		return tagKeyboard, nil
	case actuator.ReportMouse:
		return tagMouse, nil
	case actuator.ReportConsumer:
		return tagConsumer, nil
	default:
		return 0, fmt.Errorf("serial: unknown report kind %v", kind)
	}
}

func (a *Actuator) Enter() error { return nil }
func (a *Actuator) Leave() error { return nil }

func (a *Actuator) SetOptions(map[string]uint32) error { return nil }
func (a *Actuator) ResetOptions() error                { return nil }

// SetClipboard is a no-op: the MCU end of the link has nowhere to put
// clipboard text.
func (a *Actuator) SetClipboard(protocol.ClipboardData) error { return nil }

// Close releases the serial port, draining any pending write first.
func (a *Actuator) Close() error {
	_ = a.port.Drain()
	return a.port.Close()
}
