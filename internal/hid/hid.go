// Package hid translates Barrier wire events into HID boot-keyboard,
// absolute-mouse and consumer-control report bytes, tracking the
// per-server-button press state needed to resolve key releases
// correctly even when the server's key id shifts between press and
// release (e.g. under a layout change).
package hid

import "math"

// maxAbs is the saturating maximum of the 15-bit absolute HID axis.
const maxAbs = 0x7FFF

// Report pairs a report's destination endpoint with its wire bytes.
type Report struct {
	Kind  ReportKind
	Bytes []byte
}

// Synthesizer holds all HID state: the virtual screen
// geometry, wheel polarity, absolute cursor position, the
// server-button press table, and the three live report buffers. It is
// driven by one goroutine and needs no internal locking.
type Synthesizer struct {
	width, height uint16
	flipWheel     bool

	serverButtons [512]uint16

	kb       keyboardReport
	mouse    absMouseReport
	consumer consumerReport
}

// New creates a synthesizer for a screen of the given pixel size.
func New(width, height uint16, flipWheel bool) *Synthesizer {
	return &Synthesizer{width: width, height: height, flipWheel: flipWheel}
}

// CursorPosition returns the current absolute cursor position in HID
// units (0..0x7FFF on each axis).
func (s *Synthesizer) CursorPosition() (uint16, uint16) {
	return s.mouse.x, s.mouse.y
}

// ScalePosition converts a screen-pixel coordinate to the saturating
// 0..0x7FFF HID axis range: ceil(v * 0x7FFF / extent).
func ScalePosition(v, extent uint16) uint16 {
	if extent == 0 {
		return 0
	}
	scaled := math.Ceil(float64(v) * float64(maxAbs) / float64(extent))
	if scaled > maxAbs {
		return maxAbs
	}
	if scaled < 0 {
		return 0
	}
	return uint16(scaled)
}

// SetCursor sets the absolute cursor position from screen-pixel
// coordinates, scaling them into HID units, and returns the updated
// mouse report.
func (s *Synthesizer) SetCursor(x, y uint16) Report {
	hx := ScalePosition(x, s.width)
	hy := ScalePosition(y, s.height)
	b := s.mouse.moveTo(hx, hy)
	return Report{ReportMouse, b[:]}
}

// MoveCursor moves the cursor by a relative delta already expressed in
// HID units, matching the wire semantics: the addition happens with
// i32 intermediates and the result wraps on uint16 overflow rather
// than saturating.
func (s *Synthesizer) MoveCursor(dx, dy int16) Report {
	nx := uint16(int32(s.mouse.x) + int32(dx))
	ny := uint16(int32(s.mouse.y) + int32(dy))
	b := s.mouse.moveTo(nx, ny)
	return Report{ReportMouse, b[:]}
}

// MouseDown presses a mouse button (1=left, 2=middle, 3=right; other
// ids are ignored, returning the unchanged report).
func (s *Synthesizer) MouseDown(button int8) Report {
	if bit, ok := MouseButton(button); ok {
		b := s.mouse.buttonDown(bit)
		return Report{ReportMouse, b[:]}
	}
	b := s.mouse.bytes()
	return Report{ReportMouse, b[:]}
}

// MouseUp releases a mouse button.
func (s *Synthesizer) MouseUp(button int8) Report {
	if bit, ok := MouseButton(button); ok {
		b := s.mouse.buttonUp(bit)
		return Report{ReportMouse, b[:]}
	}
	b := s.mouse.bytes()
	return Report{ReportMouse, b[:]}
}

// MouseWheel reports a scroll-wheel movement. Both axes are clamped
// to an 8-bit signed range; if the synthesizer was configured with
// flipWheel, the vertical axis is negated to match the actuator's
// polarity convention.
func (s *Synthesizer) MouseWheel(dx, dy int16) Report {
	x := clampI8(dx)
	y := clampI8(dy)
	if s.flipWheel {
		y = -y
	}
	b := s.mouse.wheel(y, x)
	return Report{ReportMouse, b[:]}
}

func clampI8(v int16) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

// KeyDown records the server's button-slot assignment, maps the key
// id through the static keycode table, and returns the updated
// keyboard or consumer report.
func (s *Synthesizer) KeyDown(id, mask, button uint16) Report {
	_ = mask
	s.serverButtons[button] = id
	return s.applyKey(MapKey(id), true)
}

// KeyUp resolves the release using the id recorded at press time for
// this button slot — not the id the server supplies with the
// release — so that layout shifts between press and release don't
// lose the event. A release with no matching press is a no-op that
// still emits a cleared keyboard report.
func (s *Synthesizer) KeyUp(id, mask, button uint16) Report {
	_, _ = id, mask
	prev := s.serverButtons[button]
	if prev == 0 {
		return s.applyKey(KeyCode{Kind: KeyNone}, false)
	}
	s.serverButtons[button] = 0
	return s.applyKey(MapKey(prev), false)
}

func (s *Synthesizer) applyKey(kc KeyCode, down bool) Report {
	switch kc.Kind {
	case KeyKeyboard:
		var b [8]byte
		if down {
			b = s.kb.press(kc.Keyboard)
		} else {
			b = s.kb.release(kc.Keyboard)
		}
		return Report{ReportKeyboard, b[:]}
	case KeyConsumer:
		var b [2]byte
		if down {
			b = s.consumer.press(kc.Consumer)
		} else {
			b = s.consumer.release()
		}
		return Report{ReportConsumer, b[:]}
	default:
		b := s.kb.clear()
		return Report{ReportKeyboard, b[:]}
	}
}

// Clear zeroes all three report buffers independently and returns
// them, for CursorLeave and disconnect.
func (s *Synthesizer) Clear() []Report {
	kb := s.kb.clear()
	m := s.mouse.clear()
	c := s.consumer.clear()
	return []Report{
		{ReportKeyboard, kb[:]},
		{ReportMouse, m[:]},
		{ReportConsumer, c[:]},
	}
}
