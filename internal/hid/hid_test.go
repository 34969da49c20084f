package hid

import (
	"bytes"
	"testing"
)

func TestScalePositionSaturates(t *testing.T) {
	// Scenario 4: 1920x1080 screen, cursor at the bottom-right corner
	// saturates to 0x7FFF on both axes.
	if got := ScalePosition(1920, 1920); got != 0x7FFF {
		t.Fatalf("ScalePosition(1920,1920) = %#x, want 0x7FFF", got)
	}
	if got := ScalePosition(1080, 1080); got != 0x7FFF {
		t.Fatalf("ScalePosition(1080,1080) = %#x, want 0x7FFF", got)
	}
}

func TestScalePositionMonotonic(t *testing.T) {
	const width = 1920
	prev := uint16(0)
	for x := uint16(0); x < width; x += 37 {
		got := ScalePosition(x, width)
		if got < prev {
			t.Fatalf("ScalePosition(%d) = %#x is less than previous %#x", x, got, prev)
		}
		if got > 0x7FFF {
			t.Fatalf("ScalePosition(%d) = %#x exceeds 0x7FFF", x, got)
		}
		prev = got
	}
}

// Scenario 4: MouseMoveAbs saturates at the screen's bottom-right corner.
func TestSetCursorSaturatedReport(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.SetCursor(1920, 1080)
	if r.Kind != ReportMouse {
		t.Fatalf("Kind = %v, want ReportMouse", r.Kind)
	}
	want := []byte{0x00, 0xFF, 0x7F, 0xFF, 0x7F, 0x00, 0x00}
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want % X", r.Bytes, want)
	}
}

// Scenario 5: down A, down B, up A leaves B in the first slot.
func TestKeyDownUpSequence(t *testing.T) {
	s := New(1920, 1080, false)

	r1 := s.KeyDown(0x0041, 0, 10) // A
	want1 := []byte{0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(r1.Bytes, want1) {
		t.Fatalf("after down A: % X, want % X", r1.Bytes, want1)
	}

	r2 := s.KeyDown(0x0042, 0, 11) // B
	want2 := []byte{0x00, 0x00, 0x04, 0x05, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(r2.Bytes, want2) {
		t.Fatalf("after down B: % X, want % X", r2.Bytes, want2)
	}

	r3 := s.KeyUp(0x0041, 0, 10) // up A
	want3 := []byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(r3.Bytes, want3) {
		t.Fatalf("after up A: % X, want % X", r3.Bytes, want3)
	}
}

func TestKeyUpResolvesByServerButtonNotID(t *testing.T) {
	s := New(1920, 1080, false)
	s.KeyDown(0x0041, 0, 10) // A pressed into slot 10
	// Server sends key-up for slot 10 with a *different* id (layout
	// shift); release must still affect A, not whatever the new id maps to.
	r := s.KeyUp(0x0042, 0, 10)
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want all-clear %X", r.Bytes, want)
	}
	if s.serverButtons[10] != 0 {
		t.Fatalf("serverButtons[10] = %d, want 0 after release", s.serverButtons[10])
	}
}

func TestKeyUpWithNoMatchingDownIsNoop(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.KeyUp(0x0041, 0, 99)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want all-clear", r.Bytes)
	}
}

// An unmatched release still clears the held-key report, even with a
// key held in another slot: down A in slot 10, then an unmatched
// release for slot 11 emits all-zero bytes, not A still held.
func TestKeyUpWithNoMatchingDownClearsEvenWhileAnotherKeyHeld(t *testing.T) {
	s := New(1920, 1080, false)
	s.KeyDown(0x0041, 0, 10) // A held in slot 10
	r := s.KeyUp(0x0041, 0, 11)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want all-clear", r.Bytes)
	}
}

func TestModifierKeyDoesNotConsumeSlot(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.KeyDown(synKeyShiftL, 0, 1)
	if r.Bytes[0] != ModifierBit(HIDKeyLeftShift) {
		t.Fatalf("modifier byte = %#x, want %#x", r.Bytes[0], ModifierBit(HIDKeyLeftShift))
	}
	for _, b := range r.Bytes[2:] {
		if b != 0 {
			t.Fatalf("key slots should be empty for a modifier-only press: % X", r.Bytes)
		}
	}
}

func TestKeyboardSlotsCapAtSix(t *testing.T) {
	s := New(1920, 1080, false)
	ids := []uint16{'a', 'b', 'c', 'd', 'e', 'f', 'g'}
	var last Report
	for i, id := range ids {
		last = s.KeyDown(id, 0, uint16(100+i))
	}
	nonzero := 0
	for _, b := range last.Bytes[2:] {
		if b != 0 {
			nonzero++
		}
	}
	if nonzero != 6 {
		t.Fatalf("nonzero key slots = %d, want 6 (7th press dropped)", nonzero)
	}
}

func TestUnmappedKeyClearsReport(t *testing.T) {
	s := New(1920, 1080, false)
	s.KeyDown('a', 0, 1)
	r := s.KeyDown(0xFFFD /* unmapped */, 0, 2)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want all-clear for an unmapped key", r.Bytes)
	}
}

func TestConsumerKeyReport(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.KeyDown(synKeyAudioMute, 0, 1)
	if r.Kind != ReportConsumer {
		t.Fatalf("Kind = %v, want ReportConsumer", r.Kind)
	}
	want := []byte{0xE2, 0x00} // hidConsumerMute = 0x00E2, little-endian
	if !bytes.Equal(r.Bytes, want) {
		t.Fatalf("report = % X, want % X", r.Bytes, want)
	}
	r2 := s.KeyUp(synKeyAudioMute, 0, 1)
	if !bytes.Equal(r2.Bytes, []byte{0, 0}) {
		t.Fatalf("release report = % X, want zeroed", r2.Bytes)
	}
}

func TestMouseButtonBits(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.MouseDown(1)
	if r.Bytes[0] != 1<<0 {
		t.Fatalf("buttons = %#x, want bit0 set", r.Bytes[0])
	}
	r = s.MouseDown(3)
	if r.Bytes[0] != (1<<0)|(1<<2) {
		t.Fatalf("buttons = %#x, want bit0 and bit2 set", r.Bytes[0])
	}
	r = s.MouseUp(1)
	if r.Bytes[0] != 1<<2 {
		t.Fatalf("buttons = %#x, want only bit2 set", r.Bytes[0])
	}
}

func TestMouseButtonUnknownIgnored(t *testing.T) {
	s := New(1920, 1080, false)
	s.MouseDown(1)
	r := s.MouseDown(9)
	if r.Bytes[0] != 1<<0 {
		t.Fatalf("buttons changed for an unmapped button id: %#x", r.Bytes[0])
	}
}

func TestMouseWheelClampAndFlip(t *testing.T) {
	s := New(1920, 1080, true)
	r := s.MouseWheel(50, -80)
	// wheelV is the vertical (dy) axis, negated by flipWheel; wheelH
	// is dx, clamped but not flipped.
	if int8(r.Bytes[5]) != 80 {
		t.Fatalf("wheelV = %d, want 80 (flip of -80)", int8(r.Bytes[5]))
	}
	if int8(r.Bytes[6]) != 50 {
		t.Fatalf("wheelH = %d, want 50 (unflipped dx)", int8(r.Bytes[6]))
	}
}

func TestMouseWheelClamps(t *testing.T) {
	s := New(1920, 1080, false)
	r := s.MouseWheel(500, -500)
	if int8(r.Bytes[6]) != 127 {
		t.Fatalf("wheelH = %d, want 127 (clamp of 500)", int8(r.Bytes[6]))
	}
	if int8(r.Bytes[5]) != -128 {
		t.Fatalf("wheelV = %d, want -128 (clamp of -500)", int8(r.Bytes[5]))
	}
}

func TestMoveCursorRelativeWraps(t *testing.T) {
	s := New(1920, 1080, false)
	s.SetCursor(0, 0) // cursor_x/y = 0,0
	r := s.MoveCursor(-1, -1)
	// wraps per spec, does not saturate at 0
	wantX := uint16(0xFFFF)
	wantY := uint16(0xFFFF)
	gotX := uint16(r.Bytes[1]) | uint16(r.Bytes[2])<<8
	gotY := uint16(r.Bytes[3]) | uint16(r.Bytes[4])<<8
	if gotX != wantX || gotY != wantY {
		t.Fatalf("cursor = (%#x,%#x), want (%#x,%#x)", gotX, gotY, wantX, wantY)
	}
}

// After CursorLeave (modelled here as Clear), all three HID reports
// are zero-bytes, per spec.md's testable property.
func TestClearZeroesAllReports(t *testing.T) {
	s := New(1920, 1080, false)
	s.KeyDown('a', 0, 1)
	s.MouseDown(1)
	s.KeyDown(synKeyAudioMute, 0, 2)

	reports := s.Clear()
	if len(reports) != 3 {
		t.Fatalf("Clear() returned %d reports, want 3", len(reports))
	}
	for _, r := range reports {
		for _, b := range r.Bytes {
			if b != 0 {
				t.Fatalf("report %v not all-zero: % X", r.Kind, r.Bytes)
			}
		}
	}
}
