package hid

// ReportKind identifies which HID endpoint a report byte slice targets.
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

// keyboardReport is the 8-byte HID boot-keyboard report:
// [modifier, reserved, key1..key6]. The six key slots form an
// insertion-ordered set with capacity 6; releasing a key compacts the
// remaining slots, preserving their relative press order.
type keyboardReport struct {
	modifier uint8
	keys     []uint8 // at most 6 entries, insertion order
}

func (r *keyboardReport) bytes() [8]byte {
	var out [8]byte
	out[0] = r.modifier
	out[1] = 0 // reserved, always 0
	for i, k := range r.keys {
		if i >= 6 {
			break
		}
		out[2+i] = k
	}
	return out
}

// press adds a non-modifier key to the first free slot, or sets a
// modifier bit. If all 6 slots are full, the key is dropped silently.
func (r *keyboardReport) press(usage uint8) [8]byte {
	if IsModifier(usage) {
		r.modifier |= ModifierBit(usage)
		return r.bytes()
	}
	for _, k := range r.keys {
		if k == usage {
			return r.bytes() // already pressed
		}
	}
	if len(r.keys) < 6 {
		r.keys = append(r.keys, usage)
	}
	return r.bytes()
}

// release removes a non-modifier key (compacting the slot list) or
// clears a modifier bit.
func (r *keyboardReport) release(usage uint8) [8]byte {
	if IsModifier(usage) {
		r.modifier &^= ModifierBit(usage)
		return r.bytes()
	}
	for i, k := range r.keys {
		if k == usage {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return r.bytes()
}

// clear zeroes the whole report.
func (r *keyboardReport) clear() [8]byte {
	r.modifier = 0
	r.keys = r.keys[:0]
	return r.bytes()
}

// absMouseReport is the 7-byte absolute-positioning mouse report:
// [buttons, x_lo, x_hi, y_lo, y_hi, wheel_v, wheel_h], coordinates
// little-endian.
type absMouseReport struct {
	buttons uint8
	x, y    uint16
	wheelV  int8
	wheelH  int8
}

func (r *absMouseReport) bytes() [7]byte {
	var out [7]byte
	out[0] = r.buttons
	out[1] = byte(r.x)
	out[2] = byte(r.x >> 8)
	out[3] = byte(r.y)
	out[4] = byte(r.y >> 8)
	out[5] = byte(r.wheelV)
	out[6] = byte(r.wheelH)
	return out
}

func (r *absMouseReport) moveTo(x, y uint16) [7]byte {
	r.x, r.y = x, y
	r.wheelV, r.wheelH = 0, 0
	return r.bytes()
}

func (r *absMouseReport) buttonDown(bit uint8) [7]byte {
	r.buttons |= bit
	r.wheelV, r.wheelH = 0, 0
	return r.bytes()
}

func (r *absMouseReport) buttonUp(bit uint8) [7]byte {
	r.buttons &^= bit
	r.wheelV, r.wheelH = 0, 0
	return r.bytes()
}

func (r *absMouseReport) wheel(v, h int8) [7]byte {
	r.wheelV, r.wheelH = v, h
	return r.bytes()
}

func (r *absMouseReport) clear() [7]byte {
	*r = absMouseReport{}
	return r.bytes()
}

// consumerReport is the 2-byte consumer-control report, a single
// little-endian usage code.
type consumerReport struct {
	usage uint16
}

func (r *consumerReport) bytes() [2]byte {
	return [2]byte{byte(r.usage), byte(r.usage >> 8)}
}

func (r *consumerReport) press(usage uint16) [2]byte {
	r.usage = usage
	return r.bytes()
}

func (r *consumerReport) release() [2]byte {
	r.usage = 0
	return r.bytes()
}

func (r *consumerReport) clear() [2]byte {
	r.usage = 0
	return r.bytes()
}
