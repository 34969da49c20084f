package protocol

import "fmt"

// Packet is a decoded Barrier wire packet. Each concrete type below
// corresponds to one tag in the table from spec.md section 3.
type Packet interface {
	// Tag returns the packet's 4-character wire tag.
	Tag() string
}

type tagged struct{ tag string }

func (t tagged) Tag() string { return t.tag }

// QueryInfo ("QINF") asks the client to report its screen geometry.
type QueryInfo struct{ tagged }

// DeviceInfo ("DINF") reports screen geometry and mouse position.
type DeviceInfo struct {
	tagged
	X, Y, W, H uint16
	MX, MY     uint16
}

// InfoAck ("CIAK") acknowledges a DeviceInfo.
type InfoAck struct{ tagged }

// KeepAlive ("CALV") is a heartbeat exchanged in both directions.
type KeepAlive struct{ tagged }

// ClientNoOp ("CNOP") is an explicit no-op.
type ClientNoOp struct{ tagged }

// ResetOptions ("CROP") asks the client to reset device options.
type ResetOptions struct{ tagged }

// SetDeviceOptions ("DSOP") carries a set of 4-char-code -> u32 options.
type SetDeviceOptions struct {
	tagged
	Options map[string]uint32
}

// ErrorUnknownDevice ("EUNK") signals an unrecognised device to the server.
type ErrorUnknownDevice struct{ tagged }

// GrabClipboard ("CCLP") tells the client a clipboard grab happened.
type GrabClipboard struct {
	tagged
	ID  uint8
	Seq uint32
}

// ClipboardChunk ("DCLP") is one chunk of a multi-part clipboard transfer.
type ClipboardChunk struct {
	tagged
	ID   uint8
	Seq  uint32
	Mark uint8
	Body []byte
}

// CursorEnter ("CINN") reports the server's cursor entering this screen.
type CursorEnter struct {
	tagged
	X, Y uint16
	Seq  uint32
	Mask uint16
}

// CursorLeave ("COUT") reports the server's cursor leaving this screen.
type CursorLeave struct{ tagged }

// MouseUp ("DMUP") reports a mouse button release.
type MouseUp struct {
	tagged
	Button int8
}

// MouseDown ("DMDN") reports a mouse button press.
type MouseDown struct {
	tagged
	Button int8
}

// KeyUp ("DKUP") reports a key release.
type KeyUp struct {
	tagged
	ID, Mask, Button uint16
}

// KeyDown ("DKDN") reports a key press.
type KeyDown struct {
	tagged
	ID, Mask, Button uint16
}

// KeyRepeat ("DKRP") reports that a held key is auto-repeating.
//
// The wire field order is (id, mask, count, button) — not
// (id, mask, button, count) — matching the reference server.
type KeyRepeat struct {
	tagged
	ID, Mask, Count, Button uint16
}

// MouseWheel ("DMWM") reports a scroll-wheel movement.
type MouseWheel struct {
	tagged
	DX, DY int16
}

// MouseMoveAbs ("DMMV") sets the absolute cursor position.
type MouseMoveAbs struct {
	tagged
	X, Y uint16
}

// MouseMove ("DMRM") moves the cursor by a relative delta.
type MouseMove struct {
	tagged
	DX, DY int16
}

// Unknown is any packet whose tag this client does not recognise.
type Unknown struct {
	tagged
	Raw [4]byte
}

func tag(s string) tagged { return tagged{tag: s} }

// Decode reads one packet from a previously-read frame body. The first
// 4 bytes of body are the ASCII tag; trailing bytes beyond a known
// variant's fixed fields are discarded silently (forward compatibility
// with server extensions), except for DCLP whose body is consumed in
// full since its length is data, not padding.
//
// Decode does not itself advance clipboard reassembly: a DCLP body
// decodes to a ClipboardChunk value, and it is the caller's
// responsibility to feed that into a ClipboardStage.
func Decode(body []byte) (Packet, error) {
	if len(body) < 4 {
		return nil, ErrFrameTooSmall
	}
	r := NewBodyReader(body)
	tagBytes, err := r.FixedArray4()
	if err != nil {
		return nil, err
	}
	code := string(tagBytes[:])

	var pkt Packet
	switch code {
	case "QINF":
		pkt = QueryInfo{tag(code)}
	case "CIAK":
		pkt = InfoAck{tag(code)}
	case "CALV":
		pkt = KeepAlive{tag(code)}
	case "CNOP":
		pkt = ClientNoOp{tag(code)}
	case "CROP":
		pkt = ResetOptions{tag(code)}
	case "EUNK":
		pkt = ErrorUnknownDevice{tag(code)}
	case "DSOP":
		n, err := r.U32()
		if err != nil {
			return nil, err
		}
		opts := make(map[string]uint32, n/2)
		for i := uint32(0); i < n/2; i++ {
			code4, err := r.FixedArray4()
			if err != nil {
				return nil, err
			}
			val, err := r.U32()
			if err != nil {
				return nil, err
			}
			opts[string(code4[:])] = val
		}
		pkt = SetDeviceOptions{tag(code), opts}
	case "CCLP":
		id, err := r.U8()
		if err != nil {
			return nil, err
		}
		seq, err := r.U32()
		if err != nil {
			return nil, err
		}
		pkt = GrabClipboard{tag(code), id, seq}
	case "DCLP":
		id, err := r.U8()
		if err != nil {
			return nil, err
		}
		seq, err := r.U32()
		if err != nil {
			return nil, err
		}
		mark, err := r.U8()
		if err != nil {
			return nil, err
		}
		rest := r.Remaining()
		pkt = ClipboardChunk{tag(code), id, seq, mark, rest}
		// DCLP's trailing bytes are the payload itself, already fully
		// consumed by Remaining; nothing left to discard.
		return pkt, nil
	case "CINN":
		x, err := r.U16()
		if err != nil {
			return nil, err
		}
		y, err := r.U16()
		if err != nil {
			return nil, err
		}
		seq, err := r.U32()
		if err != nil {
			return nil, err
		}
		mask, err := r.U16()
		if err != nil {
			return nil, err
		}
		pkt = CursorEnter{tag(code), x, y, seq, mask}
	case "COUT":
		pkt = CursorLeave{tag(code)}
	case "DMUP":
		b, err := r.I8()
		if err != nil {
			return nil, err
		}
		pkt = MouseUp{tag(code), b}
	case "DMDN":
		b, err := r.I8()
		if err != nil {
			return nil, err
		}
		pkt = MouseDown{tag(code), b}
	case "DKUP":
		id, mask, button, err := read3u16(r)
		if err != nil {
			return nil, err
		}
		pkt = KeyUp{tag(code), id, mask, button}
	case "DKDN":
		id, mask, button, err := read3u16(r)
		if err != nil {
			return nil, err
		}
		pkt = KeyDown{tag(code), id, mask, button}
	case "DKRP":
		id, err := r.U16()
		if err != nil {
			return nil, err
		}
		mask, err := r.U16()
		if err != nil {
			return nil, err
		}
		count, err := r.U16()
		if err != nil {
			return nil, err
		}
		button, err := r.U16()
		if err != nil {
			return nil, err
		}
		pkt = KeyRepeat{tag(code), id, mask, count, button}
	case "DMWM":
		dx, err := r.I16()
		if err != nil {
			return nil, err
		}
		dy, err := r.I16()
		if err != nil {
			return nil, err
		}
		pkt = MouseWheel{tag(code), dx, dy}
	case "DMMV":
		x, err := r.U16()
		if err != nil {
			return nil, err
		}
		y, err := r.U16()
		if err != nil {
			return nil, err
		}
		pkt = MouseMoveAbs{tag(code), x, y}
	case "DMRM":
		dx, err := r.I16()
		if err != nil {
			return nil, err
		}
		dy, err := r.I16()
		if err != nil {
			return nil, err
		}
		pkt = MouseMove{tag(code), dx, dy}
	case "DINF":
		x, err := r.U16()
		if err != nil {
			return nil, err
		}
		y, err := r.U16()
		if err != nil {
			return nil, err
		}
		w, err := r.U16()
		if err != nil {
			return nil, err
		}
		h, err := r.U16()
		if err != nil {
			return nil, err
		}
		if err := r.Discard(2); err != nil { // _pad
			return nil, err
		}
		mx, err := r.U16()
		if err != nil {
			return nil, err
		}
		my, err := r.U16()
		if err != nil {
			return nil, err
		}
		pkt = DeviceInfo{tag(code), x, y, w, h, mx, my}
	default:
		pkt = Unknown{tag(code), tagBytes}
	}

	// Forward-compatibility: any trailing bytes within the frame that
	// this variant's fixed fields didn't consume are discarded silently.
	if err := r.DiscardRemaining(); err != nil {
		return nil, err
	}
	return pkt, nil
}

func read3u16(r *BodyReader) (a, b, c uint16, err error) {
	if a, err = r.U16(); err != nil {
		return
	}
	if b, err = r.U16(); err != nil {
		return
	}
	c, err = r.U16()
	return
}

// Encode serialises a packet this client is permitted to emit. Only
// CNOP, CIAK, CALV, DINF, DMMV, EUNK and QINF are ever written by this
// client; this client never sends clipboard chunks of its own.
func Encode(p Packet) ([4]byte, []byte, error) {
	var t [4]byte
	switch v := p.(type) {
	case ClientNoOp:
		copy(t[:], "CNOP")
		return t, nil, nil
	case InfoAck:
		copy(t[:], "CIAK")
		return t, nil, nil
	case KeepAlive:
		copy(t[:], "CALV")
		return t, nil, nil
	case ErrorUnknownDevice:
		copy(t[:], "EUNK")
		return t, nil, nil
	case QueryInfo:
		copy(t[:], "QINF")
		return t, nil, nil
	case DeviceInfo:
		copy(t[:], "DINF")
		body := NewBodyWriter().
			U16(v.X).U16(v.Y).U16(v.W).U16(v.H).U16(0).U16(v.MX).U16(v.MY).
			Bytes()
		return t, body, nil
	case MouseMoveAbs:
		copy(t[:], "DMMV")
		body := NewBodyWriter().U16(v.X).U16(v.Y).Bytes()
		return t, body, nil
	default:
		return t, nil, fmt.Errorf("protocol: packet type %T is not encodable by this client", p)
	}
}
