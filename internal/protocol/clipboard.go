package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrClipboardFormat is returned when a reassembled clipboard blob
// names a format code this client does not understand.
var ErrClipboardFormat = errors.New("protocol: unknown clipboard format")

// ClipboardData is the reassembled payload of one clipboard transfer.
// At least one of Text, HTML or Bitmap may be empty; IsEmpty reports
// whether all three are.
type ClipboardData struct {
	Text   []byte
	HTML   []byte
	Bitmap []byte
}

// IsEmpty reports whether none of the three formats carried any bytes.
func (c ClipboardData) IsEmpty() bool {
	return len(c.Text) == 0 && len(c.HTML) == 0 && len(c.Bitmap) == 0
}

const (
	clipboardFormatText   = 0
	clipboardFormatHTML   = 1
	clipboardFormatBitmap = 2
)

// parseClipboardBlob decodes the payload accumulated across a DCLP
// sequence once mark 3 is reached:
//
//	u32 total_size
//	u32 num_formats
//	repeat num_formats times: u32 format_id, u32 length, length bytes
func parseClipboardBlob(buf []byte) (ClipboardData, error) {
	var data ClipboardData
	r := NewBodyReader(buf)
	if _, err := r.U32(); err != nil { // total_size, unused
		return data, toShortRead(err)
	}
	numFormats, err := r.U32()
	if err != nil {
		return data, toShortRead(err)
	}
	for i := uint32(0); i < numFormats; i++ {
		formatID, err := r.U32()
		if err != nil {
			return data, toShortRead(err)
		}
		length, err := r.U32()
		if err != nil {
			return data, toShortRead(err)
		}
		chunk, err := r.Fixed(int(length))
		if err != nil {
			return data, toShortRead(err)
		}
		switch formatID {
		case clipboardFormatText:
			data.Text = chunk
		case clipboardFormatHTML:
			data.HTML = chunk
		case clipboardFormatBitmap:
			data.Bitmap = chunk
		default:
			return data, fmt.Errorf("%w: format id %d", ErrClipboardFormat, formatID)
		}
	}
	return data, nil
}

func toShortRead(err error) error {
	if errors.Is(err, ErrShortRead) {
		return ErrShortRead
	}
	return err
}

// clipStageKind identifies which state a ClipboardStage is in. The
// zero value is StageNone.
type clipStageKind int

const (
	// StageNone is the initial/idle state, and the state reassembly
	// returns to after any illegal mark transition.
	StageNone clipStageKind = iota
	// StageMark1 has seen the header chunk (mark=1) and knows the id.
	StageMark1
	// StageMark2 has accumulated at least one data chunk (mark=2).
	StageMark2
	// StageMark3 is terminal: the full payload has been accumulated and
	// parsed into a ClipboardData.
	StageMark3
)

// ClipboardStage is the per-connection clipboard reassembly state
// machine described in spec.md section 4.3. It is not safe for
// concurrent use; the session loop that owns it processes packets
// serially.
type ClipboardStage struct {
	kind clipStageKind
	id   uint8
	data []byte
}

// Kind reports the stage's current state, mainly for logging.
func (s *ClipboardStage) Kind() clipStageKind { return s.kind }

// Reset returns the reassembler to StageNone, discarding any partial
// accumulation. Called on illegal transitions and at the start of
// every new connection.
func (s *ClipboardStage) Reset() {
	s.kind = StageNone
	s.id = 0
	s.data = nil
}

// SetClipboardEvent is emitted once a clipboard transfer reaches mark
// 3 and its payload parses successfully.
type SetClipboardEvent struct {
	ID   uint8
	Data ClipboardData
}

// Advance feeds one DCLP chunk into the reassembler. It returns a
// non-nil *SetClipboardEvent exactly when this chunk completed a
// transfer (mark 3 with a parseable payload). An illegal mark
// transition resets the reassembler to StageNone and returns
// (nil, nil) — the session continues, per spec.md section 4.3. A
// mark-3 chunk whose accumulated payload doesn't parse (unknown
// format id, truncated data) resets the reassembler and returns a
// non-nil error — per spec.md sections 4.3 and 7 this is a protocol
// error the caller should treat like any other: disconnect and let
// the supervisor reconnect.
func (s *ClipboardStage) Advance(chunk ClipboardChunk) (*SetClipboardEvent, error) {
	switch chunk.Mark {
	case 1:
		switch s.kind {
		case StageNone, StageMark3:
			// body is u32 ascii_len || ascii_digits; the length
			// prefix is redundant with the frame's own length and is
			// not otherwise used.
			if len(chunk.Body) < 4 {
				s.Reset()
				return nil, nil
			}
			if _, err := strconv.ParseUint(string(chunk.Body[4:]), 10, 32); err != nil {
				s.Reset()
				return nil, nil
			}
			s.kind = StageMark1
			s.id = chunk.ID
			s.data = nil
		default:
			s.Reset()
		}
	case 2:
		switch s.kind {
		case StageMark1, StageMark2:
			s.kind = StageMark2
			s.id = chunk.ID
			s.data = append(s.data, chunk.Body...)
		default:
			s.Reset()
		}
	case 3:
		switch s.kind {
		case StageMark1, StageMark2:
			id := chunk.ID
			payload := append(append([]byte(nil), s.data...), chunk.Body...)
			s.kind = StageMark3
			s.id = id
			s.data = payload
			data, err := parseClipboardBlob(payload)
			if err != nil {
				s.Reset()
				return nil, fmt.Errorf("protocol: clipboard payload: %w", err)
			}
			return &SetClipboardEvent{ID: id, Data: data}, nil
		default:
			s.Reset()
		}
	default:
		s.Reset()
	}
	return nil, nil
}
