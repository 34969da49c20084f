// Package protocol implements the Barrier/Synergy wire protocol: frame
// I/O, the tagged packet codec, and clipboard chunk reassembly.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrShortRead is returned when the underlying stream closes before a
	// full frame (or a full field within one) could be read.
	ErrShortRead = errors.New("protocol: short read")
	// ErrFrameTooSmall is returned when a frame's declared length is too
	// small to hold the mandatory 4-byte tag.
	ErrFrameTooSmall = errors.New("protocol: frame too small")
)

// FrameReader reads u32-length-prefixed frames off a byte stream.
type FrameReader struct {
	r io.Reader
}

// NewFrameReader wraps r for frame-oriented reads.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads one length-prefixed frame and returns its raw body
// (the bytes following the u32 length). The body must be at least 4
// bytes (the packet tag) or ErrFrameTooSmall is returned; the frame is
// still fully consumed off the stream in that case.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(f.r, lenBuf[:]); err != nil {
		return nil, wrapReadErr(err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(f.r, body); err != nil {
			return nil, wrapReadErr(err)
		}
	}
	if n < 4 {
		return body, ErrFrameTooSmall
	}
	return body, nil
}

func wrapReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortRead
	}
	return fmt.Errorf("protocol: io: %w", err)
}

// FrameWriter writes u32-length-prefixed frames to a byte stream.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w for frame-oriented writes.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes the 4-byte tag followed by body as one frame,
// prefixed with their combined length.
func (f *FrameWriter) WriteFrame(tag [4]byte, body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)+4))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("protocol: io: %w", err)
	}
	if _, err := f.w.Write(tag[:]); err != nil {
		return fmt.Errorf("protocol: io: %w", err)
	}
	if len(body) > 0 {
		if _, err := f.w.Write(body); err != nil {
			return fmt.Errorf("protocol: io: %w", err)
		}
	}
	return nil
}

// WriteRaw writes body as one length-prefixed frame with no separate
// tag split out, for the handshake's "Barrier"-prefixed payloads which
// don't follow the 4-byte-tag packet shape.
func (f *FrameWriter) WriteRaw(body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("protocol: io: %w", err)
	}
	if len(body) > 0 {
		if _, err := f.w.Write(body); err != nil {
			return fmt.Errorf("protocol: io: %w", err)
		}
	}
	return nil
}

// BodyReader decodes big-endian primitives from one frame body.
type BodyReader struct {
	r *bytes.Reader
}

// NewBodyReader wraps a frame body for sequential field reads.
func NewBodyReader(body []byte) *BodyReader {
	return &BodyReader{r: bytes.NewReader(body)}
}

// Len returns the number of unread bytes remaining in the body.
func (b *BodyReader) Len() int { return b.r.Len() }

func (b *BodyReader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, wrapReadErr(err)
	}
	return buf, nil
}

// U8 reads one unsigned byte.
func (b *BodyReader) U8() (uint8, error) {
	buf, err := b.readN(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// I8 reads one signed byte.
func (b *BodyReader) I8() (int8, error) {
	v, err := b.U8()
	return int8(v), err
}

// U16 reads a big-endian uint16.
func (b *BodyReader) U16() (uint16, error) {
	buf, err := b.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// I16 reads a big-endian int16.
func (b *BodyReader) I16() (int16, error) {
	v, err := b.U16()
	return int16(v), err
}

// U32 reads a big-endian uint32.
func (b *BodyReader) U32() (uint32, error) {
	buf, err := b.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// Fixed reads exactly n raw bytes.
func (b *BodyReader) Fixed(n int) ([]byte, error) {
	return b.readN(n)
}

// FixedArray4 reads exactly 4 raw bytes, e.g. a packet tag or option code.
func (b *BodyReader) FixedArray4() ([4]byte, error) {
	var out [4]byte
	buf, err := b.readN(4)
	if err != nil {
		return out, err
	}
	copy(out[:], buf)
	return out, nil
}

// Discard skips n bytes without returning them.
func (b *BodyReader) Discard(n int) error {
	_, err := b.readN(n)
	return err
}

// String reads a u32-length-prefixed byte string.
func (b *BodyReader) String() (string, error) {
	n, err := b.U32()
	if err != nil {
		return "", err
	}
	buf, err := b.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Bytes reads a u32-length-prefixed byte slice.
func (b *BodyReader) Bytes() ([]byte, error) {
	n, err := b.U32()
	if err != nil {
		return nil, err
	}
	return b.readN(int(n))
}

// Remaining returns every byte not yet consumed.
func (b *BodyReader) Remaining() []byte {
	buf, _ := b.readN(b.r.Len())
	return buf
}

// DiscardRemaining discards the rest of the body, per the codec's
// forward-compatibility rule: trailing bytes within a known frame are
// discarded silently.
func (b *BodyReader) DiscardRemaining() error {
	return b.Discard(b.r.Len())
}

// BodyWriter builds one frame body (or handshake payload) out of
// sequential big-endian field writes.
type BodyWriter struct {
	buf bytes.Buffer
}

// NewBodyWriter returns an empty body builder.
func NewBodyWriter() *BodyWriter { return &BodyWriter{} }

// Bytes returns the accumulated body.
func (b *BodyWriter) Bytes() []byte { return b.buf.Bytes() }

// Raw appends raw bytes unchanged.
func (b *BodyWriter) Raw(p []byte) *BodyWriter {
	b.buf.Write(p)
	return b
}

// U8 appends one unsigned byte.
func (b *BodyWriter) U8(v uint8) *BodyWriter {
	b.buf.WriteByte(v)
	return b
}

// I8 appends one signed byte.
func (b *BodyWriter) I8(v int8) *BodyWriter { return b.U8(uint8(v)) }

// U16 appends a big-endian uint16.
func (b *BodyWriter) U16(v uint16) *BodyWriter {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return b.Raw(buf[:])
}

// U32 appends a big-endian uint32.
func (b *BodyWriter) U32(v uint32) *BodyWriter {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return b.Raw(buf[:])
}

// String appends a u32-length-prefixed string.
func (b *BodyWriter) String(s string) *BodyWriter {
	b.U32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}
