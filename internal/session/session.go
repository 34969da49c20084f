// Package session implements the Barrier client session: handshake,
// the packet dispatch loop, keepalive/heartbeat timeout tracking, and
// the outer reconnect supervisor.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/blang/semver/v4"

	"github.com/windoze/barpi/internal/actuator"
	"github.com/windoze/barpi/internal/hid"
	"github.com/windoze/barpi/internal/protocol"
)

// Config carries the fields of the configuration surface the core
// session needs; see spec.md section 6.
type Config struct {
	ScreenName     string
	ScreenWidth    uint16
	ScreenHeight   uint16
	FlipMouseWheel bool
}

// ErrCancelled is returned by Run when ctx was cancelled, letting the
// supervisor tell a deliberate shutdown apart from a transport error.
var ErrCancelled = errors.New("session: cancelled")

// errBadGreeting is returned when a handshake frame doesn't start with
// the expected "Barrier" literal.
var errBadGreeting = errors.New("session: handshake greeting missing 'Barrier' prefix")

const defaultHeartbeat = 15 * time.Second

// Session drives one connection attempt: one handshake followed by
// the dispatch loop, until the stream ends, a protocol error occurs,
// the actuator refuses a write, or ctx is cancelled.
type Session struct {
	cfg Config
	act actuator.Actuator
	hid *hid.Synthesizer

	stage   protocol.ClipboardStage
	seqNum  uint32
	heartbt time.Duration
}

// New creates a session bound to cfg and act. The HID synthesizer
// persists across reconnects, matching spec.md section 3's lifecycle
// note, so a Session is created once per process and Run is called
// repeatedly by a Supervisor.
func New(cfg Config, act actuator.Actuator) *Session {
	return &Session{
		cfg:     cfg,
		act:     act,
		hid:     hid.New(cfg.ScreenWidth, cfg.ScreenHeight, cfg.FlipMouseWheel),
		heartbt: defaultHeartbeat,
	}
}

// Run performs the handshake on conn and then dispatches packets until
// the connection ends, ctx is cancelled, or an unrecoverable error
// occurs. Once the handshake has completed and act.Connected() has
// succeeded, it clears all HID reports and calls act.Disconnected()
// before returning, whatever ended the loop. It always closes conn.
func (s *Session) Run(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	s.stage.Reset()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	if err := s.handshake(conn); err != nil {
		return s.classify(ctx, err)
	}
	if err := s.act.Connected(); err != nil {
		return fmt.Errorf("session: actuator connected: %w", err)
	}

	fr := protocol.NewFrameReader(conn)
	fw := protocol.NewFrameWriter(conn)

	err := s.dispatchLoop(ctx, conn, fr, fw)
	for _, r := range s.hid.Clear() {
		if werr := s.write(r); werr != nil {
			log.Printf("session: clearing reports on disconnect: %v", werr)
		}
	}
	if derr := s.act.Disconnected(); derr != nil {
		log.Printf("session: actuator disconnected error: %v", derr)
	}
	return s.classify(ctx, err)
}

// classify turns a loop-exit error into ErrCancelled when ctx was the
// actual cause, so the supervisor doesn't log a cancellation as a
// transport failure.
func (s *Session) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	return err
}

func (s *Session) handshake(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	fr := protocol.NewFrameReader(conn)
	body, err := fr.ReadFrame()
	if err != nil {
		return fmt.Errorf("session: handshake read: %w", err)
	}
	if len(body) < 11 || !bytes.Equal(body[:7], []byte("Barrier")) {
		return errBadGreeting
	}
	r := protocol.NewBodyReader(body[7:])
	major, err := r.U16()
	if err != nil {
		return fmt.Errorf("session: handshake major version: %w", err)
	}
	minor, err := r.U16()
	if err != nil {
		return fmt.Errorf("session: handshake minor version: %w", err)
	}
	logProtocolVersion(major, minor)

	reply := protocol.NewBodyWriter().
		Raw([]byte("Barrier")).U16(1).U16(6).String(s.cfg.ScreenName).
		Bytes()
	fw := protocol.NewFrameWriter(conn)
	if err := fw.WriteRaw(reply); err != nil {
		return fmt.Errorf("session: handshake reply: %w", err)
	}
	return nil
}

func (s *Session) dispatchLoop(ctx context.Context, conn net.Conn, fr *protocol.FrameReader, fw *protocol.FrameWriter) error {
	for {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		_ = conn.SetReadDeadline(time.Now().Add(3 * s.heartbt))

		body, err := fr.ReadFrame()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return fmt.Errorf("session: no traffic within %s, assuming disconnect", 3*s.heartbt)
			}
			return err
		}

		pkt, err := protocol.Decode(body)
		if err != nil {
			return fmt.Errorf("session: decode: %w", err)
		}

		if err := s.handle(pkt, fw); err != nil {
			return err
		}
	}
}

func (s *Session) handle(pkt protocol.Packet, fw *protocol.FrameWriter) error {
	switch p := pkt.(type) {
	case protocol.QueryInfo:
		return s.reply(fw, protocol.DeviceInfo{
			X: 0, Y: 0, W: s.cfg.ScreenWidth, H: s.cfg.ScreenHeight, MX: 0, MY: 0,
		})
	case protocol.KeepAlive:
		return s.reply(fw, protocol.KeepAlive{})
	case protocol.InfoAck:
		return nil
	case protocol.ResetOptions:
		if err := s.act.ResetOptions(); err != nil {
			return fmt.Errorf("session: actuator reset options: %w", err)
		}
		return nil
	case protocol.SetDeviceOptions:
		if hbrt, ok := p.Options["HBRT"]; ok && hbrt > 0 {
			s.heartbt = time.Duration(hbrt) * time.Millisecond
		}
		if err := s.act.SetOptions(p.Options); err != nil {
			return fmt.Errorf("session: actuator set options: %w", err)
		}
		return nil
	case protocol.CursorEnter:
		s.seqNum = p.Seq
		if err := s.act.Enter(); err != nil {
			return fmt.Errorf("session: actuator enter: %w", err)
		}
		return nil
	case protocol.CursorLeave:
		for _, r := range s.hid.Clear() {
			if err := s.write(r); err != nil {
				return err
			}
		}
		if err := s.act.Leave(); err != nil {
			return fmt.Errorf("session: actuator leave: %w", err)
		}
		return nil
	case protocol.MouseMoveAbs:
		return s.write(s.hid.SetCursor(p.X, p.Y))
	case protocol.MouseMove:
		return s.write(s.hid.MoveCursor(p.DX, p.DY))
	case protocol.MouseDown:
		return s.write(s.hid.MouseDown(p.Button))
	case protocol.MouseUp:
		return s.write(s.hid.MouseUp(p.Button))
	case protocol.MouseWheel:
		return s.write(s.hid.MouseWheel(p.DX, p.DY))
	case protocol.KeyDown:
		return s.write(s.hid.KeyDown(p.ID, p.Mask, p.Button))
	case protocol.KeyUp:
		return s.write(s.hid.KeyUp(p.ID, p.Mask, p.Button))
	case protocol.KeyRepeat:
		log.Printf("session: key repeat id=%#04x count=%d, leaving auto-repeat to the host", p.ID, p.Count)
		return nil
	case protocol.GrabClipboard:
		return nil
	case protocol.DeviceInfo, protocol.ErrorUnknownDevice, protocol.ClientNoOp:
		return nil
	case protocol.ClipboardChunk:
		ev, err := s.stage.Advance(p)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		if ev == nil || ev.Data.IsEmpty() {
			return nil
		}
		if err := s.act.SetClipboard(ev.Data); err != nil {
			return fmt.Errorf("session: actuator set clipboard: %w", err)
		}
		return nil
	default:
		log.Printf("session: unknown packet %q", pkt.Tag())
		return nil
	}
}

func (s *Session) reply(fw *protocol.FrameWriter, p protocol.Packet) error {
	tag, body, err := protocol.Encode(p)
	if err != nil {
		return fmt.Errorf("session: encode reply: %w", err)
	}
	if err := fw.WriteFrame(tag, body); err != nil {
		return fmt.Errorf("session: write reply: %w", err)
	}
	return nil
}

func (s *Session) write(r hid.Report) error {
	if err := s.act.WriteReport(actuator.ReportKind(r.Kind), r.Bytes); err != nil {
		return fmt.Errorf("session: actuator write report: %w", err)
	}
	return nil
}

var minServerVersion = semver.Version{Major: 1, Minor: 6}

// logProtocolVersion turns the handshake's major/minor fields into a
// semver value purely to compare against minServerVersion for the log
// line below; the client accepts any version the server reports.
func logProtocolVersion(major, minor uint16) {
	v := semver.Version{Major: uint64(major), Minor: uint64(minor)}
	log.Printf("session: server protocol version %s", v)
	if v.LT(minServerVersion) {
		log.Printf("session: server protocol %s is older than %s, proceeding anyway", v, minServerVersion)
	}
}
