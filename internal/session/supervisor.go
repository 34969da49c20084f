package session

import (
	"context"
	"errors"
	"log"
	"net"
	"time"
)

// reconnectDelay is the minimum wait between a failed connection
// attempt and the next dial, per spec.md section 4.5.
const reconnectDelay = 1 * time.Second

// Supervisor wraps a Session in the outer retry loop: dial, run one
// session attempt, log the outcome, wait, repeat — until ctx is
// cancelled.
type Supervisor struct {
	addr string
	sess *Session
}

// NewSupervisor builds a supervisor that dials addr (host:port) and
// drives sess for each connection attempt.
func NewSupervisor(addr string, sess *Session) *Supervisor {
	return &Supervisor{addr: addr, sess: sess}
}

// Run blocks until ctx is cancelled, reconnecting after every attempt
// that ends for any other reason.
func (sv *Supervisor) Run(ctx context.Context) error {
	var dialer net.Dialer
	for {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		conn, err := dialer.DialContext(ctx, "tcp", sv.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			log.Printf("session: connect to %s failed: %v", sv.addr, err)
			if !sleepOrDone(ctx, reconnectDelay) {
				return ErrCancelled
			}
			continue
		}

		log.Printf("session: connected to %s", sv.addr)
		err = sv.sess.Run(ctx, conn)
		if err == nil || errors.Is(err, ErrCancelled) {
			if ctx.Err() != nil {
				return ErrCancelled
			}
		}
		if err != nil && !errors.Is(err, ErrCancelled) {
			log.Printf("session: connection to %s ended: %v", sv.addr, err)
		} else {
			log.Printf("session: connection to %s ended", sv.addr)
		}

		if !sleepOrDone(ctx, reconnectDelay) {
			return ErrCancelled
		}
	}
}

// sleepOrDone waits for d or ctx cancellation, whichever comes first,
// reporting false when cancellation won the race.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
