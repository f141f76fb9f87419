// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"encoding/binary"
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// These are re-exported so callers can reference the semantic
// control-flow errors without importing iox directly, matching the
// teacher framing library's convention.
var (
	// ErrWouldBlock means "no further progress without waiting". It is
	// an expected, non-failure control-flow signal for a Stream
	// configured non-blocking.
	ErrWouldBlock = iox.ErrWouldBlock
	// ErrMore means the underlying Stream has more data queued right
	// now; callers may read again immediately.
	ErrMore = iox.ErrMore
)

// Session owns one connected Stream and performs length-prefixed,
// magic-resynchronizing framed reads and writes of ROMP messages
// (spec.md §4.2). A Session is used by exactly one goroutine for reads
// and exactly one goroutine for writes at a time; the server dispatch
// loop and the client proxy each enforce this on their own side (the
// proxy via its session mutex, spec.md §4.6).
type Session struct {
	stream Stream
	opts   SessionOptions

	// scratch header buffer, reused across ReadFrame calls.
	header [HeaderLen]byte
}

// NewSession wraps stream in a Session.
func NewSession(stream Stream, opts ...SessionOption) *Session {
	o := defaultSessionOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Session{stream: stream, opts: o}
}

// Stream returns the underlying transport connection.
func (s *Session) Stream() Stream { return s.stream }

// Close closes the underlying Stream.
func (s *Session) Close() error { return s.stream.Close() }

func (s *Session) resyncBudget() int {
	if s.opts.ResyncBudget > 0 {
		return s.opts.ResyncBudget
	}
	if s.opts.ReadLimit > 0 {
		return s.opts.ReadLimit
	}
	return 1 << 20 // conservative default: 1 MiB of garbage before giving up
}

// waitOnceOnWouldBlock returns whether the caller should retry after an
// iox.ErrWouldBlock, and performs the configured wait.
func (s *Session) waitOnceOnWouldBlock() bool {
	switch {
	case s.opts.RetryDelay < 0:
		return false
	case s.opts.RetryDelay == 0:
		runtime.Gosched()
		return true
	default:
		time.Sleep(s.opts.RetryDelay)
		return true
	}
}

// readFull reads exactly len(p) bytes, retrying on iox.ErrWouldBlock per
// the session's RetryDelay policy and preserving already-copied bytes
// across retries (the caller always passes the same underlying slice).
func (s *Session) readFull(p []byte) error {
	off := 0
	for off < len(p) {
		n, err := s.stream.Read(p[off:])
		if n > 0 {
			off += n
		}
		if err != nil {
			if err == ErrWouldBlock || err == ErrMore {
				if off == len(p) {
					return nil
				}
				if !s.waitOnceOnWouldBlock() {
					return err
				}
				continue
			}
			if err == io.EOF {
				if off == 0 {
					return io.EOF
				}
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n == 0 && err == nil {
			return io.ErrNoProgress
		}
	}
	return nil
}

func (s *Session) writeFull(p []byte) error {
	off := 0
	for off < len(p) {
		n, err := s.stream.Write(p[off:])
		if n > 0 {
			off += n
		}
		if err != nil {
			if err == ErrWouldBlock || err == ErrMore {
				if off == len(p) {
					return nil
				}
				if !s.waitOnceOnWouldBlock() {
					return err
				}
				continue
			}
			return err
		}
		if n == 0 {
			// A zero-byte, nil-error write on a non-empty buffer means
			// the peer is gone (spec.md §4.2).
			return io.ErrClosedPipe
		}
	}
	return nil
}

// ReadFrame reads one frame, resynchronizing on the magic marker if the
// stream is out of phase (spec.md invariant (i)).
func (s *Session) ReadFrame() (Frame, error) {
	budget := s.resyncBudget()

	if err := s.readFull(s.header[:]); err != nil {
		return Frame{}, err
	}
	for binary.BigEndian.Uint16(s.header[0:2]) != Magic {
		// Resync: discard one byte and refill, bounded by budget.
		budget--
		if budget < 0 {
			return Frame{}, ErrProtocol
		}
		copy(s.header[:HeaderLen-1], s.header[1:HeaderLen])
		if err := s.readFull(s.header[HeaderLen-1:]); err != nil {
			return Frame{}, err
		}
	}

	h := DecodeHeader(s.header)

	if s.opts.ReadLimit > 0 && int(h.PayloadLen) > s.opts.ReadLimit {
		return Frame{}, ErrTooLong
	}

	var payload []byte
	if h.PayloadLen > 0 {
		payload = make([]byte, h.PayloadLen)
		if err := s.readFull(payload); err != nil {
			return Frame{}, err
		}
	}

	return Frame{Type: h.Type, ObjID: h.ObjID, Payload: payload}, nil
}

// WriteFrame writes one frame: header then payload.
func (s *Session) WriteFrame(f Frame) error {
	if len(f.Payload) > 1<<16-1 {
		return ErrTooLong
	}
	h := Header{Magic: Magic, PayloadLen: uint16(len(f.Payload)), Type: f.Type, ObjID: f.ObjID}
	var buf [HeaderLen]byte
	h.Encode(&buf)
	if err := s.writeFull(buf[:]); err != nil {
		return err
	}
	if len(f.Payload) == 0 {
		return nil
	}
	return s.writeFull(f.Payload)
}
