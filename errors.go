// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "errors"

var (
	// ErrInvalidEndpoint reports a malformed endpoint URI or an
	// unsupported scheme. It is a configuration error: synchronous and
	// fatal to the call that produced it.
	ErrInvalidEndpoint = errors.New("romp: invalid endpoint")

	// ErrEmptyHost reports a client-side Dial against an endpoint whose
	// host is empty. An empty host is only meaningful for Listen ("all
	// interfaces").
	ErrEmptyHost = errors.New("romp: empty host is not valid for dial")

	// ErrTooLong reports a frame whose payload length exceeds the
	// session's configured read limit.
	ErrTooLong = errors.New("romp: message too long")

	// ErrProtocol reports a fatal session-level protocol violation: bad
	// magic that could not be resynchronized within the configured
	// budget, an unrecognized message type, or a reply inconsistent with
	// the requester's state machine. The server's dispatch loop ends and
	// closes the session after this error; the client returns it to the
	// caller and does not close its session itself.
	ErrProtocol = errors.New("romp: protocol error")

	// ErrClosed reports use of a session or acceptor after it was
	// closed.
	ErrClosed = errors.New("romp: use of closed session")
)
