// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// Stream is a connected, bidirectional byte transport: a TCP
// connection, a Unix domain stream socket, or (best-effort) a UDP
// socket wrapper. It is the thing a Session frames messages over.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	// SetDeadline arranges for pending and future I/O to fail with a
	// timeout error after t. A zero t clears the deadline.
	SetDeadline(t time.Time) error
}

// Acceptor listens for incoming connections on one Endpoint.
type Acceptor interface {
	// Accept blocks until a peer connects or ctx is done, and returns
	// the resulting Stream.
	Accept(ctx context.Context) (Stream, error)
	Addr() net.Addr
	Close() error
}

// Listen starts listening on ep and returns an Acceptor. Bind failures
// are transport errors (wrapped *net.OpError).
func Listen(ep Endpoint) (Acceptor, error) {
	switch ep.Kind {
	case KindTCP:
		return listenTCP(ep)
	case KindUnix:
		return listenUnix(ep)
	case KindDatagram:
		return listenDatagram(ep)
	default:
		return nil, fmt.Errorf("%w: unsupported endpoint kind for Listen", ErrInvalidEndpoint)
	}
}

// Dial connects to ep and returns the resulting Stream. Connect
// failures are transport errors (wrapped *net.OpError). Dial rejects an
// empty host with ErrEmptyHost; an empty host only means "listen on all
// interfaces" server-side.
func Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	if ep.Kind != KindUnix && ep.Host == "" {
		return nil, ErrEmptyHost
	}
	switch ep.Kind {
	case KindTCP:
		return dialTCP(ctx, ep)
	case KindUnix:
		return dialUnix(ctx, ep)
	case KindDatagram:
		return dialDatagram(ctx, ep)
	default:
		return nil, fmt.Errorf("%w: unsupported endpoint kind for Dial", ErrInvalidEndpoint)
	}
}
