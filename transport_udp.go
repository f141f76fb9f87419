// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Datagram transport is documented weak (spec.md §4.1, §9(c)): a single
// UDP socket backs every peer, there is no connection lifecycle, no
// retransmission, and no per-peer framing beyond "one packet is one
// read". It exists for completeness, not for production use.

type datagramAcceptor struct {
	pc *net.UDPConn
}

func listenDatagram(ep Endpoint) (Acceptor, error) {
	pc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(ep.Host), Port: ep.Port})
	if err != nil {
		return nil, err
	}
	return &datagramAcceptor{pc: pc}, nil
}

// Accept reads one packet to learn a peer's address, then returns a
// virtual per-peer Stream backed by the same shared socket. Because UDP
// is connectionless, nothing detects a peer going away; the caller
// discovers this only when frame I/O stalls or errors.
func (a *datagramAcceptor) Accept(ctx context.Context) (Stream, error) {
	type result struct {
		n    int
		addr *net.UDPAddr
		err  error
	}
	buf := make([]byte, 65507)
	ch := make(chan result, 1)
	go func() {
		n, addr, err := a.pc.ReadFromUDP(buf)
		ch <- result{n, addr, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return &datagramStream{pc: a.pc, peer: r.addr, pending: append([]byte(nil), buf[:r.n]...)}, nil
	}
}

func (a *datagramAcceptor) Addr() net.Addr { return a.pc.LocalAddr() }
func (a *datagramAcceptor) Close() error   { return a.pc.Close() }

// datagramStream adapts one peer's slice of a shared UDP socket to the
// Stream interface. Reads/writes are whole-packet passthrough: no
// framing is layered underneath by this type, matching spec.md's "known
// weak... best-effort with no per-peer framing".
type datagramStream struct {
	pc      *net.UDPConn
	peer    *net.UDPAddr
	pending []byte
}

func (s *datagramStream) Read(p []byte) (int, error) {
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}
	for {
		n, addr, err := s.pc.ReadFromUDP(p)
		if err != nil {
			return n, err
		}
		if addr.IP.Equal(s.peer.IP) && addr.Port == s.peer.Port {
			return n, nil
		}
		// Packet from a different peer on the shared socket: drop it.
		// This is the "known weak" part of datagram transport.
	}
}

func (s *datagramStream) Write(p []byte) (int, error) {
	return s.pc.WriteToUDP(p, s.peer)
}

func (s *datagramStream) Close() error               { return nil } // shared socket, nothing to close per-peer
func (s *datagramStream) LocalAddr() net.Addr        { return s.pc.LocalAddr() }
func (s *datagramStream) RemoteAddr() net.Addr       { return s.peer }
func (s *datagramStream) SetDeadline(t time.Time) error { return s.pc.SetDeadline(t) }

func dialDatagram(ctx context.Context, ep Endpoint) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)))
	if err != nil {
		return nil, err
	}
	return conn.(*net.UDPConn), nil
}
