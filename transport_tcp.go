// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"net"
	"strconv"
)

type tcpAcceptor struct {
	ln *net.TCPListener
}

func listenTCP(ep Endpoint) (Acceptor, error) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP(ep.Host), Port: ep.Port})
	if err != nil {
		return nil, err
	}
	return &tcpAcceptor{ln: ln}, nil
}

func (a *tcpAcceptor) Accept(ctx context.Context) (Stream, error) {
	type result struct {
		conn *net.TCPConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := a.ln.AcceptTCP()
		ch <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		// Disable Nagle coalescing: ROMP frames are small and latency
		// sensitive, per spec.
		if err := r.conn.SetNoDelay(true); err != nil {
			r.conn.Close()
			return nil, err
		}
		return r.conn, nil
	}
}

func (a *tcpAcceptor) Addr() net.Addr { return a.ln.Addr() }
func (a *tcpAcceptor) Close() error   { return a.ln.Close() }

func dialTCP(ctx context.Context, ep Endpoint) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)))
	if err != nil {
		return nil, err
	}
	tc := conn.(*net.TCPConn)
	if err := tc.SetNoDelay(true); err != nil {
		tc.Close()
		return nil, err
	}
	return tc, nil
}
