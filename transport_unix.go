// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"net"
)

type unixAcceptor struct {
	ln *net.UnixListener
}

func listenUnix(ep Endpoint) (Acceptor, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: ep.Path, Net: "unix"})
	if err != nil {
		return nil, err
	}
	return &unixAcceptor{ln: ln}, nil
}

func (a *unixAcceptor) Accept(ctx context.Context) (Stream, error) {
	type result struct {
		conn *net.UnixConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := a.ln.AcceptUnix()
		ch <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	}
}

func (a *unixAcceptor) Addr() net.Addr { return a.ln.Addr() }
func (a *unixAcceptor) Close() error   { return a.ln.Close() }

func dialUnix(ctx context.Context, ep Endpoint) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", ep.Path)
	if err != nil {
		return nil, err
	}
	return conn.(*net.UnixConn), nil
}
