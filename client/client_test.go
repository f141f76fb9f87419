// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/client"
	"code.hybscloud.com/romp/codec"
	"code.hybscloud.com/romp/server"
	"github.com/stretchr/testify/require"
)

// fooObject backs spec.md §8 scenarios S1 (echo), S2 (one-way
// accumulator), and S3 (block-yielding each).
type fooObject struct {
	mu    sync.Mutex
	stash int64
}

func (f *fooObject) Invoke(method string, args codec.Array) (codec.Value, error) {
	switch method {
	case "echo":
		return args[0], nil
	case "stash":
		n, ok := args[0].(codec.Int64)
		if !ok {
			return nil, fmt.Errorf("stash takes one integer argument")
		}
		f.mu.Lock()
		f.stash = int64(n)
		f.mu.Unlock()
		return codec.Nil{}, nil
	case "stashed":
		f.mu.Lock()
		defer f.mu.Unlock()
		return codec.Int64(f.stash), nil
	default:
		return nil, fmt.Errorf("no such method %q", method)
	}
}

func (f *fooObject) InvokeBlock(method string, args codec.Array, yield func(codec.Value) error) (codec.Value, error) {
	if method != "each" {
		return nil, fmt.Errorf("no such block method %q", method)
	}
	arr, ok := args[0].(codec.Array)
	if !ok {
		return nil, fmt.Errorf("each takes one array argument")
	}
	for _, v := range arr {
		if err := yield(v); err != nil {
			return nil, err
		}
	}
	return codec.Int64(len(arr)), nil
}

// startTestServer listens on an ephemeral loopback TCP port, binds a
// fooObject at name "foo", and returns its endpoint once ready.
func startTestServer(t *testing.T) romp.Endpoint {
	t.Helper()
	srv := server.New(romp.Endpoint{Kind: romp.KindTCP, Host: "127.0.0.1", Port: 0}, server.WithMetricsRegisterer(nil))
	server.Bind(srv, &fooObject{}, "foo")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a := srv.Addr(); a != nil {
			tcpAddr := a.(*net.TCPAddr)
			return romp.Endpoint{Kind: romp.KindTCP, Host: "127.0.0.1", Port: tcpAddr.Port}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("server did not start listening in time")
	return romp.Endpoint{}
}

func dial(t *testing.T, ep romp.Endpoint) *client.Client {
	t.Helper()
	c, err := client.NewClient(context.Background(), ep)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Echo(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	v, err := foo.Call(context.Background(), "echo", codec.Int64(42))
	require.NoError(t, err)
	require.Equal(t, codec.Int64(42), v)
}

func TestClient_OnewayAccumulatorThenSync(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	require.NoError(t, foo.Oneway(context.Background(), "stash", codec.Int64(1)))
	require.NoError(t, foo.Oneway(context.Background(), "stash", codec.Int64(2)))
	require.NoError(t, foo.Sync(context.Background()))

	v, err := foo.Call(context.Background(), "stashed")
	require.NoError(t, err)
	require.Equal(t, codec.Int64(2), v)
}

func TestClient_OnewaySync(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	require.NoError(t, foo.OnewaySync(context.Background(), "stash", codec.Int64(9)))

	v, err := foo.Call(context.Background(), "stashed")
	require.NoError(t, err)
	require.Equal(t, codec.Int64(9), v)
}

func TestClient_CallBlockYields(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	var got []codec.Value
	final, err := foo.CallBlock(context.Background(), "each", func(v codec.Value) error {
		got = append(got, v)
		return nil
	}, codec.Array{codec.Int64(1), codec.Int64(2), codec.Int64(3)})
	require.NoError(t, err)
	require.Equal(t, codec.Int64(3), final)
	require.Equal(t, []codec.Value{codec.Int64(1), codec.Int64(2), codec.Int64(3)}, got)
}

func TestClient_ExceptionSurfacesAsRemoteError(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	_, err = foo.Call(context.Background(), "no_such_method")
	require.Error(t, err)
	var remoteErr *client.RemoteError
	require.ErrorAs(t, err, &remoteErr)
}

func TestClient_ForbiddenMethodNeverCrossesWire(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	_, err = foo.Call(context.Background(), "clone")
	require.ErrorIs(t, err, client.ErrForbiddenMethod)
}

func TestClient_Release(t *testing.T) {
	ep := startTestServer(t)
	c := dial(t, ep)

	foo, err := c.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	require.NoError(t, foo.Release(context.Background()))

	_, err = foo.Call(context.Background(), "stashed")
	require.Error(t, err)
}
