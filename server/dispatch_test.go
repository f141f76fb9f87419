// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"fmt"
	"net"
	"sync"
	"testing"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
	"github.com/stretchr/testify/require"
)

// echoObject implements Invokable and BlockInvokable for the scenarios
// in spec.md §8: an "echo" request, a one-way "add" accumulator, and a
// block-yielding "each" that streams its argument list back before
// returning a count.
type echoObject struct {
	mu    sync.Mutex
	total int64
}

func (o *echoObject) Invoke(method string, args codec.Array) (codec.Value, error) {
	switch method {
	case "echo":
		if len(args) != 1 {
			return nil, fmt.Errorf("echo takes exactly one argument")
		}
		return args[0], nil
	case "add":
		n, ok := args[0].(codec.Int64)
		if !ok {
			return nil, fmt.Errorf("add takes one integer argument")
		}
		o.mu.Lock()
		o.total += int64(n)
		o.mu.Unlock()
		return codec.Nil{}, nil
	case "total":
		o.mu.Lock()
		defer o.mu.Unlock()
		return codec.Int64(o.total), nil
	case "boom":
		panic("application panic")
	default:
		return nil, fmt.Errorf("no such method %q", method)
	}
}

func (o *echoObject) InvokeBlock(method string, args codec.Array, yield func(codec.Value) error) (codec.Value, error) {
	if method != "each" {
		return nil, &errNoBlockSupport{method: method}
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

// newTestServer wires an echoObject into a fresh Server registry and
// drives one dispatch loop over an in-memory net.Pipe, returning the
// client side of the pipe wrapped as a romp.Session, the Server, and
// the registered object's id.
func newTestServer(t *testing.T) (sess *romp.Session, s *Server, id uint16) {
	t.Helper()
	client, srvConn := net.Pipe()
	t.Cleanup(func() { client.Close() })

	s = New(romp.Endpoint{}, WithMetricsRegisterer(nil))
	obj := &echoObject{}
	id, err := s.reg.Register(obj)
	require.NoError(t, err)
	require.NotZero(t, id)

	srvSess := romp.NewSession(srvConn)
	go s.dispatchLoop(srvSess, srvConn.RemoteAddr())

	return romp.NewSession(client), s, id
}

func call(t *testing.T, sess *romp.Session, typ romp.MsgType, objID uint16, method string, args ...codec.Value) romp.Frame {
	t.Helper()
	payload, err := codec.Default.Encode(codec.Args(method, args...))
	require.NoError(t, err)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: typ, ObjID: objID, Payload: payload}))
	reply, err := sess.ReadFrame()
	require.NoError(t, err)
	return reply
}

func decode(t *testing.T, payload []byte) codec.Value {
	t.Helper()
	v, err := codec.Default.Decode(payload)
	require.NoError(t, err)
	return v
}

func TestDispatch_Echo(t *testing.T) {
	sess, _, id := newTestServer(t)

	reply := call(t, sess, romp.MsgRequest, id, "echo", codec.Str("hi"))
	require.Equal(t, romp.MsgRetval, reply.Type)
	require.Equal(t, codec.Str("hi"), decode(t, reply.Payload))
}

func TestDispatch_OnewayAccumulator(t *testing.T) {
	sess, _, id := newTestServer(t)

	payload, err := codec.Default.Encode(codec.Args("add", codec.Int64(2)))
	require.NoError(t, err)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: romp.MsgOneway, ObjID: id, Payload: payload}))

	payload, err = codec.Default.Encode(codec.Args("add", codec.Int64(3)))
	require.NoError(t, err)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: romp.MsgOneway, ObjID: id, Payload: payload}))

	reply := call(t, sess, romp.MsgRequest, id, "total")
	require.Equal(t, romp.MsgRetval, reply.Type)
	require.Equal(t, codec.Int64(5), decode(t, reply.Payload))
}

func TestDispatch_OnewaySyncAcksBeforeRunning(t *testing.T) {
	sess, _, id := newTestServer(t)

	payload, err := codec.Default.Encode(codec.Args("add", codec.Int64(7)))
	require.NoError(t, err)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: romp.MsgOnewaySync, ObjID: id, Payload: payload}))

	ack, err := sess.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, romp.MsgNull, ack.Type)

	reply := call(t, sess, romp.MsgRequest, id, "total")
	require.Equal(t, codec.Int64(7), decode(t, reply.Payload))
}

func TestDispatch_RequestBlockYields(t *testing.T) {
	sess, _, id := newTestServer(t)

	payload, err := codec.Default.Encode(codec.Args("each", codec.Array{codec.Int64(1), codec.Int64(2), codec.Int64(3)}))
	require.NoError(t, err)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: romp.MsgRequestBlock, ObjID: id, Payload: payload}))

	for want := 1; want <= 3; want++ {
		frame, err := sess.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, romp.MsgYield, frame.Type)
		require.Equal(t, codec.Int64(want), decode(t, frame.Payload))
	}

	final, err := sess.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, romp.MsgRetval, final.Type)
	require.Equal(t, codec.Int64(3), decode(t, final.Payload))
}

func TestDispatch_ExceptionOnPanic(t *testing.T) {
	sess, _, id := newTestServer(t)

	reply := call(t, sess, romp.MsgRequest, id, "boom")
	require.Equal(t, romp.MsgException, reply.Type)

	v := decode(t, reply.Payload)
	exc, ok := v.(codec.Exception)
	require.True(t, ok)
	require.Equal(t, "panic", exc.Class)
	require.NotEmpty(t, exc.Backtrace)
}

func TestDispatch_UnknownObjectIsException(t *testing.T) {
	sess, _, _ := newTestServer(t)
	reply := call(t, sess, romp.MsgRequest, 65000, "echo", codec.Nil{})
	require.Equal(t, romp.MsgException, reply.Type)
}

func TestDispatch_Release(t *testing.T) {
	sess, s, id := newTestServer(t)

	reply := call(t, sess, romp.MsgRequest, id, releaseMethod)
	require.Equal(t, romp.MsgRetval, reply.Type)

	_, ok := s.reg.Get(id)
	require.False(t, ok, "release must unregister the object id")
}

func TestDispatch_Sync(t *testing.T) {
	sess, _, _ := newTestServer(t)
	require.NoError(t, sess.WriteFrame(romp.Frame{Type: romp.MsgSync, ObjID: romp.SyncRequest}))

	reply, err := sess.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, romp.MsgSync, reply.Type)
	require.Equal(t, romp.SyncReply, reply.ObjID)
}
