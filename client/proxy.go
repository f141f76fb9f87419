// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
)

// releaseMethod mirrors the server package's reserved method name for
// tearing down a registry entry (spec.md §8 scenario S5). Kept as an
// unexported duplicate rather than a cross-package import: it is part
// of the wire contract between client and server, not server-internal
// detail.
const releaseMethod = "__release__"

// Proxy is a remote object handle bound to (Client, object id), per
// spec.md §4.6. All proxies minted from the same Client share its
// session and lock.
type Proxy struct {
	client *Client
	objID  uint16
}

// ObjectID returns the remote object id this proxy addresses.
func (p *Proxy) ObjectID() uint16 { return p.objID }

// Call sends a REQUEST and drives the reply state machine to
// completion, returning the post-processed result or a *RemoteError /
// protocol error (spec.md §4.6 steps 1-3). The result is a codec.Value
// for any ordinary reply, or a *Proxy when the server returned an
// ObjectReference (spec.md §4.6 "payload post-processing").
func (p *Proxy) Call(ctx context.Context, method string, args ...codec.Value) (any, error) {
	if isForbidden(method) {
		return nil, fmt.Errorf("%w: %s", ErrForbiddenMethod, method)
	}

	p.client.lock.Lock()
	defer p.client.lock.Unlock()

	if err := p.send(ctx, romp.MsgRequest, method, args); err != nil {
		return nil, err
	}
	v, err := p.driveReply(ctx, method, nil)
	if err != nil {
		return nil, err
	}
	if isScrubbedList(method) {
		if arr, ok := v.(codec.Array); ok {
			v = scrubMethodList(arr)
		}
	}
	return p.postProcess(v), nil
}

// CallBlock sends a REQUEST_BLOCK and drives the reply state machine,
// invoking onYield once per YIELD frame delivered before the
// terminating RETVAL/EXCEPTION (spec.md §3's rendezvous iterator).
func (p *Proxy) CallBlock(ctx context.Context, method string, onYield func(codec.Value) error, args ...codec.Value) (any, error) {
	if isForbidden(method) {
		return nil, fmt.Errorf("%w: %s", ErrForbiddenMethod, method)
	}

	p.client.lock.Lock()
	defer p.client.lock.Unlock()

	if err := p.send(ctx, romp.MsgRequestBlock, method, args); err != nil {
		return nil, err
	}
	v, err := p.driveReply(ctx, method, onYield)
	if err != nil {
		return nil, err
	}
	return p.postProcess(v), nil
}

// Oneway sends a single ONEWAY frame and returns without waiting for
// any reply (spec.md §4.6 step 4).
func (p *Proxy) Oneway(ctx context.Context, method string, args ...codec.Value) error {
	if isForbidden(method) {
		return fmt.Errorf("%w: %s", ErrForbiddenMethod, method)
	}
	p.client.lock.Lock()
	defer p.client.lock.Unlock()
	return p.send(ctx, romp.MsgOneway, method, args)
}

// OnewaySync sends an ONEWAY_SYNC frame and waits for exactly one
// NULL_MSG acknowledgement before returning (spec.md §4.6 step 5): the
// call is guaranteed to have been accepted by the dispatch loop (though
// not yet necessarily completed) once this returns.
func (p *Proxy) OnewaySync(ctx context.Context, method string, args ...codec.Value) error {
	if isForbidden(method) {
		return fmt.Errorf("%w: %s", ErrForbiddenMethod, method)
	}
	p.client.lock.Lock()
	defer p.client.lock.Unlock()

	if err := p.send(ctx, romp.MsgOnewaySync, method, args); err != nil {
		return err
	}
	frame, err := p.client.sess.ReadFrame()
	if err != nil {
		return err
	}
	if frame.Type != romp.MsgNull {
		return fmt.Errorf("%w: expected NULL_MSG after oneway_sync, got %s", romp.ErrProtocol, frame.Type)
	}
	return nil
}

// Sync performs the rendezvous of spec.md §4.6 step 6: send SYNC/0,
// block for SYNC/1, discarding any other frame that arrives first (the
// base design's documented behavior). Unlike the reference
// implementation's compound wait condition (DESIGN.md, open question
// (b)), this is a plain two-step handshake that can genuinely fail.
func (p *Proxy) Sync(ctx context.Context) error {
	p.client.lock.Lock()
	defer p.client.lock.Unlock()

	if err := p.client.sess.WriteFrame(romp.Frame{Type: romp.MsgSync, ObjID: romp.SyncRequest}); err != nil {
		return err
	}
	for {
		if err := ctxErr(ctx); err != nil {
			// The SYNC/1 reply would otherwise arrive during a later call.
			p.client.sess.Close()
			return fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}
		frame, err := p.client.sess.ReadFrame()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyncFailed, err)
		}
		if frame.Type == romp.MsgSync && frame.ObjID == romp.SyncReply {
			return nil
		}
		// Stray frame while waiting for the rendezvous reply: discarded,
		// per spec.md §4.6 step 6.
	}
}

// Release invokes the reserved release method, triggering the server's
// delete_reference for this proxy's object id (spec.md §8 scenario S5).
// The proxy must not be used afterward.
func (p *Proxy) Release(ctx context.Context) error {
	_, err := p.Call(ctx, releaseMethod)
	return err
}

// send encodes method and args as a call payload and writes one frame
// of the given type naming this proxy's object id.
func (p *Proxy) send(ctx context.Context, typ romp.MsgType, method string, args []codec.Value) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	payload, err := p.client.cfg.codec.Encode(codec.Args(method, args...))
	if err != nil {
		return fmt.Errorf("client: encode call %q: %w", method, err)
	}
	return p.client.sess.WriteFrame(romp.Frame{Type: typ, ObjID: p.objID, Payload: payload})
}

// driveReply runs the reply state machine of spec.md §4.6 step 3 until
// a terminating RETVAL or EXCEPTION arrives. onYield, if non-nil,
// receives every YIELD payload in order (the REQUEST_BLOCK variant).
func (p *Proxy) driveReply(ctx context.Context, method string, onYield func(codec.Value) error) (codec.Value, error) {
	for {
		if err := ctxErr(ctx); err != nil {
			p.client.sess.Close()
			return nil, err
		}

		frame, err := p.client.sess.ReadFrame()
		if err != nil {
			return nil, err
		}

		switch frame.Type {
		case romp.MsgRetval:
			return p.client.cfg.codec.Decode(frame.Payload)
		case romp.MsgException:
			v, decErr := p.client.cfg.codec.Decode(frame.Payload)
			if decErr != nil {
				return nil, fmt.Errorf("client: decode exception for %q: %w", method, decErr)
			}
			exc, ok := v.(codec.Exception)
			if !ok {
				return nil, fmt.Errorf("client: exception reply for %q had unexpected payload type %T", method, v)
			}
			return nil, newRemoteError(exc, localTrace())
		case romp.MsgYield:
			v, decErr := p.client.cfg.codec.Decode(frame.Payload)
			if decErr != nil {
				return nil, fmt.Errorf("client: decode yield for %q: %w", method, decErr)
			}
			if onYield == nil {
				return nil, fmt.Errorf("%w: unexpected YIELD for non-block call %q", romp.ErrProtocol, method)
			}
			if cbErr := onYield(v); cbErr != nil {
				return nil, cbErr
			}
		case romp.MsgSync:
			if frame.ObjID == romp.SyncRequest {
				if err := p.client.sess.WriteFrame(romp.Frame{Type: romp.MsgSync, ObjID: romp.SyncReply}); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: unsolicited SYNC reply during %q", romp.ErrProtocol, method)
		default:
			return nil, fmt.Errorf("%w: unexpected message type %s while waiting for reply to %q", romp.ErrProtocol, frame.Type, method)
		}
	}
}

// postProcess rewrites a server-held ObjectReference into a new proxy
// bound to the same client (spec.md §4.6 "payload post-processing").
// Every other value passes through unchanged.
func (p *Proxy) postProcess(v codec.Value) any {
	ref, ok := v.(codec.ObjectReference)
	if !ok {
		return v
	}
	return &Proxy{client: p.client, objID: ref.ObjectID}
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// localTrace captures the caller's stack so a RemoteError's backtrace
// can concatenate the server's trace with the client's own, per
// spec.md §4.6 step 3 / §7.
func localTrace() []string {
	stack := string(debug.Stack())
	lines := strings.SplitN(stack, "\n", 9)
	if len(lines) > 8 {
		stack = strings.Join(lines[8:], "\n")
	}
	return strings.Split(stack, "\n")
}
