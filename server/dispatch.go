// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
	"code.hybscloud.com/romp/registry"
	"github.com/sirupsen/logrus"
)

// releaseMethod is a reserved method name handled directly by dispatch
// rather than by the target object: it implements the client-visible
// Proxy.Release (spec.md §8 scenario S5), tearing down the registry
// entry for the call's own object id.
const releaseMethod = "__release__"

// dispatchLoop runs the per-connection loop of spec.md §4.5: read one
// frame, resolve its object, perform the requested interaction, reply,
// repeat until disconnect or a fatal error.
func (s *Server) dispatchLoop(sess *romp.Session, peer net.Addr) {
	log := s.cfg.logger.WithField("peer", peer.String())

	for {
		frame, err := sess.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.WithError(err).Debug("romp: session ended")
			}
			return
		}
		s.metrics.framesTotal.WithLabelValues(frame.Type.String()).Inc()

		if frame.Type == romp.MsgSync {
			s.handleSync(sess, frame, log)
			continue
		}

		obj, ok := s.reg.Get(frame.ObjID)
		if !ok {
			if frame.Type == romp.MsgRequest || frame.Type == romp.MsgRequestBlock {
				s.replyExceptionValue(sess, fmt.Errorf("%w %d", registry.ErrUnknownObject, frame.ObjID))
				continue
			}
			if frame.Type == romp.MsgOnewaySync {
				if err := sess.WriteFrame(romp.Frame{Type: romp.MsgNull}); err != nil {
					log.WithError(err).Debug("romp: failed to ack oneway_sync")
					return
				}
			}
			if s.cfg.debug {
				log.Warnf("romp: one-way call on unknown object %d discarded", frame.ObjID)
			}
			continue
		}

		switch frame.Type {
		case romp.MsgRequest:
			s.handleRequest(sess, obj, frame)
		case romp.MsgRequestBlock:
			s.handleRequestBlock(sess, obj, frame)
		case romp.MsgOneway:
			s.handleOneway(obj, frame)
		case romp.MsgOnewaySync:
			if err := sess.WriteFrame(romp.Frame{Type: romp.MsgNull}); err != nil {
				log.WithError(err).Debug("romp: failed to ack oneway_sync")
				return
			}
			s.handleOneway(obj, frame)
		default:
			log.Warnf("romp: unknown message type %#x, closing session", uint16(frame.Type))
			return
		}
	}
}

func (s *Server) handleSync(sess *romp.Session, frame romp.Frame, log logrus.FieldLogger) {
	if frame.ObjID == romp.SyncRequest {
		if err := sess.WriteFrame(romp.Frame{Type: romp.MsgSync, ObjID: romp.SyncReply}); err != nil {
			log.WithError(err).Debug("romp: failed to reply to sync")
		}
		return
	}
	// A SYNC with ObjID == SyncReply arriving unsolicited is spurious
	// and ignored (spec.md §4.6 step 6).
}

func (s *Server) decodeCall(frame romp.Frame) (method string, args codec.Array, err error) {
	v, err := s.cfg.codec.Decode(frame.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("server: decode call: %w", err)
	}
	arr, ok := v.(codec.Array)
	if !ok || len(arr) == 0 {
		return "", nil, fmt.Errorf("server: call payload must be a non-empty array")
	}
	m, ok := arr[0].(codec.Str)
	if !ok {
		return "", nil, fmt.Errorf("server: call method must be a string")
	}
	return string(m), arr[1:], nil
}

func (s *Server) handleRequest(sess *romp.Session, obj any, frame romp.Frame) {
	result, err := s.invoke(obj, frame)
	if err != nil {
		s.replyExceptionValue(sess, err)
		return
	}
	s.replyRetval(sess, result)
}

func (s *Server) handleRequestBlock(sess *romp.Session, obj any, frame romp.Frame) {
	method, args, err := s.decodeCall(frame)
	if err != nil {
		s.replyExceptionValue(sess, err)
		return
	}
	bi, ok := obj.(BlockInvokable)
	if !ok {
		s.replyExceptionValue(sess, &errNoBlockSupport{method: method})
		return
	}

	yield := func(v codec.Value) error {
		payload, err := s.cfg.codec.Encode(v)
		if err != nil {
			return err
		}
		return sess.WriteFrame(romp.Frame{Type: romp.MsgYield, Payload: payload})
	}

	result, invokeErr := s.safeInvokeBlock(bi, method, args, yield)
	if invokeErr != nil {
		s.replyExceptionValue(sess, invokeErr)
		return
	}
	s.replyRetval(sess, result)
}

func (s *Server) handleOneway(obj any, frame romp.Frame) {
	_, err := s.invoke(obj, frame)
	if err != nil && s.cfg.debug {
		s.cfg.logger.WithError(err).Warn("romp: one-way call error (debug mode)")
	}
}

// invoke decodes the call and runs it, special-casing the reserved
// release method and recovering application panics.
func (s *Server) invoke(obj any, frame romp.Frame) (result codec.Value, err error) {
	method, args, err := s.decodeCall(frame)
	if err != nil {
		return nil, err
	}
	if method == releaseMethod {
		s.reg.UnregisterID(frame.ObjID)
		return codec.Nil{}, nil
	}

	inv, ok := obj.(Invokable)
	if !ok {
		return nil, fmt.Errorf("server: object %d is not invokable", frame.ObjID)
	}
	return s.safeInvoke(inv, method, args)
}

func (s *Server) safeInvoke(inv Invokable, method string, args codec.Array) (result codec.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r)
		}
	}()
	return inv.Invoke(method, args)
}

func (s *Server) safeInvokeBlock(bi BlockInvokable, method string, args codec.Array, yield func(codec.Value) error) (result codec.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r)
		}
	}()
	return bi.InvokeBlock(method, args, yield)
}

func panicToError(r any) error {
	// Trim the recover/dispatch frames off the stack so only
	// application frames remain, per spec.md §4.5 step 4 and §7.
	// The first nine lines are the goroutine header and the
	// debug.Stack, panicToError, deferred recover and runtime panic
	// frames; everything from the first safeInvoke frame on is dispatch.
	lines := strings.Split(string(debug.Stack()), "\n")
	if len(lines) > 9 {
		lines = lines[9:]
	}
	for i, line := range lines {
		if strings.Contains(line, "server.(*Server).safeInvoke") {
			lines = lines[:i]
			break
		}
	}
	return codec.Exception{
		Class:     "panic",
		Message:   fmt.Sprint(r),
		Backtrace: lines,
	}
}

func (s *Server) replyRetval(sess *romp.Session, v codec.Value) {
	if v == nil {
		v = codec.Nil{}
	}
	payload, err := s.cfg.codec.Encode(v)
	if err != nil {
		s.replyExceptionValue(sess, err)
		return
	}
	sess.WriteFrame(romp.Frame{Type: romp.MsgRetval, Payload: payload})
}

func (s *Server) replyExceptionValue(sess *romp.Session, err error) {
	s.metrics.dispatchErrors.Inc()
	exc := toException(err)
	payload, encErr := s.cfg.codec.Encode(exc)
	if encErr != nil {
		// Codec itself is broken; nothing more we can do for this call.
		return
	}
	sess.WriteFrame(romp.Frame{Type: romp.MsgException, Payload: payload})
}

func toException(err error) codec.Exception {
	var exc codec.Exception
	if errors.As(err, &exc) {
		return exc
	}
	return codec.Exception{Class: fmt.Sprintf("%T", err), Message: err.Error()}
}
