// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "encoding/binary"

// Magic precedes every frame header. Readers resynchronize on it when a
// header fails to parse at the expected offset.
const Magic uint16 = 0x4242

// HeaderLen is the fixed size, in bytes, of a frame header.
const HeaderLen = 8

// MsgType identifies the kind of frame on the wire.
type MsgType uint16

const (
	// MsgRequest is a client->server call expecting exactly one
	// terminating reply (RETVAL or EXCEPTION).
	MsgRequest MsgType = 0x1001
	// MsgRequestBlock is like MsgRequest but the caller expects zero or
	// more YIELD frames before the terminating reply.
	MsgRequestBlock MsgType = 0x1002
	// MsgOneway is a client->server call with no reply at all.
	MsgOneway MsgType = 0x1003
	// MsgOnewaySync is a one-way call acknowledged by a single NULL_MSG
	// frame before the server begins executing it.
	MsgOnewaySync MsgType = 0x1004

	// MsgRetval carries a method's return value. obj_id is always 0.
	MsgRetval MsgType = 0x2001
	// MsgException carries an exception value raised by a method. obj_id
	// is always 0.
	MsgException MsgType = 0x2002
	// MsgYield carries one block argument during a REQUEST_BLOCK call.
	// obj_id is always 0.
	MsgYield MsgType = 0x2003

	// MsgSync is a round-trip no-op: obj_id 0 marks a request, obj_id 1
	// marks the matching response.
	MsgSync MsgType = 0x4001
	// MsgNull acknowledges a ONEWAY_SYNC call before execution begins.
	MsgNull MsgType = 0x4002
)

func (t MsgType) String() string {
	switch t {
	case MsgRequest:
		return "REQUEST"
	case MsgRequestBlock:
		return "REQUEST_BLOCK"
	case MsgOneway:
		return "ONEWAY"
	case MsgOnewaySync:
		return "ONEWAY_SYNC"
	case MsgRetval:
		return "RETVAL"
	case MsgException:
		return "EXCEPTION"
	case MsgYield:
		return "YIELD"
	case MsgSync:
		return "SYNC"
	case MsgNull:
		return "NULL_MSG"
	default:
		return "UNKNOWN"
	}
}

// SyncRequest and SyncReply are the two obj_id values a MsgSync frame
// can carry.
const (
	SyncRequest uint16 = 0
	SyncReply   uint16 = 1
)

// ResolverObjectID is the well-known id of the server's name resolver.
// It is never returned by Registry.Register and never appears in a
// registry's free-id set.
const ResolverObjectID uint16 = 0

// MaxObjectID is the largest id a registry can hand out (65 536 objects
// total, including the reserved resolver at id 0).
const MaxObjectID uint16 = 65535

// Header is the fixed-size prefix of every frame.
type Header struct {
	Magic      uint16
	PayloadLen uint16
	Type       MsgType
	ObjID      uint16
}

// Encode writes h into an 8-byte big-endian buffer.
func (h Header) Encode(buf *[HeaderLen]byte) {
	binary.BigEndian.PutUint16(buf[0:2], h.Magic)
	binary.BigEndian.PutUint16(buf[2:4], h.PayloadLen)
	binary.BigEndian.PutUint16(buf[4:6], uint16(h.Type))
	binary.BigEndian.PutUint16(buf[6:8], h.ObjID)
}

// DecodeHeader parses an 8-byte big-endian buffer into a Header. The
// caller is responsible for checking Magic before trusting the rest of
// the fields.
func DecodeHeader(buf [HeaderLen]byte) Header {
	return Header{
		Magic:      binary.BigEndian.Uint16(buf[0:2]),
		PayloadLen: binary.BigEndian.Uint16(buf[2:4]),
		Type:       MsgType(binary.BigEndian.Uint16(buf[4:6])),
		ObjID:      binary.BigEndian.Uint16(buf[6:8]),
	}
}

// Frame is a fully decoded message: header plus its codec-encoded
// payload bytes.
type Frame struct {
	Type    MsgType
	ObjID   uint16
	Payload []byte
}
