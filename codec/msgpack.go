// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Extension type ids used to round-trip ROMP's two distinguished value
// kinds through a generic msgpack interface{} tree. Chosen from the
// application-reserved range (0-127) and not shared with any other
// convention in this module.
const (
	extObjectReference int8 = 1
	extException       int8 = 2
)

func init() {
	msgpack.RegisterExt(extObjectReference, (*ObjectReference)(nil))
	msgpack.RegisterExt(extException, (*Exception)(nil))
}

// MarshalBinary implements encoding.BinaryMarshaler so ObjectReference
// round-trips as a msgpack extension type instead of a generic map,
// satisfying spec.md §4.3's "must recognize a distinguished
// remote-object-reference value".
func (r ObjectReference) MarshalBinary() ([]byte, error) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, r.ObjectID)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *ObjectReference) UnmarshalBinary(b []byte) error {
	if len(b) != 2 {
		return fmt.Errorf("codec: object reference payload must be 2 bytes, got %d", len(b))
	}
	r.ObjectID = binary.BigEndian.Uint16(b)
	return nil
}

type exceptionWire struct {
	Class     string
	Message   string
	Backtrace []string
}

// MarshalBinary implements encoding.BinaryMarshaler for Exception.
func (e Exception) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(exceptionWire{Class: e.Class, Message: e.Message, Backtrace: e.Backtrace})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Exception.
func (e *Exception) UnmarshalBinary(b []byte) error {
	var w exceptionWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return err
	}
	e.Class, e.Message, e.Backtrace = w.Class, w.Message, w.Backtrace
	return nil
}

// MsgpackCodec is the default Codec implementation, built on
// github.com/vmihailenco/msgpack/v5.
type MsgpackCodec struct{}

// NewMsgpackCodec returns a ready-to-use MsgpackCodec.
func NewMsgpackCodec() *MsgpackCodec { return &MsgpackCodec{} }

// Encode implements Codec.
func (MsgpackCodec) Encode(v Value) ([]byte, error) {
	g, err := toGeneric(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	b, err := msgpack.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return b, nil
}

// Decode implements Codec.
func (MsgpackCodec) Decode(b []byte) (Value, error) {
	var g interface{}
	if err := msgpack.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	v, err := fromGeneric(g)
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return v, nil
}

// toGeneric flattens a Value tree into the plain Go values msgpack
// already knows how to marshal (nil, bool, int64, string, []byte,
// []interface{}, map[string]interface{}), leaving ObjectReference and
// Exception as themselves so the registered extension codecs handle
// them.
func toGeneric(v Value) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Nil:
		return nil, nil
	case Bool:
		return bool(t), nil
	case Int64:
		return int64(t), nil
	case Str:
		return string(t), nil
	case Bytes:
		return []byte(t), nil
	case Array:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			g, err := toGeneric(elem)
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case Map:
		out := make(map[string]interface{}, len(t))
		for k, elem := range t {
			g, err := toGeneric(elem)
			if err != nil {
				return nil, err
			}
			out[k] = g
		}
		return out, nil
	case ObjectReference:
		return t, nil
	case Exception:
		return t, nil
	default:
		return nil, fmt.Errorf("codec: unsupported value type %T", v)
	}
}

// fromGeneric rebuilds a Value tree from msgpack's generic decode
// result.
func fromGeneric(g interface{}) (Value, error) {
	switch t := g.(type) {
	case nil:
		return Nil{}, nil
	case bool:
		return Bool(t), nil
	case int8:
		return Int64(t), nil
	case int16:
		return Int64(t), nil
	case int32:
		return Int64(t), nil
	case int64:
		return Int64(t), nil
	case uint8:
		return Int64(t), nil
	case uint16:
		return Int64(t), nil
	case uint32:
		return Int64(t), nil
	case uint64:
		return Int64(t), nil
	case int:
		return Int64(t), nil
	case string:
		return Str(t), nil
	case []byte:
		return Bytes(t), nil
	case []interface{}:
		out := make(Array, len(t))
		for i, elem := range t {
			v, err := fromGeneric(elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]interface{}:
		out := make(Map, len(t))
		for k, elem := range t {
			v, err := fromGeneric(elem)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case ObjectReference:
		return t, nil
	case *ObjectReference:
		return *t, nil
	case Exception:
		return t, nil
	case *Exception:
		return *t, nil
	default:
		return nil, fmt.Errorf("codec: undecodable value of type %T", g)
	}
}
