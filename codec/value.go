// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package codec implements the ROMP value codec: a bijection between a
// bounded value domain (nil, booleans, integers, strings, byte strings,
// arrays, maps, remote object references, and exceptions) and a byte
// string, per spec.md §4.3.
//
// The codec is a black box to the rest of the module: Session and the
// dispatch/proxy layers only ever see the encoded bytes as a frame's
// payload. The concrete implementation, MsgpackCodec, is built on
// github.com/vmihailenco/msgpack/v5.
package codec

import "fmt"

// Value is the sealed set of wire value kinds ROMP can carry. Every
// concrete type below implements it.
type Value interface {
	isValue()
}

// Nil is the unit value.
type Nil struct{}

func (Nil) isValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) isValue() {}

// Int64 is a signed 64-bit integer value.
type Int64 int64

func (Int64) isValue() {}

// Str is a UTF-8 string value.
type Str string

func (Str) isValue() {}

// Bytes is an opaque byte string value.
type Bytes []byte

func (Bytes) isValue() {}

// Array is an ordered sequence of values; the call payload
// `[method_symbol, arg1, …]` of spec.md §3 is one of these.
type Array []Value

func (Array) isValue() {}

// Map is a string-keyed value map. The abstract domain in spec.md §4.3
// allows arbitrary value keys; ROMP restricts keys to strings, since
// Go's map key type must be comparable and most of Value's concrete
// types (Array, Bytes, Map itself) are not — see DESIGN.md.
type Map map[string]Value

func (Map) isValue() {}

// ObjectReference is the distinguished wire value spec.md §3 calls "a
// distinguished wire value `{ object_id: u16 }`": a server-held object,
// handed to the client to be converted into a proxy on receipt.
type ObjectReference struct {
	ObjectID uint16
}

func (ObjectReference) isValue() {}

// Exception is an application-defined thrown value: a class name, a
// message, and a backtrace (spec.md §4.3's "application-defined
// exception values with message and backtrace accessors").
type Exception struct {
	Class     string
	Message   string
	Backtrace []string
}

func (Exception) isValue() {}

// Error implements the error interface so an Exception can be returned
// and compared like any other Go error.
func (e Exception) Error() string {
	if e.Class == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// Args builds an Array of the form `[method, arg1, …]`, the call
// payload shape of spec.md §3.
func Args(method string, args ...Value) Array {
	a := make(Array, 0, len(args)+1)
	a = append(a, Str(method))
	return append(a, args...)
}
