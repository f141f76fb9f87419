// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

// Codec serializes a Value graph into a byte string and deserializes it
// back (spec.md §4.3). Any implementation satisfying round-tripping —
// decode(encode(v)) == v, except that an ObjectReference decoded on the
// client side is converted into a live proxy — is a valid Codec; ROMP
// references it by interface only.
type Codec interface {
	Encode(Value) ([]byte, error)
	Decode([]byte) (Value, error)
}

// Default is the package-wide default Codec, used by server and client
// construction when no Codec option is supplied.
var Default Codec = NewMsgpackCodec()
