// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec_test

import (
	"testing"

	"code.hybscloud.com/romp/codec"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v codec.Value) codec.Value {
	t.Helper()
	c := codec.NewMsgpackCodec()
	b, err := c.Encode(v)
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	return got
}

func TestRoundTrip_Scalars(t *testing.T) {
	require.Equal(t, codec.Nil{}, roundTrip(t, codec.Nil{}))
	require.Equal(t, codec.Bool(true), roundTrip(t, codec.Bool(true)))
	require.Equal(t, codec.Int64(-42), roundTrip(t, codec.Int64(-42)))
	require.Equal(t, codec.Str("hello"), roundTrip(t, codec.Str("hello")))
	require.Equal(t, codec.Bytes("raw"), roundTrip(t, codec.Bytes("raw")))
}

func TestRoundTrip_Array(t *testing.T) {
	in := codec.Args("foo", codec.Int64(1), codec.Str("x"), codec.Bool(false))
	got := roundTrip(t, in)
	require.Equal(t, in, got)
}

func TestRoundTrip_Map(t *testing.T) {
	in := codec.Map{"a": codec.Int64(1), "b": codec.Str("two")}
	got := roundTrip(t, in)
	require.Equal(t, in, got)
}

func TestRoundTrip_ObjectReference(t *testing.T) {
	in := codec.ObjectReference{ObjectID: 7}
	got := roundTrip(t, in)
	require.Equal(t, in, got, "an ObjectReference must decode back as a distinguished value, not a generic map")
}

func TestRoundTrip_Exception(t *testing.T) {
	in := codec.Exception{Class: "RuntimeError", Message: "boom", Backtrace: []string{"a.go:1", "b.go:2"}}
	got := roundTrip(t, in)
	require.Equal(t, in, got)
}

func TestRoundTrip_Nested(t *testing.T) {
	in := codec.Array{
		codec.ObjectReference{ObjectID: 3},
		codec.Map{"nested": codec.Array{codec.Str("deep")}},
	}
	got := roundTrip(t, in)
	require.Equal(t, in, got)
}

func TestException_Error(t *testing.T) {
	e := codec.Exception{Class: "ArgumentError", Message: "bad arg"}
	require.Equal(t, "ArgumentError: bad arg", e.Error())

	bare := codec.Exception{Message: "no class"}
	require.Equal(t, "no class", bare.Error())
}
