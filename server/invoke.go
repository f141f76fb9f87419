// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import "code.hybscloud.com/romp/codec"

// Invokable is implemented by every object registered with a Server. It
// is the statically typed stand-in spec.md §9's design notes describe
// for targets without first-class dynamic dispatch: "expose this as a
// single call(method_name, args…) → value plus optional code-generated
// typed stubs".
type Invokable interface {
	// Invoke runs method with args and returns its result, or an error
	// (which dispatch turns into an EXCEPTION reply, spec.md §4.5 step
	// 4). A codec.Exception returned as the error is sent as-is; any
	// other error becomes an Exception whose class is its Go type name.
	Invoke(method string, args codec.Array) (codec.Value, error)
}

// BlockInvokable is an optional extension for objects that support
// REQUEST_BLOCK calls (spec.md §3's taxonomy, §9's "rendezvous
// iterator"). yield is called once per block argument the method
// produces; each call blocks until the corresponding YIELD frame has
// been written, and the server worker resumes executing user code
// immediately afterward without waiting for any client acknowledgement.
type BlockInvokable interface {
	InvokeBlock(method string, args codec.Array, yield func(codec.Value) error) (codec.Value, error)
}

// errNoBlockSupport is returned by dispatch when a REQUEST_BLOCK names
// an object that does not implement BlockInvokable.
type errNoBlockSupport struct{ method string }

func (e *errNoBlockSupport) Error() string {
	return "server: object does not support block-yielding calls (method " + e.method + ")"
}
