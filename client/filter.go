// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import "code.hybscloud.com/romp/codec"

// Method-name filtering (spec.md §4.6): names with intrinsic local
// semantics that would be misleading or actively wrong on a proxy
// bound to a remote object.
var forbiddenMethods = map[string]struct{}{
	"clone":   {},
	"dup":     {},
	"display": {},
}

// scrubbedListMethods name calls whose RETVAL is a list of method names
// that must have forbidden entries stripped before it reaches the
// caller.
var scrubbedListMethods = map[string]struct{}{
	"methods":         {},
	"private_methods": {},
	"public_methods":  {},
}

// forcedPassthroughMethods name calls that a host language would
// normally answer from a local default (inspecting the proxy object
// itself) but which must instead be forwarded to the remote object.
var forcedPassthroughMethods = map[string]struct{}{
	"inspect":            {},
	"to_s":               {},
	"to_a":               {},
	"instance_variables": {},
}

func isForbidden(method string) bool {
	_, ok := forbiddenMethods[method]
	return ok
}

func isScrubbedList(method string) bool {
	_, ok := scrubbedListMethods[method]
	return ok
}

// isForcedPassthrough reports whether method is in
// forcedPassthroughMethods. Nothing in this package calls it:
// Proxy.Call forwards every non-forbidden method, so the set only
// records which names must never be answered locally.
func isForcedPassthrough(method string) bool {
	_, ok := forcedPassthroughMethods[method]
	return ok
}

// scrubMethodList removes forbidden names from a method-list RETVAL.
func scrubMethodList(arr codec.Array) codec.Array {
	out := make(codec.Array, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(codec.Str); ok && isForbidden(string(s)) {
			continue
		}
		out = append(out, v)
	}
	return out
}
