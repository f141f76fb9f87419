// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import "code.hybscloud.com/romp/codec"

// Ref registers obj in s's registry (if it is not already registered)
// and returns a wire ObjectReference to it. Application methods call
// this explicitly when they want to hand a server-side object back to
// the client as a proxy instead of by value (spec.md §4.5
// "return-value shaping").
func Ref(s *Server, obj Invokable) codec.ObjectReference {
	if id, ok := s.reg.LookupID(obj); ok {
		return codec.ObjectReference{ObjectID: id}
	}
	id, err := s.reg.Register(obj)
	if err != nil {
		// Registration only fails once the id space is exhausted; the
		// caller will see this surface as an EXCEPTION on the next call
		// that touches the registry. There is no id to hand back, so
		// the reserved resolver id is returned as a sentinel "this
		// failed" value; callers that care should use s.Registry()
		// directly and handle the error.
		return codec.ObjectReference{ObjectID: registryResolverID}
	}
	return codec.ObjectReference{ObjectID: id}
}

// Unref removes obj from s's registry (spec.md's "delete_reference").
// Subsequent calls naming its id receive an EXCEPTION for unknown
// object id.
func Unref(s *Server, obj Invokable) {
	s.reg.Unregister(obj)
}

// Bind names obj so that clients can reach it via the resolver's
// "resolve" method.
func Bind(s *Server, obj Invokable, name string) {
	id, ok := s.reg.LookupID(obj)
	if !ok {
		id, _ = s.reg.Register(obj)
	}
	s.reg.Bind(name, id)
}

const registryResolverID = 0
