// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"fmt"

	"code.hybscloud.com/romp/codec"
	"code.hybscloud.com/romp/registry"
)

// resolverObject is the well-known object registered at id 0 (spec.md
// §4.4): it exposes a single method, "resolve", that looks a bound name
// up in the registry. Clients bootstrap by creating their first proxy
// against id 0 and calling it exclusively through this method.
type resolverObject struct {
	reg *registry.Registry
}

func (r *resolverObject) Invoke(method string, args codec.Array) (codec.Value, error) {
	if method != "resolve" {
		return nil, fmt.Errorf("server: resolver has no method %q", method)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("server: resolve takes exactly one argument, got %d", len(args))
	}
	name, ok := args[0].(codec.Str)
	if !ok {
		return nil, fmt.Errorf("server: resolve argument must be a string")
	}
	id, ok := r.reg.Resolve(string(name))
	if !ok {
		return nil, fmt.Errorf("server: no object bound to name %q", name)
	}
	return codec.ObjectReference{ObjectID: id}, nil
}
