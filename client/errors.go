// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"errors"
	"strings"

	"code.hybscloud.com/romp/codec"
)

// ErrForbiddenMethod reports a call naming a method in the proxy's
// forbidden set (spec.md §4.6 "method-name filtering"). The call never
// reaches the network.
var ErrForbiddenMethod = errors.New("client: method is forbidden on a remote proxy")

// ErrSyncFailed reports that Proxy.Sync did not observe a SYNC/1 reply
// before the session ended or the call's context expired.
var ErrSyncFailed = errors.New("client: sync failed")

// RemoteError is the client-side re-raising of a server EXCEPTION reply
// (spec.md §4.6 step 3, §7): its backtrace is the server's trace
// followed by the caller's own, so a stitched trace crosses the wire
// naturally.
type RemoteError struct {
	Class     string
	Message   string
	Backtrace []string
}

func (e *RemoteError) Error() string {
	if e.Class == "" {
		return e.Message
	}
	return e.Class + ": " + e.Message
}

func newRemoteError(exc codec.Exception, localTrace []string) *RemoteError {
	bt := make([]string, 0, len(exc.Backtrace)+len(localTrace))
	bt = append(bt, exc.Backtrace...)
	bt = append(bt, localTrace...)
	return &RemoteError{Class: exc.Class, Message: exc.Message, Backtrace: bt}
}

func (e *RemoteError) String() string {
	return e.Error() + "\n" + strings.Join(e.Backtrace, "\n")
}
