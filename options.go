// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "time"

// SessionOptions configures a Session's blocking policy and resource
// limits.
type SessionOptions struct {
	// ReadLimit caps the maximum payload size (bytes) a Session will
	// accept before returning ErrTooLong. Zero means no limit.
	ReadLimit int

	// RetryDelay controls how a Session reacts to iox.ErrWouldBlock from
	// the underlying Stream:
	//   - negative: non-blocking; return ErrWouldBlock immediately
	//   - zero: cooperative yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	//
	// The default is zero. Client proxies set cooperative blocking
	// explicitly (WithBlock) so a call simply waits; server sessions use
	// whatever server.WithSessionOptions supplies, which is the zero
	// default unless configured.
	RetryDelay time.Duration

	// ResyncBudget bounds how many bytes a Session will discard while
	// hunting for the magic marker after a header fails to parse. Zero
	// means the session falls back to the configured ReadLimit (or, if
	// that is also zero, a conservative default).
	ResyncBudget int
}

var defaultSessionOptions = SessionOptions{
	ReadLimit:    0,
	RetryDelay:   0,
	ResyncBudget: 0,
}

// SessionOption configures a SessionOptions value.
type SessionOption func(*SessionOptions)

// WithReadLimit caps the maximum frame payload size a Session accepts.
func WithReadLimit(limit int) SessionOption {
	return func(o *SessionOptions) { o.ReadLimit = limit }
}

// WithResyncBudget bounds the number of bytes discarded while resyncing
// on a bad magic marker.
func WithResyncBudget(n int) SessionOption {
	return func(o *SessionOptions) { o.ResyncBudget = n }
}

// WithRetryDelay sets the wait policy used when the underlying Stream
// signals iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) SessionOption {
	return func(o *SessionOptions) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on
// iox.ErrWouldBlock. This is the client proxy's default.
func WithBlock() SessionOption {
	return func(o *SessionOptions) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior: a Session returns
// ErrWouldBlock immediately instead of retrying.
func WithNonblock() SessionOption {
	return func(o *SessionOptions) { o.RetryDelay = -1 }
}
