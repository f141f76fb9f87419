// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
	"github.com/sirupsen/logrus"
)

type config struct {
	synchronized   bool
	logger         logrus.FieldLogger
	codec          codec.Codec
	sessionOptions []romp.SessionOption
}

func defaultConfig() *config {
	return &config{
		synchronized: true,
		logger:       logrus.StandardLogger(),
		codec:        codec.Default,
	}
}

// Option configures a Client at construction.
type Option func(*config)

// WithSynchronized selects the proxy's locking mode (spec.md §4.6
// "synchronization modes"): true (the default) installs a real mutex
// around every call a proxy makes over the shared session; false
// installs a no-op lock, trading safety under concurrent callers for
// roughly 20% more throughput.
func WithSynchronized(synchronized bool) Option {
	return func(c *config) { c.synchronized = synchronized }
}

// WithLogger overrides the client's structured logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.logger = l }
}

// WithCodec overrides the value codec. Defaults to codec.Default.
func WithCodec(cd codec.Codec) Option {
	return func(c *config) { c.codec = cd }
}

// WithSessionOptions passes through romp.SessionOption values to the
// client's session. Clients default to cooperative blocking
// (romp.WithBlock) so a call simply waits for its reply.
func WithSessionOptions(opts ...romp.SessionOption) Option {
	return func(c *config) { c.sessionOptions = append(c.sessionOptions, opts...) }
}
