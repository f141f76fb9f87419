// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"net"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Predicate decides whether an accepted peer is allowed to proceed
// (spec.md §4.5, §6 "acceptor: (peer) → bool | nil"). A nil Predicate
// accepts every peer.
type Predicate func(addr net.Addr) bool

type config struct {
	predicate      Predicate
	debug          bool
	logger         logrus.FieldLogger
	codec          codec.Codec
	registerer     prometheus.Registerer
	namespace      string
	sessionOptions []romp.SessionOption
}

func defaultConfig() *config {
	return &config{
		logger:     logrus.StandardLogger(),
		codec:      codec.Default,
		registerer: prometheus.DefaultRegisterer,
		namespace:  "romp_server",
	}
}

// Option configures a Server at construction.
type Option func(*config)

// WithPredicate installs a connection-acceptance predicate. Rejected
// peers are closed immediately without any session being created.
func WithPredicate(p Predicate) Option {
	return func(c *config) { c.predicate = p }
}

// WithDebug enables printing one-way call errors locally instead of
// silently discarding them (spec.md §7).
func WithDebug(debug bool) Option {
	return func(c *config) { c.debug = debug }
}

// WithLogger overrides the server's structured logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.logger = l }
}

// WithCodec overrides the value codec. Defaults to codec.Default.
func WithCodec(cd codec.Codec) Option {
	return func(c *config) { c.codec = cd }
}

// WithMetricsRegisterer overrides the Prometheus registerer used for
// this server's metrics. Passing nil disables metrics registration.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithMetricsNamespace sets the Prometheus metric namespace prefix.
func WithMetricsNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithSessionOptions passes through romp.SessionOption values (read
// limits, resync budget, retry policy) to every accepted session.
func WithSessionOptions(opts ...romp.SessionOption) Option {
	return func(c *config) { c.sessionOptions = append(c.sessionOptions, opts...) }
}
