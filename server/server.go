// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package server implements the ROMP per-connection dispatch loop and
// the registered-object server (spec.md §4.5): it accepts connections,
// reads one frame at a time, resolves the target object in its
// registry, performs the requested interaction, and replies.
package server

import (
	"context"
	"net"
	"sync"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// Server owns one registry and accepts connections on one Endpoint,
// spawning one dispatch loop per accepted session (spec.md §4.5, §5).
type Server struct {
	ep  romp.Endpoint
	cfg *config
	reg *registry.Registry

	metrics serverMetrics

	mu        sync.Mutex
	acceptor  romp.Acceptor
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type serverMetrics struct {
	sessionsActive prometheus.Gauge
	framesTotal    *prometheus.CounterVec
	dispatchErrors prometheus.Counter
}

// New creates a Server bound to ep. The resolver object (spec.md §4.4)
// is registered at id 0 immediately.
func New(ep romp.Endpoint, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, fn := range opts {
		fn(cfg)
	}

	reg := registry.New(registry.WithMetrics(cfg.registerer, cfg.namespace))
	s := &Server{
		ep:      ep,
		cfg:     cfg,
		reg:     reg,
		closing: make(chan struct{}),
	}
	reg.RegisterResolver(&resolverObject{reg: reg})
	s.initMetrics()
	return s
}

func (s *Server) initMetrics() {
	s.metrics.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: s.cfg.namespace,
		Name:      "sessions_active",
		Help:      "Number of currently connected sessions.",
	})
	s.metrics.framesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: s.cfg.namespace,
		Name:      "frames_total",
		Help:      "Frames processed by the dispatch loop, by message type.",
	}, []string{"type"})
	s.metrics.dispatchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: s.cfg.namespace,
		Name:      "dispatch_errors_total",
		Help:      "Errors surfaced as EXCEPTION replies.",
	})
	if s.cfg.registerer != nil {
		s.cfg.registerer.MustRegister(s.metrics.sessionsActive, s.metrics.framesTotal, s.metrics.dispatchErrors)
	}
}

// Registry returns the server's object registry, for application code
// that wants to call Ref/Unref/Bind directly instead of through the
// package-level helpers.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Addr returns the server's actual bound address once Serve has
// started listening, or nil beforehand. Useful when the configured
// Endpoint asks for an ephemeral port (Port: 0).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptor == nil {
		return nil
	}
	return s.acceptor.Addr()
}

// Serve listens on the server's endpoint and runs the accept loop until
// ctx is done or Shutdown is called. It returns nil on a clean
// shutdown.
func (s *Server) Serve(ctx context.Context) error {
	acceptor, err := romp.Listen(s.ep)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.acceptor = acceptor
	s.mu.Unlock()

	s.cfg.logger.WithField("endpoint", s.ep.String()).Info("romp: server listening")

	for {
		stream, err := acceptor.Accept(ctx)
		if err != nil {
			select {
			case <-s.closing:
				return nil
			case <-ctx.Done():
				return nil
			default:
				s.cfg.logger.WithError(err).Warn("romp: accept error")
				continue
			}
		}

		if s.cfg.predicate != nil && !s.cfg.predicate(stream.RemoteAddr()) {
			stream.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.metrics.sessionsActive.Inc()
			defer s.metrics.sessionsActive.Dec()
			sess := romp.NewSession(stream, s.cfg.sessionOptions...)
			defer sess.Close()
			s.dispatchLoop(sess, stream.RemoteAddr())
		}()
	}
}

// Shutdown stops accepting new connections and waits (bounded by ctx)
// for in-flight dispatch loops to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	s.mu.Lock()
	acceptor := s.acceptor
	s.mu.Unlock()

	if acceptor != nil {
		acceptor.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
