// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/codec"
	"code.hybscloud.com/romp/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ROMP server in the foreground",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ep, err := romp.ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("rompd: %w", err)
	}

	srv := server.New(ep, server.WithLogger(log), server.WithDebug(cfg.Debug))
	server.Bind(srv, &echoObject{}, "echo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Warn("rompd: metrics server error")
			}
		}()
		defer metricsSrv.Close()
		log.WithField("addr", cfg.MetricsAddr).Info("rompd: metrics listening")
	}

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("rompd: shutdown signal received")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serveDone
	case err := <-serveDone:
		return err
	}
}

// echoObject is rompd's built-in smoke-test object, bound at "echo":
// the S1 scenario's Foo, used by rompbench's echo workload.
type echoObject struct{}

func (echoObject) Invoke(method string, args codec.Array) (codec.Value, error) {
	if method != "echo" || len(args) != 1 {
		return nil, fmt.Errorf("rompd: echo object has no method %q", method)
	}
	return args[0], nil
}
