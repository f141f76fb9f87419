// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"code.hybscloud.com/romp"
	"code.hybscloud.com/romp/client"
	"code.hybscloud.com/romp/codec"
	"github.com/spf13/cobra"
)

func newEchoCmd() *cobra.Command {
	var (
		endpoint    string
		concurrency int
		requests    int
	)
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Hammer a server's \"echo\" object with REQUEST calls and report latency percentiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := romp.ParseEndpoint(endpoint)
			if err != nil {
				return err
			}
			return runEchoBench(ep, concurrency, requests)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "tcpromp://127.0.0.1:9736", "server endpoint URI")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "number of concurrent clients")
	cmd.Flags().IntVar(&requests, "requests", 10000, "total number of echo calls to issue")
	return cmd
}

func runEchoBench(ep romp.Endpoint, concurrency, total int) error {
	perWorker := total / concurrency
	if perWorker == 0 {
		perWorker = 1
	}

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, total)
		wg        sync.WaitGroup
		firstErr  error
	)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := context.Background()
			c, err := client.NewClient(ctx, ep)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			defer c.Close()

			foo, err := c.Resolve(ctx, "echo")
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			local := make([]time.Duration, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				start := time.Now()
				if _, err := foo.Call(ctx, "echo", codec.Int64(int64(i))); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				local = append(local, time.Since(start))
			}

			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	fmt.Printf("requests: %d, concurrency: %d\n", len(latencies), concurrency)
	fmt.Printf("p50: %v\n", percentile(latencies, 0.50))
	fmt.Printf("p90: %v\n", percentile(latencies, 0.90))
	fmt.Printf("p99: %v\n", percentile(latencies, 0.99))
	return nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
