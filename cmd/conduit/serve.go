package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oriys/conduit/internal/circuitbreaker"
	"github.com/oriys/conduit/internal/logging"
	"github.com/oriys/conduit/internal/metrics"
	"github.com/oriys/conduit/internal/notify"
	"github.com/oriys/conduit/internal/ratelimit"
	"github.com/oriys/conduit/internal/runtime"
	"github.com/oriys/conduit/internal/tracing"
	"github.com/oriys/conduit/internal/workerpool"
	"github.com/spf13/cobra"
)

// serveCmd wires the reference pipeline: stdin lines become messages on an
// UnboundedBuffer behind an optionally rate-limited front door, a worker
// pool (adaptive when configured) drains the buffer, and each message is
// broadcast, through an optional circuit breaker, to a console target and
// an OverwriteBuffer. With the redis notifier backend, each stdin line is
// also mirrored to Redis so a separate `conduit recv` can observe the
// latest value.
func serveCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference messaging pipeline, reading lines from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http") {
				cfg.Metrics.Addr = httpAddr
			}
			if cmd.Flags().Changed("redis") {
				cfg.Notifier.RedisAddr = redisAddr
				cfg.RateLimit.RedisAddr = redisAddr
			}

			logging.InitStructured(cfg.Logging.Format, cfg.Logging.Level)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := tracing.Init(ctx, tracing.Config{
				Enabled:     cfg.Tracing.Enabled,
				Endpoint:    cfg.Tracing.Endpoint,
				ServiceName: cfg.Tracing.ServiceName,
				SampleRate:  cfg.Tracing.SampleRate,
			}); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer tracing.Shutdown(context.Background())

			if cfg.Metrics.Enabled {
				metrics.InitPrometheus(cfg.Metrics.Namespace, nil)
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", metrics.PrometheusHandler())
					logging.Op().Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
					if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
						logging.Op().Error("metrics server stopped", "error", err)
					}
				}()
			}

			source := runtime.NewUnboundedBuffer[string]()
			latest := runtime.NewOverwriteBuffer[string]()
			console := consoleTarget{}
			broadcast := runtime.NewBroadcastNode[string](console, latest)
			metrics.SetBroadcastFanout("serve:fanout", broadcast.TargetCount())

			var sink runtime.Target[string] = broadcast
			sink = metrics.Instrument[string](sink, "serve:broadcast")
			sink = tracing.Trace[string](sink, "serve:broadcast")

			if cfg.CircuitBreaker.Enabled {
				breaker := circuitbreaker.New(circuitbreaker.Config{
					ErrorPct:       cfg.CircuitBreaker.ErrorPct,
					WindowDuration: cfg.CircuitBreaker.WindowDuration,
					OpenDuration:   cfg.CircuitBreaker.OpenDuration,
					HalfOpenProbes: cfg.CircuitBreaker.HalfOpenProbes,
				})
				sink = circuitbreaker.NewGuardedTarget[string](sink, breaker)
			}

			var ingress runtime.Target[string] = source
			if cfg.RateLimit.Enabled {
				client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
				defer client.Close()
				limiter := ratelimit.New(client, nil, ratelimit.TierConfig{
					RequestsPerSecond: cfg.RateLimit.DefaultRPS,
					BurstSize:         cfg.RateLimit.DefaultBurst,
				})
				ingress = ratelimit.NewTarget[string](source, limiter, ratelimit.KeyForChannel("stdin"), "default")
			}

			pool := workerpool.New[string](source, func(ctx context.Context, msg runtime.Message[string]) error {
				runtime.Send(ctx, sink, msg.Payload())
				return nil
			}, workerpool.Config{
				Workers:   cfg.WorkerPool.Workers,
				DepthPoll: cfg.WorkerPool.DepthPoll,
				Adaptive: workerpool.AdaptiveConfig{
					Enabled:         cfg.WorkerPool.AdaptiveEnabled,
					MinWorkers:      cfg.WorkerPool.MinWorkers,
					MaxWorkers:      cfg.WorkerPool.MaxWorkers,
					MinPollInterval: cfg.WorkerPool.MinPollInterval,
					MaxPollInterval: cfg.WorkerPool.MaxPollInterval,
				},
			})
			pool.Start()
			defer pool.Stop()

			var mirror *notify.Mirror
			if cfg.Notifier.Backend == "redis" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Notifier.RedisAddr})
				defer client.Close()
				mirror = notify.NewMirror(client, "conduit:serve:latest", time.Hour)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					line := scanner.Text()
					correlationID := logging.NewCorrelationID()

					start := time.Now()
					status := runtime.Send(ctx, ingress, line)
					logging.Default().Log(&logging.MessageLog{
						CorrelationID: correlationID,
						Buffer:        "serve:ingress",
						Op:            "accept",
						Status:        status.String(),
						DurationUs:    time.Since(start).Microseconds(),
					})

					if mirror != nil {
						mirror.Publish(ctx, line)
					}
				}
			}()

			logging.Op().Info("conduit serve started")
			<-sigCh
			logging.Op().Info("shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", ":9090", "Address for the Prometheus /metrics endpoint")
	return cmd
}

type consoleTarget struct{}

func (consoleTarget) Accept(ctx context.Context, m runtime.Message[string]) runtime.Status {
	fmt.Println(m.Payload())
	return runtime.Accepted
}
