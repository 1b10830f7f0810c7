package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oriys/conduit/internal/logging"
	"github.com/oriys/conduit/internal/notify"
	"github.com/spf13/cobra"
)

// sendCmd publishes a value into the Redis-backed mirror that `conduit
// recv` reads, and optionally fires a wake signal so a blocked recv
// returns immediately instead of waiting out its --timeout.
func sendCmd() *cobra.Command {
	var signal bool

	cmd := &cobra.Command{
		Use:   "send <value...>",
		Short: "Publish a value to the Redis mirror for manual exercising",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := redis.NewClient(&redis.Options{Addr: redisAddr})
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			mirror := notify.NewMirror(client, "conduit:serve:latest", time.Hour)
			value := strings.Join(args, " ")
			correlationID := logging.NewCorrelationID()
			if err := mirror.Publish(ctx, value); err != nil {
				return fmt.Errorf("publish: %w", err)
			}

			if signal {
				notify.NewRedisSignaler(client).Signal(ctx, "conduit:serve")
			}

			fmt.Printf("sent [%s]: %s\n", correlationID, value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&signal, "signal", true, "Also fire a wake signal on the conduit:serve channel")
	return cmd
}
