package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oriys/conduit/internal/notify"
	"github.com/spf13/cobra"
)

// recvCmd prints the most recently mirrored value, optionally blocking
// until a wake signal arrives (or a timeout elapses) when the mirror is
// currently empty or --follow is set.
func recvCmd() *cobra.Command {
	var follow bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Read the most recently sent value from the Redis mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := redis.NewClient(&redis.Options{Addr: redisAddr})
			defer client.Close()

			mirror := notify.NewMirror(client, "conduit:serve:latest", time.Hour)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			var value string
			ok, err := mirror.Fetch(ctx, &value)
			if err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			if ok && !follow {
				fmt.Println(value)
				return nil
			}

			signaler := notify.NewRedisSignaler(client)
			defer signaler.Close()
			waitCh := signaler.Listen(ctx, "conduit:serve")

			select {
			case <-waitCh:
				if ok, err := mirror.Fetch(ctx, &value); err == nil && ok {
					fmt.Println(value)
				}
			case <-ctx.Done():
				return fmt.Errorf("timed out waiting for a value")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Wait for the next signaled value even if one is already mirrored")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for a value before giving up")
	return cmd
}
