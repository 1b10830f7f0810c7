// Command conduit drives the async messaging runtime: a demo pipeline
// (serve) and a pair of Redis-backed manual exercise commands (send, recv)
// for poking at a running instance from another shell.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/oriys/conduit/internal/config"
	"github.com/spf13/cobra"
)

var (
	redisAddr  string
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "conduit",
		Short: "conduit - async messaging runtime",
		Long:  "conduit wires buffers, nodes, and the worker pool into a runnable pipeline",
	}

	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "localhost:6379", "Redis address for the notifier/mirror/rate-limiter backends")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON or YAML config file (optional, flags and env override)")

	rootCmd.AddCommand(
		serveCmd(),
		sendCmd(),
		recvCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the conduit version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("conduit dev")
			return nil
		},
	}
}

// loadConfig builds the effective config from defaults, an optional file,
// and CONDUIT_* environment overrides, in that order.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		var err error
		switch {
		case strings.HasSuffix(configFile, ".yaml"), strings.HasSuffix(configFile, ".yml"):
			cfg, err = config.LoadFromYAML(configFile)
		default:
			cfg, err = config.LoadFromFile(configFile)
		}
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}
