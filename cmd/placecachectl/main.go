// Command placecachectl is the operator CLI for the place cache API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

const defaultAddr = "http://localhost:8080"

// rootOptions holds the flags shared by every subcommand
type rootOptions struct {
	addr    string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.addr, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "placecachectl",
		Short:         "Inspect and manage a running place cache API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addr := os.Getenv("PLACECACHE_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", addr, "base URL of the place cache API (env PLACECACHE_ADDR)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newSearchCmd(opts),
		newCacheCmd(opts),
		newHealthCmd(opts),
	)

	return root
}
