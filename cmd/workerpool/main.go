// Command workerpool is the CLI/setup glue that embeds a queue.Manager per
// configured pool, registers each in the pool registry, and starts the
// introspection HTTP surface and tracing exporter.
//
// Follows the cmd/lind command tree shape: newXCmd() *cobra.Command,
// persistent --config flag, default config path.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "workerpool",
		Short: "Run and inspect worker-pool dispatch managers",
	}
	root.AddCommand(newServeCmd(), newStatsCmd(), newInitConfigCmd())
	return root
}
