package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akalyaev/worker-pool/config"
)

const defaultConfigFile = "workerpool.toml"

func newInitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "write a default workerpool.toml",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := cfgPath
			if path == "" {
				path = defaultConfigFile
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			return config.WriteDefault(path)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to write (defaults to "+defaultConfigFile+")")
	return cmd
}
