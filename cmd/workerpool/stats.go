package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var statsAddr string

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <pool>",
		Short: "query a running instance's introspection endpoint for a pool",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	cmd.Flags().StringVar(&statsAddr, "addr", "http://127.0.0.1:8070", "introspection HTTP base address")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	pool := args[0]
	resp, err := http.Get(fmt.Sprintf("%s/pools/%s/stats", statsAddr, pool))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: %s: %s", resp.Status, body)
	}
	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}
