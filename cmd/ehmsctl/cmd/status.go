package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Status mirrors the server's /status response
type Status struct {
	Status     string   `json:"status"`
	Service    string   `json:"service"`
	APIVersion int      `json:"api_version"`
	Features   []string `json:"features"`
	Database   string   `json:"database"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, "")
		data, err := client.Request("GET", "/status", nil)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var s Status
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		printTable(cmd.OutOrStdout(), []string{"SERVICE", "STATUS", "DATABASE", "API", "FEATURES"}, [][]string{
			{s.Service, s.Status, s.Database, strconv.Itoa(s.APIVersion), strings.Join(s.Features, ",")},
		})
		return nil
	},
}
