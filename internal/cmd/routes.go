package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/traktrelay/traktrelay/internal/gateway"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the upstream path allowlist",
	Long: `Show the upstream route families the gateway will forward.
Requests to any path outside these prefixes are rejected with 403.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		allowlist, err := gateway.DefaultAllowlist()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Prefix"})

		for i, prefix := range allowlist.Prefixes() {
			t.AppendRow(table.Row{i + 1, prefix})
		}

		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
