package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/traktrelay/traktrelay/internal/config"
	"github.com/traktrelay/traktrelay/internal/output"
	"github.com/traktrelay/traktrelay/internal/store"
)

var (
	auditListLimit    int
	auditListClient   string
	auditListDecision string
	auditListFormat   string
	auditPruneAge     time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the gateway decision-audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded gateway rejections",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(auditListFormat)
		if err != nil {
			return err
		}
		formatter, err := output.NewFormatter(format)
		if err != nil {
			return err
		}

		db, err := openAuditStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListRejections(cmd.Context(), store.RejectionQuery{
			ClientKey: auditListClient,
			Decision:  auditListDecision,
			Limit:     auditListLimit,
		})
		if err != nil {
			return err
		}

		rendered, err := formatter.FormatRejections(entries)
		if err != nil {
			return err
		}

		fmt.Println(rendered)
		return nil
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openAuditStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		cutoff := time.Now().UTC().Add(-auditPruneAge)
		pruned, err := db.PruneBefore(cmd.Context(), cutoff)
		if err != nil {
			return err
		}

		fmt.Printf("pruned %d audit entries older than %s\n", pruned, cutoff.Format(time.RFC3339))
		return nil
	},
}

func openAuditStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if !cfg.Store.AuditEnabled() {
		return nil, fmt.Errorf("audit store is not configured (set store.path or store.url)")
	}
	return store.Open(cmd.Context(), cfg.Store)
}

func init() {
	auditListCmd.Flags().IntVar(&auditListLimit, "limit", 100, "maximum entries to list")
	auditListCmd.Flags().StringVar(&auditListClient, "client", "", "filter by client key")
	auditListCmd.Flags().StringVar(&auditListDecision, "decision", "", "filter by decision (rate_limited, unauthorized, path_forbidden, ...)")
	auditListCmd.Flags().StringVar(&auditListFormat, "format", "table", "output format (table, json, markdown)")

	auditPruneCmd.Flags().DurationVar(&auditPruneAge, "older-than", 30*24*time.Hour, "delete entries older than this")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}
