// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cmr-converter/internal/journal"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or export journaled conversions",
	Long: `History reads the conversion journal and lists the most recent runs,
newest first. Use --export to write the matching entries as YAML or JSON.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("status", "", "filter by status: converted or failed")
	historyCmd.Flags().String("source", "", "filter by source document path")
	historyCmd.Flags().Int("limit", 20, "maximum entries (0 for all)")
	historyCmd.Flags().String("export", "", "export format: yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := converterConfig()
	cfg.JournalPath = defaultJournal(cfg)

	status, _ := cmd.Flags().GetString("status")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("export")

	q := journal.Query{
		Status: types.ConversionStatus(status),
		Source: source,
		Limit:  limit,
	}

	store, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch format {
	case "":
		entries, err := store.List(ctx, q)
		if err != nil {
			return err
		}
		printHistory(out, entries)
		return nil
	case "yaml":
		return store.ExportYAML(ctx, q, out)
	case "json":
		return store.ExportJSON(ctx, q, out)
	default:
		return fmt.Errorf("unknown export format %q (use yaml or json)", format)
	}
}

func printHistory(w io.Writer, entries []types.JournalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATUS\tSOURCE\tRESULT")
	for _, e := range entries {
		result := filepath.Base(e.OutputPath)
		if e.Status == types.ConversionFailed {
			result = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.ConvertedAt.Local().Format(time.DateTime), e.Status, filepath.Base(e.SourcePath), result)
	}
	tw.Flush()
}
