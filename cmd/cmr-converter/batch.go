// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Convert every packing-list PDF in a directory",
	Long: `Batch converts each PDF in the input directory in turn. A document that
fails is reported and skipped; the rest of the batch continues. With
--skip-converted and a journal, documents already converted in an earlier
run are skipped until they change.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Bool("skip-converted", false, "skip documents the journal already converted")
	batchCmd.Flags().StringSlice("pattern", nil, "input glob pattern (repeatable, default: *.pdf and Packing_List_*.pdf)")

	_ = viper.BindPFlag("skip_converted", batchCmd.Flags().Lookup("skip-converted"))
	_ = viper.BindPFlag("patterns", batchCmd.Flags().Lookup("pattern"))

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := converterConfig()
	if cfg.SkipConverted && cfg.JournalPath == "" {
		cfg.JournalPath = defaultJournal(cfg)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Failed documents are reported in the summary; only an unusable input
	// directory fails the command.
	result, err := a.pipeline.ConvertDir(cmd.Context(), args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		a.log.Warn("batch finished with failures", zap.Int("failed", result.Failed))
	}
	return nil
}
