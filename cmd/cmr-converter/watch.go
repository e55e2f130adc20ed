// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cmr-converter/internal/watch"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Keep an inbox directory converted on a schedule",
	Long: `Watch scans the inbox directory immediately and then on every tick of
the schedule, converting packing lists it has not converted before. The
journal decides what is new; a document is converted again when its
modification time changes. A document that failed is not retried until it
changes either; its failure is journaled once. Scans never overlap. Stop
with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("schedule", types.DefaultSchedule, `cron expression or descriptor, e.g. "@every 5m" or "*/10 * * * *"`)

	_ = viper.BindPFlag("schedule", watchCmd.Flags().Lookup("schedule"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := types.WatchConfig{
		ConverterConfig: converterConfig(),
		Schedule:        viper.GetString("schedule"),
	}
	cfg.JournalPath = defaultJournal(cfg.ConverterConfig)
	cfg.SkipConverted = true
	cfg.SkipFailed = true

	a, err := newApp(cfg.ConverterConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	return watch.Run(cmd.Context(), cfg.Schedule, a.pipeline, args[0], cmd.OutOrStdout(), a.log.Named("watch"))
}
