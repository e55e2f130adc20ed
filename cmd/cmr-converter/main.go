// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cmr-converter CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/internal/convert"
	"github.com/pdiddy/cmr-converter/internal/extract"
	"github.com/pdiddy/cmr-converter/internal/journal"
	"github.com/pdiddy/cmr-converter/internal/logging"
	"github.com/pdiddy/cmr-converter/internal/populate"
	"github.com/pdiddy/cmr-converter/internal/profile"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the cmr-converter CLI.
var rootCmd = &cobra.Command{
	Use:   "cmr-converter",
	Short: "Fill CMR consignment notes from packing-list PDFs",
	Long: `cmr-converter reads packing-list PDFs, extracts the header, consignee,
and per-box data, and writes a populated CMR spreadsheet for each document.

Convert a single document with convert, a directory with batch, or keep an
inbox directory converted with watch. Every run can be journaled to a local
SQLite database and reviewed with history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cmr-converter.yaml or ~/.config/cmr-converter/cmr-converter.yaml)")
	pf.String("profile", "", "exporter profile YAML (default: built-in CTS Netherlands profile)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("journal", "", "SQLite journal file (default: disabled; watch and history use <output-dir>/"+journal.DefaultFile+")")
	pf.String("template", types.DefaultTemplate, "CMR template workbook")
	pf.String("output-dir", types.DefaultOutputDir, "directory for generated CMR workbooks")

	for key, flag := range map[string]string{
		"profile":    "profile",
		"log_level":  "log-level",
		"journal":    "journal",
		"template":   "template",
		"output_dir": "output-dir",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
	viper.SetDefault("patterns", types.DefaultPatterns)
	viper.SetDefault("schedule", types.DefaultSchedule)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cmr-converter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cmr-converter"))
		}
	}

	viper.SetEnvPrefix("CMR_CONVERTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// converterConfig collects settings from flags, environment, and the
// config file, in that order of precedence.
func converterConfig() types.ConverterConfig {
	return types.ConverterConfig{
		Template:      viper.GetString("template"),
		OutputDir:     viper.GetString("output_dir"),
		ProfilePath:   viper.GetString("profile"),
		JournalPath:   viper.GetString("journal"),
		Patterns:      viper.GetStringSlice("patterns"),
		SkipConverted: viper.GetBool("skip_converted"),
		SkipFailed:    viper.GetBool("skip_failed"),
	}
}

// app holds the components shared by the subcommands.
type app struct {
	log      *zap.Logger
	profile  types.Profile
	journal  *journal.Store
	pipeline *convert.Pipeline
}

func newApp(cfg types.ConverterConfig) (*app, error) {
	log, err := logging.New(viper.GetString("log_level"))
	if err != nil {
		return nil, err
	}

	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	log.Debug("profile loaded", zap.String("profile", prof.Name))

	a := &app{
		log:     log,
		profile: prof,
		pipeline: &convert.Pipeline{
			Extractor:     extract.New(prof, extract.WithLogger(log.Named("extract"))),
			Populator:     populate.New(prof, populate.WithLogger(log.Named("populate"))),
			Template:      cfg.Template,
			OutputDir:     cfg.OutputDir,
			Patterns:      cfg.Patterns,
			SkipConverted: cfg.SkipConverted,
			SkipFailed:    cfg.SkipFailed,
			Log:           log.Named("convert"),
		},
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		a.journal = j
		a.pipeline.Journal = j
		log.Debug("journal opened", zap.String("path", cfg.JournalPath))
	}
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("closing journal", zap.Error(err))
		}
	}
	logging.Sync(a.log)
}

// defaultJournal returns the journal path for commands that need one.
func defaultJournal(cfg types.ConverterConfig) string {
	if cfg.JournalPath != "" {
		return cfg.JournalPath
	}
	return filepath.Join(cfg.OutputDir, journal.DefaultFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportedError marks an error a command has already printed in detail.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

// printError writes err to w once; errors a command already reported are
// not repeated.
func printError(w io.Writer, err error) {
	var r reportedError
	if errors.As(err, &r) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}
