// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cmr-converter/internal/convert"
	"github.com/pdiddy/cmr-converter/internal/extract"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

func sampleResult() *convert.Result {
	return &convert.Result{
		Source: "Packing_List_15880.pdf",
		Output: "cmr_output/CMR_5523_20250722_143005.xlsx",
		Record: &types.ExtractedRecord{
			PackingListNumber: "15880",
			Date:              "22-07-2025",
			OurRef:            "5523",
			Consignee:         types.Consignee{Name: "ACME Trading LLC"},
			Boxes: []types.Box{
				{Name: "Pallet 1", Dimensions: "120 x 80 x 95", GrossWeightKG: 100, Page: 1},
				{Name: "Pallet 2", Page: 2},
			},
			TotalGrossWeight: 100,
		},
	}
}

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	printRecord(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"Packing list:   15880",
		"Your ref:       -",
		"Consignee:      ACME Trading LLC",
		"Boxes:          2",
		"Pallet 1",
		"100 KG",
		"Total weight:   100 KG",
		"CMR written to: cmr_output/CMR_5523_20250722_143005.xlsx",
	} {
		assert.Contains(t, out, want)
	}
}

func TestReportFailure(t *testing.T) {
	t.Run("extraction error lists causes", func(t *testing.T) {
		var buf bytes.Buffer
		err := errors.WithStack(&extract.Error{Path: "bad.pdf", Err: extract.ErrNoText})
		reportFailure(&buf, "bad.pdf", err)

		out := buf.String()
		assert.Contains(t, out, "Error converting bad.pdf")
		assert.Contains(t, out, "Likely causes:")
		assert.Contains(t, out, "TestReportFailure")
	})

	t.Run("other errors", func(t *testing.T) {
		var buf bytes.Buffer
		reportFailure(&buf, "x.pdf", errors.New("disk full"))
		assert.NotContains(t, buf.String(), "Likely causes:")
		assert.Contains(t, buf.String(), "disk full")
	})
}

func TestDumpRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMR_5523.yaml")
	require.NoError(t, dumpRecord(path, sampleResult().Record))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.ExtractedRecord
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "15880", got.PackingListNumber)
	assert.Len(t, got.Boxes, 2)
}

func TestPrintHistory(t *testing.T) {
	var empty bytes.Buffer
	printHistory(&empty, nil)
	assert.Equal(t, "No conversions recorded.\n", empty.String())

	var buf bytes.Buffer
	printHistory(&buf, []types.JournalEntry{
		{SourcePath: "/in/a.pdf", Status: types.ConversionDone, OutputPath: "/out/CMR_1.xlsx", ConvertedAt: time.Now()},
		{SourcePath: "/in/b.pdf", Status: types.ConversionFailed, Error: "malformed PDF", ConvertedAt: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "CMR_1.xlsx")
	assert.Contains(t, out, "malformed PDF")
}

func TestDefaultJournal(t *testing.T) {
	assert.Equal(t, "j.db", defaultJournal(types.ConverterConfig{JournalPath: "j.db", OutputDir: "out"}))
	assert.Equal(t, filepath.Join("out", "cmr-journal.db"), defaultJournal(types.ConverterConfig{OutputDir: "out"}))
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("input directory missing"), "Error: input directory missing\n"},
		{"already reported", reportedError{errors.New("malformed PDF")}, ""},
		{"wrapped report", errors.Wrap(reportedError{errors.New("malformed PDF")}, "convert"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConvertCommand_FailureReportedOnce(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"convert", filepath.Join(dir, "missing.pdf"), "--output-dir", dir, "--log-level", "error"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	printError(&stderr, err)

	out := stderr.String()
	assert.Equal(t, 1, strings.Count(out, "Error converting"), out)
	assert.Contains(t, out, "Likely causes:")
	assert.NotContains(t, out, "Error: ")
}
