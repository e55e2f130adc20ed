// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/cmr-converter/internal/extract"
	"github.com/pdiddy/cmr-converter/internal/pdftext/pdftest"
	"github.com/pdiddy/cmr-converter/internal/populate"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

var fixedNow = time.Date(2025, 7, 22, 14, 30, 5, 0, time.UTC)

// fakeExtractor returns a canned record per base name, or an error for
// names listed in fail.
type fakeExtractor struct {
	records map[string]*types.ExtractedRecord
	fail    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (*types.ExtractedRecord, error) {
	name := filepath.Base(path)
	if err, ok := f.fail[name]; ok {
		return nil, err
	}
	if rec, ok := f.records[name]; ok {
		cp := *rec
		cp.SourcePath = path
		return &cp, nil
	}
	return &types.ExtractedRecord{SourcePath: path, Pages: 1}, nil
}

// fakePopulator writes a marker file instead of a workbook.
type fakePopulator struct {
	err   error
	calls int
}

func (f *fakePopulator) Populate(_ *types.ExtractedRecord, _, out string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("xlsx"), 0o644)
}

// memJournal keeps entries in memory.
type memJournal struct {
	entries []types.JournalEntry
	done    map[string]time.Time
}

func (m *memJournal) Record(_ context.Context, e types.JournalEntry) error {
	m.entries = append(m.entries, e)
	if e.Status == types.ConversionDone {
		if m.done == nil {
			m.done = make(map[string]time.Time)
		}
		m.done[e.SourcePath] = e.SourceModTime
	}
	return nil
}

func (m *memJournal) Converted(_ context.Context, path string, modTime time.Time) (bool, error) {
	t, ok := m.done[path]
	return ok && t.Equal(modTime), nil
}

func (m *memJournal) Failed(_ context.Context, path string, modTime time.Time) (bool, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if e := m.entries[i]; e.SourcePath == path {
			return e.Status == types.ConversionFailed && e.SourceModTime.Equal(modTime), nil
		}
	}
	return false, nil
}

// count returns the number of entries for path with the given status.
func (m *memJournal) count(path string, status types.ConversionStatus) int {
	n := 0
	for _, e := range m.entries {
		if e.SourcePath == path && e.Status == status {
			n++
		}
	}
	return n
}

// setupInbox writes placeholder PDFs into a fresh directory.
func setupInbox(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newPipeline(ext Extractor, pop Populator, out string) *Pipeline {
	return &Pipeline{
		Extractor: ext,
		Populator: pop,
		OutputDir: out,
		Now:       func() time.Time { return fixedNow },
	}
}

func TestConvertFile(t *testing.T) {
	in := setupInbox(t, "Packing_List_15880.pdf")
	out := filepath.Join(t.TempDir(), "cmr_output")
	ext := &fakeExtractor{records: map[string]*types.ExtractedRecord{
		"Packing_List_15880.pdf": {PackingListNumber: "15880", OurRef: "5523", Boxes: make([]types.Box, 2), TotalGrossWeight: 250},
	}}
	j := &memJournal{}
	p := newPipeline(ext, &fakePopulator{}, out)
	p.Journal = j

	res, err := p.ConvertFile(context.Background(), filepath.Join(in, "Packing_List_15880.pdf"))
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}

	want := filepath.Join(out, "CMR_5523_20250722_143005.xlsx")
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output not written: %v", err)
	}

	if len(j.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(j.entries))
	}
	e := j.entries[0]
	if e.Status != types.ConversionDone || e.Reference != "5523" || e.Boxes != 2 || e.TotalWeight != 250 {
		t.Errorf("unexpected journal entry %+v", e)
	}
	if e.SourceModTime.IsZero() {
		t.Error("journal entry should carry the source modification time")
	}
	if !e.ConvertedAt.Equal(fixedNow) {
		t.Errorf("converted_at = %v, want %v", e.ConvertedAt, fixedNow)
	}
}

func TestConvertFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		ext     *fakeExtractor
		pop     *fakePopulator
		wantErr string
		wantPop int
	}{
		{
			name:    "extraction failure",
			ext:     &fakeExtractor{fail: map[string]error{"a.pdf": errors.New("not a PDF")}},
			pop:     &fakePopulator{},
			wantErr: "not a PDF",
			wantPop: 0,
		},
		{
			name:    "population failure",
			ext:     &fakeExtractor{},
			pop:     &fakePopulator{err: errors.New("disk full")},
			wantErr: "disk full",
			wantPop: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := setupInbox(t, "a.pdf")
			j := &memJournal{}
			p := newPipeline(tt.ext, tt.pop, t.TempDir())
			p.Journal = j

			_, err := p.ConvertFile(context.Background(), filepath.Join(in, "a.pdf"))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
			if tt.pop.calls != tt.wantPop {
				t.Errorf("populate calls = %d, want %d", tt.pop.calls, tt.wantPop)
			}
			if len(j.entries) != 1 || j.entries[0].Status != types.ConversionFailed {
				t.Fatalf("expected one failed journal entry, got %+v", j.entries)
			}
			if !strings.Contains(j.entries[0].Error, tt.wantErr) {
				t.Errorf("journal error = %q, want containing %q", j.entries[0].Error, tt.wantErr)
			}
		})
	}
}

func TestConvertDir(t *testing.T) {
	in := setupInbox(t, "a.pdf", "b.pdf", "corrupt.pdf", "notes.txt")
	out := filepath.Join(t.TempDir(), "cmr_output")
	ext := &fakeExtractor{
		records: map[string]*types.ExtractedRecord{
			"a.pdf": {OurRef: "1001"},
			"b.pdf": {PackingListNumber: "2002"},
		},
		fail: map[string]error{"corrupt.pdf": errors.New("malformed PDF")},
	}
	p := newPipeline(ext, &fakePopulator{}, out)

	var buf bytes.Buffer
	result, err := p.ConvertDir(context.Background(), in, &buf)
	if err != nil {
		t.Fatalf("ConvertDir: %v", err)
	}

	if result.Converted != 2 || result.Failed != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 2 converted, 1 failed", result)
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}

	log := buf.String()
	for _, want := range []string{
		"converted: a.pdf -> CMR_1001_20250722_143005.xlsx",
		"converted: b.pdf -> CMR_2002_20250722_143005.xlsx",
		"failed: corrupt.pdf (malformed PDF)",
		"Batch summary: 2 converted, 0 skipped, 1 failed (total: 3)",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}
	if strings.Contains(log, "notes.txt") {
		t.Error("non-PDF files should not be processed")
	}
}

func TestConvertDir_SkipConverted(t *testing.T) {
	in := setupInbox(t, "a.pdf", "b.pdf")
	j := &memJournal{}
	p := newPipeline(&fakeExtractor{}, &fakePopulator{}, t.TempDir())
	p.Journal = j
	p.SkipConverted = true

	var first bytes.Buffer
	if _, err := p.ConvertDir(context.Background(), in, &first); err != nil {
		t.Fatal(err)
	}

	// Touch b.pdf so it counts as a new version.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(in, "b.pdf"), later, later); err != nil {
		t.Fatal(err)
	}

	var second bytes.Buffer
	result, err := p.ConvertDir(context.Background(), in, &second)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 || result.Converted != 1 {
		t.Errorf("second run = %+v, want 1 skipped, 1 converted", result)
	}
	if !strings.Contains(second.String(), "skipped: a.pdf (already converted)") {
		t.Errorf("log missing skip line:\n%s", second.String())
	}
}

func TestConvertDir_SkipFailed(t *testing.T) {
	in := setupInbox(t, "good.pdf", "corrupt.pdf")
	corrupt := filepath.Join(in, "corrupt.pdf")
	ext := &fakeExtractor{fail: map[string]error{"corrupt.pdf": errors.New("malformed PDF")}}
	j := &memJournal{}
	p := newPipeline(ext, &fakePopulator{}, t.TempDir())
	p.Journal = j
	p.SkipConverted = true
	p.SkipFailed = true

	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		result, err := p.ConvertDir(context.Background(), in, &buf)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 && result.Failed != 1 {
			t.Errorf("first run = %+v, want 1 failed", result)
		}
		if i > 0 {
			if result.Skipped != 2 || result.Failed != 0 {
				t.Errorf("run %d = %+v, want 2 skipped", i+1, result)
			}
			if !strings.Contains(buf.String(), "skipped: corrupt.pdf (failed before, unchanged)") {
				t.Errorf("log missing failed skip line:\n%s", buf.String())
			}
		}
	}
	if n := j.count(corrupt, types.ConversionFailed); n != 1 {
		t.Errorf("failures journaled = %d, want 1", n)
	}

	// A replaced file is tried again.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(corrupt, later, later); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	result, err := p.ConvertDir(context.Background(), in, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 1 || result.Skipped != 1 {
		t.Errorf("after change = %+v, want 1 failed, 1 skipped", result)
	}
	if n := j.count(corrupt, types.ConversionFailed); n != 2 {
		t.Errorf("failures journaled = %d, want 2", n)
	}
}

func TestConvertDir_FailedRetriedWithoutSkipFailed(t *testing.T) {
	in := setupInbox(t, "corrupt.pdf")
	ext := &fakeExtractor{fail: map[string]error{"corrupt.pdf": errors.New("malformed PDF")}}
	j := &memJournal{}
	p := newPipeline(ext, &fakePopulator{}, t.TempDir())
	p.Journal = j
	p.SkipConverted = true

	for i := 0; i < 2; i++ {
		var buf bytes.Buffer
		if _, err := p.ConvertDir(context.Background(), in, &buf); err != nil {
			t.Fatal(err)
		}
	}
	if n := j.count(filepath.Join(in, "corrupt.pdf"), types.ConversionFailed); n != 2 {
		t.Errorf("failures journaled = %d, want 2", n)
	}
}

func TestConvertDir_MissingDirectory(t *testing.T) {
	p := newPipeline(&fakeExtractor{}, &fakePopulator{}, t.TempDir())
	var buf bytes.Buffer
	if _, err := p.ConvertDir(context.Background(), filepath.Join(t.TempDir(), "nope"), &buf); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestConvertDir_Empty(t *testing.T) {
	p := newPipeline(&fakeExtractor{}, &fakePopulator{}, t.TempDir())
	var buf bytes.Buffer
	result, err := p.ConvertDir(context.Background(), t.TempDir(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total() != 0 {
		t.Errorf("total = %d, want 0", result.Total())
	}
	if !strings.Contains(buf.String(), "(total: 0)") {
		t.Errorf("summary missing:\n%s", buf.String())
	}
}

func TestConvertDir_Cancelled(t *testing.T) {
	in := setupInbox(t, "a.pdf")
	pop := &fakePopulator{}
	p := newPipeline(&fakeExtractor{}, pop, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if _, err := p.ConvertDir(ctx, in, &buf); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if pop.calls != 0 {
		t.Errorf("populate calls = %d, want 0", pop.calls)
	}
}

func TestDiscover(t *testing.T) {
	in := setupInbox(t, "b.pdf", "Packing_List_1.pdf", "a.pdf", "readme.md")
	if err := os.Mkdir(filepath.Join(in, "dir.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range files {
		got = append(got, filepath.Base(f))
	}
	want := []string{"Packing_List_1.pdf", "a.pdf", "b.pdf"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_IgnoresCase(t *testing.T) {
	in := setupInbox(t, "SCAN.PDF", "Packing_List_2.Pdf", "notes.PDF.txt", "c.pdf")

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"default patterns", nil, []string{"Packing_List_2.Pdf", "SCAN.PDF", "c.pdf"}},
		{"upper-case pattern", []string{"*.PDF"}, []string{"Packing_List_2.Pdf", "SCAN.PDF", "c.pdf"}},
		{"prefix pattern", []string{"packing_list_*.pdf"}, []string{"Packing_List_2.Pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Discover(in, tt.patterns)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, f := range files {
				got = append(got, filepath.Base(f))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Discover = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_BadPattern(t *testing.T) {
	if _, err := Discover(t.TempDir(), []string{"[.pdf"}); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		rec    *types.ExtractedRecord
		source string
		want   string
	}{
		{"our ref", &types.ExtractedRecord{OurRef: "5523", PackingListNumber: "15880"}, "x.pdf", "CMR_5523_20250722_143005.xlsx"},
		{"packing list number", &types.ExtractedRecord{PackingListNumber: "15880"}, "x.pdf", "CMR_15880_20250722_143005.xlsx"},
		{"base name", &types.ExtractedRecord{}, "/in/Packing_List_9.pdf", "CMR_Packing_List_9_20250722_143005.xlsx"},
		{"separators replaced", &types.ExtractedRecord{OurRef: "12/34"}, "x.pdf", "CMR_12_34_20250722_143005.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath(dir, tt.rec, tt.source, fixedNow)
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("OutputPath = %q, want %q", filepath.Base(got), tt.want)
			}
		})
	}
}

func TestOutputPath_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	rec := &types.ExtractedRecord{OurRef: "5523"}

	first := OutputPath(dir, rec, "x.pdf", fixedNow)
	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	second := OutputPath(dir, rec, "x.pdf", fixedNow)
	if filepath.Base(second) != "CMR_5523_20250722_143005_2.xlsx" {
		t.Errorf("second = %q", filepath.Base(second))
	}
	if err := os.WriteFile(second, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	third := OutputPath(dir, rec, "x.pdf", fixedNow)
	if filepath.Base(third) != "CMR_5523_20250722_143005_3.xlsx" {
		t.Errorf("third = %q", filepath.Base(third))
	}
}

// writePackingList writes a one-page packing list PDF with the given
// numbers and boxes.
func writePackingList(t *testing.T, path, number, ourRef string, boxes ...string) {
	t.Helper()
	lines := []string{"Packing List " + number + "-1", "Our ref.: " + ourRef}
	lines = append(lines, boxes...)
	if err := pdftest.Write(path, pdftest.NewPage(pdftest.Column(pdftest.LeftX, lines...)...)); err != nil {
		t.Fatal(err)
	}
}

// TestConvertDir_PDFFiles runs a batch through the real extractor and
// workbook writer: two valid packing lists and one truncated file.
func TestConvertDir_PDFFiles(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "cmr_output")

	writePackingList(t, filepath.Join(in, "Packing_List_15880.pdf"), "15880", "5523",
		"Pallet (1)", "Gross weight: 100 KG", "Pallet (2)", "Gross weight: 150 KG")
	writePackingList(t, filepath.Join(in, "Packing_List_15881.pdf"), "15881", "5524",
		"Case 1", "Gross: 1,200 KG")

	full := pdftest.Build(pdftest.NewPage(pdftest.Column(pdftest.LeftX, "Packing List 15882-1")...))
	if err := os.WriteFile(filepath.Join(in, "Packing_List_15882.pdf"), full[:len(full)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	profile := types.DefaultProfile()
	p := newPipeline(extract.New(profile), populate.New(profile), out)
	p.Template = filepath.Join(in, "missing_template.xlsx")

	var buf bytes.Buffer
	result, err := p.ConvertDir(context.Background(), in, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if result.Converted != 2 || result.Failed != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want 2 converted, 1 failed\n%s", result, buf.String())
	}

	log := buf.String()
	for _, want := range []string{
		"converted: Packing_List_15880.pdf -> CMR_5523_20250722_143005.xlsx",
		"converted: Packing_List_15881.pdf -> CMR_5524_20250722_143005.xlsx",
		"failed: Packing_List_15882.pdf",
		"Batch summary: 2 converted, 0 skipped, 1 failed (total: 3)",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(out, "CMR_*.xlsx"))
	if len(matches) != 2 {
		t.Fatalf("outputs = %v, want 2 workbooks", matches)
	}

	layout := types.DefaultLayout()
	f, err := excelize.OpenFile(filepath.Join(out, "CMR_5523_20250722_143005.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := f.GetCellValue(layout.SheetName, layout.PackingListCell)
	if err != nil {
		t.Fatal(err)
	}
	if got != "15880" {
		t.Errorf("packing list cell = %q, want 15880", got)
	}
}
