// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package populate

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

const printAreaName = "_xlnm.Print_Area"

// openTemplate returns the workbook to fill and the sheet to write to. A
// template that is missing, unparsable, or rejects the layout settings is
// replaced by a synthesized one; only a failure to build that blank form is
// an error.
func (p *Populator) openTemplate(path string) (*excelize.File, string, error) {
	log := p.log.With(zap.String("template", path))

	if path == "" {
		log.Warn("no template configured, creating a blank workbook")
		return p.newTemplate()
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("template not found, creating a blank workbook", zap.Error(err))
		return p.newTemplate()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		log.Warn("could not load template, creating a blank workbook", zap.Error(err))
		return p.newTemplate()
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		f.Close()
		log.Warn("template has no active sheet, creating a blank workbook")
		return p.newTemplate()
	}

	// Column widths are deliberately left alone here; they are applied once,
	// just before saving.
	err = p.applyRowHeights(f, sheet)
	if err == nil {
		err = applyPageSetup(f, sheet, p.layout.Loaded)
	}
	if err != nil {
		f.Close()
		log.Warn("could not apply layout to template, creating a blank workbook", zap.Error(err))
		return p.newTemplate()
	}

	log.Debug("template loaded", zap.String("sheet", sheet))
	return f, sheet, nil
}

// newTemplate synthesizes a blank CMR form: fixed column widths and row
// heights matching the paper form, fitted to one A4 portrait page.
func (p *Populator) newTemplate() (*excelize.File, string, error) {
	f := excelize.NewFile()
	sheet := p.layout.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}

	steps := []func() error{
		func() error { return f.SetSheetName(f.GetSheetName(0), sheet) },
		func() error { return applyColumnWidths(f, sheet, p.layout.TemplateColumnWidths) },
		func() error { return p.applyRowHeights(f, sheet) },
		func() error { return applyPageSetup(f, sheet, p.layout.Fresh) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("creating blank template: %w", err)
		}
	}
	return f, sheet, nil
}

func (p *Populator) applyRowHeights(f *excelize.File, sheet string) error {
	for _, band := range p.layout.RowHeights {
		for r := band.First; r <= band.Last; r++ {
			if err := f.SetRowHeight(sheet, r, band.Height); err != nil {
				return fmt.Errorf("setting height of row %d: %w", r, err)
			}
		}
	}
	return nil
}

func applyColumnWidths(f *excelize.File, sheet string, widths []types.ColumnWidth) error {
	for _, cw := range widths {
		if err := f.SetColWidth(sheet, cw.Column, cw.Column, cw.Width); err != nil {
			return fmt.Errorf("setting width of column %s: %w", cw.Column, err)
		}
	}
	return nil
}

func applyPageSetup(f *excelize.File, sheet string, ps types.PageSetup) error {
	size, orientation := ps.PaperSize, ps.Orientation
	fitW, fitH := ps.FitToWidth, ps.FitToHeight
	opts := &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitW,
		FitToHeight: &fitH,
	}
	if ps.Scale > 0 {
		scale := ps.Scale
		opts.AdjustTo = &scale
	}
	if err := f.SetPageLayout(sheet, opts); err != nil {
		return fmt.Errorf("setting page layout: %w", err)
	}

	fit := ps.FitToPage
	if err := f.SetSheetProps(sheet, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
		return fmt.Errorf("setting fit to page: %w", err)
	}

	m := ps.Margins
	if err := f.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Left:   &m.Left,
		Right:  &m.Right,
		Top:    &m.Top,
		Bottom: &m.Bottom,
		Header: &m.Header,
		Footer: &m.Footer,
	}); err != nil {
		return fmt.Errorf("setting margins: %w", err)
	}

	if ps.PrintArea != "" {
		return setPrintArea(f, sheet, ps.PrintArea)
	}
	return nil
}

// setPrintArea replaces the sheet's print area with rng ("A1:I70").
func setPrintArea(f *excelize.File, sheet, rng string) error {
	ref, err := absoluteRange(sheet, rng)
	if err != nil {
		return err
	}
	// A template may already carry a print area; the name must be unique
	// within its scope.
	_ = f.DeleteDefinedName(&excelize.DefinedName{Name: printAreaName, Scope: sheet})
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     printAreaName,
		RefersTo: ref,
		Scope:    sheet,
	}); err != nil {
		return fmt.Errorf("setting print area %s: %w", rng, err)
	}
	return nil
}

// absoluteRange turns "A1:I70" on sheet CMR into "CMR!$A$1:$I$70".
func absoluteRange(sheet, rng string) (string, error) {
	parts := strings.Split(rng, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid range %q", rng)
	}
	abs := make([]string, 2)
	for i, cell := range parts {
		col, row, err := excelize.SplitCellName(cell)
		if err != nil {
			return "", fmt.Errorf("invalid range %q: %w", rng, err)
		}
		abs[i] = fmt.Sprintf("$%s$%d", col, row)
	}
	name := sheet
	if strings.ContainsAny(name, " -'") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name + "!" + abs[0] + ":" + abs[1], nil
}
