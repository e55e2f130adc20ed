// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest writes small uncompressed PDF files for tests. Pages are
// A4 and use one Helvetica font with WinAnsi encoding and a /Widths table,
// so parsed glyphs carry real advance widths.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	fontSize = 10.0
	leading  = 14.0

	// Top is the baseline of the first line laid out by Column.
	Top = 800.0

	// LeftX and RightX are the column origins for the two halves of an A4
	// page.
	LeftX  = 36.0
	RightX = 340.0
)

// helveticaWidths are the advance widths of codes 32 to 126.
var helveticaWidths = []int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556,
	278, 278, 584, 584, 584, 556, 1015,
	667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833,
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611,
	278, 278, 278, 469, 556, 333,
	556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833,
	556, 556, 556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500,
	334, 260, 334, 584,
}

// Line is one line of text. A line with one run is drawn with Tj; a line
// with several runs is drawn as one TJ operator per run, each continuing
// where the previous one ended.
type Line struct {
	X, Y float64
	Runs []string
}

// Page is the text content of one page.
type Page struct {
	Lines []Line
}

// Text returns a line drawn with a single Tj at (x, y).
func Text(x, y float64, s string) Line {
	return Line{X: x, Y: y, Runs: []string{s}}
}

// Runs returns a line drawn as consecutive TJ operators at (x, y).
func Runs(x, y float64, runs ...string) Line {
	return Line{X: x, Y: y, Runs: runs}
}

// Column lays lines out top to bottom at x, starting at Top. Each line is
// split before its first space into two TJ runs, the way layout engines
// often break words into separately positioned runs; a line without a space
// is drawn with Tj.
func Column(x float64, lines ...string) []Line {
	out := make([]Line, 0, len(lines))
	y := Top
	for _, l := range lines {
		if i := strings.Index(l, " "); i > 0 {
			out = append(out, Runs(x, y, l[:i], l[i:]))
		} else {
			out = append(out, Text(x, y, l))
		}
		y -= leading
	}
	return out
}

// NewPage returns a page holding the given lines.
func NewPage(lines ...Line) Page {
	return Page{Lines: lines}
}

// Build returns a PDF document with one page per element of pages.
func Build(pages ...Page) []byte {
	// Object numbers: 1 catalog, 2 page tree, 3 font, then a page object
	// and a content stream per page.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 595 842] >>",
		strings.Join(kids, " "), len(pages)))

	widths := make([]string, len(helveticaWidths))
	for i, w := range helveticaWidths {
		widths[i] = fmt.Sprint(w)
	}
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " ")))

	for i, p := range pages {
		content := contentStream(p)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Write builds a PDF from pages and writes it to path.
func Write(path string, pages ...Page) error {
	return os.WriteFile(path, Build(pages...), 0o644)
}

func contentStream(p Page) string {
	var b strings.Builder
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "BT /F1 %g Tf %g %g Td ", fontSize, l.X, l.Y)
		if len(l.Runs) == 1 {
			fmt.Fprintf(&b, "(%s) Tj", escape(l.Runs[0]))
		} else {
			for i, r := range l.Runs {
				if i > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprintf(&b, "[(%s)] TJ", escape(r))
			}
		}
		b.WriteString(" ET\n")
	}
	return b.String()
}

// escape quotes the characters that are special inside a PDF literal string.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
