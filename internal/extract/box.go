// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// packageKeywords are tried in order; the first keyword followed by a number
// wins. "Wooden box" and "Carton box" precede "Box" and "Carton" so the
// longer label is kept.
var packageKeywords = []string{
	`Wooden\s*box`, `Pallet`, `Case`, `Crate`, `Carton\s*box`,
	`Carton`, `Package`, `Container`, `Box`, `Skid`, `Bundle`,
}

// packageMatchers match "Wooden box (1)", "Case 1", "Pallet(6)".
var packageMatchers = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(packageKeywords))
	for i, kw := range packageKeywords {
		res[i] = regexp.MustCompile(`(?i)(` + kw + `)\s*\(?\s*(\d+)\s*\)?`)
	}
	return res
}()

// continuationRe matches "Packing List 15738-3" on pages that name no
// package type; the suffix is the box number.
var continuationRe = regexp.MustCompile(`Packing List\s+\d+\s*-\s*(\d+)`)

// continuationType is the package type assigned to continuation matches.
const continuationType = "Package"

// dimensionMatchers are tried in order; the capture is "L x W x H".
var dimensionMatchers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Measurement[:\s]+([\d\s]+x[\d\s]+x[\d\s]+)`),
	regexp.MustCompile(`(?i)Dimensions?[:\s]+([\d\s]+x[\d\s]+x[\d\s]+)`),
	regexp.MustCompile(`(?i)(\d+\s*x\s*\d+\s*x\s*\d+)\s*cm`),
}

// weightMatchers are tried in order; the capture may hold thousands
// separators ("1,234").
var weightMatchers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Gross\s*weight[:\s]+([\d,]+)\s*KG`),
	regexp.MustCompile(`(?i)Gross[:\s]+([\d,]+)\s*KG`),
	regexp.MustCompile(`(?i)([\d,]+)\s*KG.*gross`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParseBox reads the box record of one page. It reports false when the page
// names no package, which is normal for continuation pages.
func ParseBox(text string) (types.Box, bool) {
	typ, num, ok := MatchPackage(text)
	if !ok {
		typ, num, ok = matchContinuation(text)
		if !ok {
			return types.Box{}, false
		}
	}

	box := types.Box{
		Type:   typ,
		Number: num,
		Name:   displayName(typ, num),
	}
	box.Dimensions, _ = MatchDimensions(text)
	box.GrossWeightKG, _ = MatchGrossWeight(text)
	return box, true
}

// MatchPackage returns the package type and sequence number of the first
// package keyword found in text.
func MatchPackage(text string) (typ string, number int, ok bool) {
	for _, re := range packageMatchers {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return strings.TrimSpace(m[1]), n, true
	}
	return "", 0, false
}

func matchContinuation(text string) (string, int, bool) {
	m := continuationRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, false
	}
	return continuationType, n, true
}

// MatchDimensions returns the first "L x W x H" found, whitespace collapsed.
func MatchDimensions(text string) (string, bool) {
	for _, re := range dimensionMatchers {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " "), true
	}
	return "", false
}

// MatchGrossWeight returns the first gross weight in KG. Thousands separators
// are removed before parsing; a capture that is not a number falls through
// to the next pattern.
func MatchGrossWeight(text string) (int, bool) {
	for _, re := range weightMatchers {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		kg, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		return kg, true
	}
	return 0, false
}

// displayName renders "Wooden Box 3" from "WOODEN  box" and 3.
func displayName(typ string, number int) string {
	title := cases.Title(language.Und).String(typ)
	return fmt.Sprintf("%s %d", strings.Join(strings.Fields(title), " "), number)
}
