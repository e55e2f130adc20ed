// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

const consigneeHeader = "consignee address"

// ParseConsignee finds the "Consignee address" header in text and assigns the
// next non-blank lines, at most types.ConsigneeLines of them, to name,
// address lines, city, and country in that order. Collection stops at the
// cap whatever the lines contain. Without a header the result is empty.
func ParseConsignee(text string) types.Consignee {
	var lines []string
	found := false

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), consigneeHeader) {
			found = true
			continue
		}
		if !found {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= types.ConsigneeLines {
			break
		}
	}

	var c types.Consignee
	fields := []*string{&c.Name, &c.AddressLine1, &c.AddressLine2, &c.City, &c.Country}
	for i, l := range lines {
		*fields[i] = l
	}
	return c
}
