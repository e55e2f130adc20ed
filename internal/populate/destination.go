// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package populate

import (
	"regexp"
	"strings"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

var leadingLettersRe = regexp.MustCompile(`^[A-Z\s]+`)

// Destination derives "CITY, CC" from a consignee. The city is the leading
// letters of address line 2 ("MUSCAT 100" gives "MUSCAT"); without line 2 the
// city field is used unless it names a country. The country is the country
// field, or the city field when that names a country.
func Destination(c types.Consignee, codes []types.CountryCode) string {
	var city string
	if c.AddressLine2 != "" {
		city = strings.TrimSpace(leadingLettersRe.FindString(strings.ToUpper(c.AddressLine2)))
	} else if c.City != "" {
		if upper := strings.ToUpper(c.City); !namesCountry(upper, codes) {
			city = upper
		}
	}

	var country string
	if c.Country != "" {
		country = c.Country
	} else if c.City != "" {
		if upper := strings.ToUpper(c.City); namesCountry(upper, codes) {
			country = upper
		}
	}

	switch {
	case city != "" && country != "":
		return city + ", " + CountryCode(country, codes)
	case city != "":
		return city
	default:
		return CountryCode(country, codes)
	}
}

// CountryCode returns the two-letter code for a country name: an exact match
// first, then the first table entry contained in the name. Matching ignores
// case on both sides, so profiles may list names in any case. Unknown names
// are returned upper-cased.
func CountryCode(name string, codes []types.CountryCode) string {
	if name == "" {
		return ""
	}
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, cc := range codes {
		if tableName(cc) == upper {
			return cc.Code
		}
	}
	for _, cc := range codes {
		if n := tableName(cc); n != "" && strings.Contains(upper, n) {
			return cc.Code
		}
	}
	return upper
}

func namesCountry(text string, codes []types.CountryCode) bool {
	for _, cc := range codes {
		if n := tableName(cc); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func tableName(cc types.CountryCode) string {
	return strings.ToUpper(strings.TrimSpace(cc.Name))
}
