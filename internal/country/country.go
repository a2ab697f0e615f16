// Package country attributes phone numbers to countries by dialing-code
// prefix.
package country

import (
	"strings"

	"github.com/pbxwatch/backend/internal/types"
)

// dialingCodes maps international dialing prefixes to countries. Covers the
// markets the PBX serves plus the common surrounding codes.
var dialingCodes = map[string]types.CountryInfo{
	"1":   {Code: "CAN", Name: "Canada"},
	"33":  {Code: "FRA", Name: "France"},
	"32":  {Code: "BEL", Name: "Belgium"},
	"49":  {Code: "DEU", Name: "Germany"},
	"44":  {Code: "GBR", Name: "United Kingdom"},
	"34":  {Code: "ESP", Name: "Spain"},
	"39":  {Code: "ITA", Name: "Italy"},
	"41":  {Code: "CHE", Name: "Switzerland"},
	"212": {Code: "MAR", Name: "Morocco"},
	"213": {Code: "DZA", Name: "Algeria"},
	"216": {Code: "TUN", Name: "Tunisia"},
	"221": {Code: "SEN", Name: "Senegal"},
	"86":  {Code: "CHN", Name: "China"},
}

// Attribute resolves a calling number to a country. The number is normalized
// by stripping one leading "00" or "+" and every non-digit character, then
// matched against the dialing-code table longest prefix first (3, then 2,
// then 1 digits). The second return is false when no prefix matches.
func Attribute(phoneNumber string) (types.CountryInfo, bool) {
	clean := Normalize(phoneNumber)
	if clean == "" {
		return types.CountryInfo{}, false
	}

	for i := 3; i > 0; i-- {
		if i > len(clean) {
			continue
		}
		if info, ok := dialingCodes[clean[:i]]; ok {
			return info, true
		}
	}
	return types.CountryInfo{}, false
}

// Normalize strips the international call prefix and all non-digits.
func Normalize(phoneNumber string) string {
	s := phoneNumber
	if strings.HasPrefix(s, "00") {
		s = s[2:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
