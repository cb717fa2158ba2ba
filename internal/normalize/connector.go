package normalize

import "strings"

// ccsKeywords match CCS-family connector descriptions. There is no exclusion
// list: "Type 2 / CCS" is CCS.
var ccsKeywords = []string{"ccs", "combo", "type 2 combo", "ccs2", "iec 62196-3"}

// IsCCS reports whether a free-text connector description names a CCS connector.
func IsCCS(text string) bool {
	v := strings.ToLower(text)
	for _, k := range ccsKeywords {
		if strings.Contains(v, k) {
			return true
		}
	}
	return false
}
