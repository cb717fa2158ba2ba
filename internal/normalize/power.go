package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// MinPowerKW is the lowest rated power that counts as a fast charger.
const MinPowerKW = 50.0

// ParsePower converts a power value such as "150kW", "150,5 kw" or 150 into
// kilowatts. Anything that cannot be read as a finite number yields 0.
func ParsePower(v any) float64 {
	if v == nil {
		return 0
	}
	s := strings.ToLower(toString(v))
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "kw", "")

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseCoord reads a coordinate component. Strings are trimmed; booleans,
// blanks and non-finite values fail.
func parseCoord(v any) (float64, bool) {
	switch n := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		n = strings.TrimSpace(n)
		if n == "" {
			return 0, false
		}
		v = n
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toString renders a raw value the way it appeared in the source.
func toString(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
