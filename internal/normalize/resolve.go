// Package normalize turns loosely structured charger records into canonical CCS sites.
package normalize

import (
	"sort"
	"strings"
)

// Record is one raw input row: field name to value (string, number, bool or nil).
// Field names are whatever the source file used.
type Record map[string]any

// Alias groups for each logical attribute. Order is preference; first match wins.
var (
	LatFields       = []string{"lat", "latitude", "y"}
	LonFields       = []string{"lon", "lng", "longitude", "x"}
	ConnectorFields = []string{"connector", "connectors", "connector_type", "socket", "plug", "plug_type"}
	PowerFields     = []string{"power", "max_power", "max_power_kw", "rated_power", "rated_power_kw", "kw", "maxkw"}
	NameFields      = []string{"name", "title", "site_name", "address_title"}
	CityFields      = []string{"city", "town", "municipality", "place"}
	CountryFields   = []string{"country", "country_code", "iso2", "iso"}
	OperatorFields  = []string{"operator", "operator_name", "cpo", "owner", "organisation"}
)

// Resolve returns the first non-blank value stored under one of aliases.
// Exact keys are tried first; if none match, the scan is repeated against
// lower-cased record keys. The bool is false when no alias yields a value.
func Resolve(rec Record, aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := rec[k]; ok && !blank(v) {
			return v, true
		}
	}

	lower := lowerKeys(rec)
	for _, k := range aliases {
		if v, ok := lower[k]; ok && !blank(v) {
			return v, true
		}
	}
	return nil, false
}

// ResolveString resolves aliases and renders the value as text, or returns def when absent.
func ResolveString(rec Record, aliases []string, def string) string {
	v, ok := Resolve(rec, aliases)
	if !ok {
		return def
	}
	s := toString(v)
	if s == "" {
		return def
	}
	return s
}

// lowerKeys folds record keys to lower case. When two keys fold to the same
// name, the first non-blank value in sorted key order is kept.
func lowerKeys(rec Record) map[string]any {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lower := make(map[string]any, len(rec))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if cur, ok := lower[lk]; ok && !blank(cur) {
			continue
		}
		lower[lk] = rec[k]
	}
	return lower
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
