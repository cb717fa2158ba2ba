package normalize

import "github.com/sells-group/ccs-atlas/internal/model"

// SourceNAP tags sites imported from National Access Point exports.
const SourceNAP = "NAP (manual import)"

// DefaultName is used when a record carries no usable name.
const DefaultName = "CCS Charger"

// Normalize decides whether rec describes a fast CCS site. It returns the
// canonical site and true, or false when the record is rejected. Rejection
// order: coordinates, connector, power.
func Normalize(rec Record) (model.Site, bool) {
	latRaw, ok := Resolve(rec, LatFields)
	if !ok {
		return model.Site{}, false
	}
	lonRaw, ok := Resolve(rec, LonFields)
	if !ok {
		return model.Site{}, false
	}
	lat, ok := parseCoord(latRaw)
	if !ok {
		return model.Site{}, false
	}
	lon, ok := parseCoord(lonRaw)
	if !ok {
		return model.Site{}, false
	}

	connector, ok := Resolve(rec, ConnectorFields)
	if !ok || !IsCCS(toString(connector)) {
		return model.Site{}, false
	}

	power, ok := Resolve(rec, PowerFields)
	if !ok || ParsePower(power) < MinPowerKW {
		return model.Site{}, false
	}

	return model.Site{
		Longitude: lon,
		Latitude:  lat,
		Name:      ResolveString(rec, NameFields, DefaultName),
		City:      ResolveString(rec, CityFields, ""),
		Country:   ResolveString(rec, CountryFields, ""),
		Operator:  ResolveString(rec, OperatorFields, ""),
		Status:    model.StatusFast,
		Source:    SourceNAP,
		SiteType:  model.SiteTypeCCS,
	}, true
}
