// Package model defines the canonical charging-site record and its GeoJSON form.
package model

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Fixed property values written by the CCS pipelines.
const (
	StatusFast  = "fast"
	SiteTypeCCS = "CCS"
)

// Site is one charging location in the common output schema.
type Site struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Operator  string  `json:"operator"`
	Status    string  `json:"status"`
	Source    string  `json:"source"`
	SiteType  string  `json:"siteType,omitempty"`
}

// Properties returns the GeoJSON property set. siteType is omitted when unset.
func (s Site) Properties() map[string]any {
	props := map[string]any{
		"name":     s.Name,
		"city":     s.City,
		"country":  s.Country,
		"operator": s.Operator,
		"status":   s.Status,
		"source":   s.Source,
	}
	if s.SiteType != "" {
		props["siteType"] = s.SiteType
	}
	return props
}

// Feature converts the site to a GeoJSON Point feature ([lon, lat] order).
func (s Site) Feature() *geojson.Feature {
	return &geojson.Feature{
		Geometry:   geom.NewPointFlat(geom.XY, []float64{s.Longitude, s.Latitude}),
		Properties: s.Properties(),
	}
}

// Collection wraps sites in a FeatureCollection, preserving order.
func Collection(sites []Site) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(sites))}
	for _, s := range sites {
		fc.Features = append(fc.Features, s.Feature())
	}
	return fc
}
