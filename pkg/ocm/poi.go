package ocm

import (
	"fmt"

	"github.com/sells-group/ccs-atlas/internal/model"
)

// POI is the subset of an OpenChargeMap point of interest that the
// exporter reads.
type POI struct {
	ID           int           `json:"ID"`
	AddressInfo  *AddressInfo  `json:"AddressInfo"`
	OperatorInfo *OperatorInfo `json:"OperatorInfo"`
}

// AddressInfo holds location fields.
type AddressInfo struct {
	Title     string   `json:"Title"`
	Town      string   `json:"Town"`
	Latitude  *float64 `json:"Latitude"`
	Longitude *float64 `json:"Longitude"`
	Country   *Country `json:"Country"`
}

// Country is only populated in verbose or non-compact responses.
type Country struct {
	ISOCode string `json:"ISOCode"`
}

// OperatorInfo names the charge point operator.
type OperatorInfo struct {
	Title string `json:"Title"`
}

// CountryPOI pairs a POI with the country code it was queried under.
type CountryPOI struct {
	Country string
	POI     POI
}

// DefaultName is used for POIs without an address title.
const DefaultName = "CCS Charger"

// SourceURL returns the public OpenChargeMap page for a POI.
func SourceURL(id int) string {
	return fmt.Sprintf("https://openchargemap.org/site/poi/%d", id)
}

// Site converts the POI to a canonical CCS site. It returns false when the
// POI has no coordinates. country is used when the POI carries no ISO code.
func (p POI) Site(country string) (model.Site, bool) {
	addr := p.AddressInfo
	if addr == nil || addr.Latitude == nil || addr.Longitude == nil {
		return model.Site{}, false
	}

	site := model.Site{
		Longitude: *addr.Longitude,
		Latitude:  *addr.Latitude,
		Name:      addr.Title,
		City:      addr.Town,
		Country:   country,
		Status:    model.StatusFast,
		Source:    SourceURL(p.ID),
		SiteType:  model.SiteTypeCCS,
	}
	if site.Name == "" {
		site.Name = DefaultName
	}
	if addr.Country != nil && addr.Country.ISOCode != "" {
		site.Country = addr.Country.ISOCode
	}
	if p.OperatorInfo != nil {
		site.Operator = p.OperatorInfo.Title
	}
	return site, true
}

// Sites converts fetched POIs, dropping those without coordinates.
func Sites(items []CountryPOI) []model.Site {
	sites := make([]model.Site, 0, len(items))
	for _, it := range items {
		if s, ok := it.POI.Site(it.Country); ok {
			sites = append(sites, s)
		}
	}
	return sites
}
