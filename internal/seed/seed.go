// Package seed loads the curated MCS site list and geocodes it into
// canonical sites.
package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Site is one seed entry. Coordinates are filled in by geocoding.
type Site struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=255"`
	City     string `json:"city" yaml:"city" validate:"required,max=255"`
	Country  string `json:"country" yaml:"country" validate:"required,max=64"`
	Operator string `json:"operator" yaml:"operator"`
	Status   string `json:"status" yaml:"status"`
	Source   string `json:"source" yaml:"source" validate:"omitempty,url"`
}

// Query is the primary geocoding query.
func (s Site) Query() string {
	return fmt.Sprintf("%s, %s", s.City, s.Country)
}

// AltQuery adds the site name for places the city alone does not resolve.
func (s Site) AltQuery() string {
	return fmt.Sprintf("%s, %s, %s", s.Name, s.City, s.Country)
}

var validate = validator.New()

// Load reads a seed list from a JSON array, or a YAML list when the file
// ends in .yaml or .yml. Every entry is validated.
func Load(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}

	var sites []Site
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&sites); err != nil && !errors.Is(err, io.EOF) {
			return nil, eris.Wrapf(err, "seed: decode yaml %s", path)
		}
	default:
		if err := json.Unmarshal(data, &sites); err != nil {
			return nil, eris.Wrapf(err, "seed: decode json %s", path)
		}
	}

	if err := Validate(sites); err != nil {
		return nil, eris.Wrapf(err, "seed: %s", path)
	}
	return sites, nil
}

// Validate checks required fields on every entry.
func Validate(sites []Site) error {
	for i, s := range sites {
		if err := validate.Struct(s); err != nil {
			return eris.Wrapf(err, "seed: entry %d (%q)", i, s.Name)
		}
	}
	return nil
}
