package export

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	mapTmpl   = template.Must(template.ParseFS(templateFS, "templates/map.html.tmpl"))
	popupTmpl = template.Must(template.ParseFS(templateFS, "templates/popup.html.tmpl"))
)

// Europe-wide default view.
const (
	DefaultCenterLat = 51.1657
	DefaultCenterLon = 10.4515
	DefaultZoom      = 5
)

var statusColors = map[string]string{
	"live":      "green",
	"pilot":     "orange",
	"announced": "blue",
}

// StatusColor returns the marker colour for a site status. Unknown and
// empty statuses are drawn like announced sites.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return "blue"
}

// MapOptions configures the rendered map.
type MapOptions struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
}

func (o MapOptions) withDefaults() MapOptions {
	if o.Title == "" {
		o.Title = "Charging sites"
	}
	if o.CenterLat == 0 && o.CenterLon == 0 {
		o.CenterLat, o.CenterLon = DefaultCenterLat, DefaultCenterLon
	}
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	return o
}

type marker struct {
	Lat   float64       `json:"lat"`
	Lon   float64       `json:"lon"`
	Color string        `json:"color"`
	Popup template.HTML `json:"popup"`
}

type mapPage struct {
	MapOptions
	Markers []marker
}

// RenderMap writes a standalone Leaflet page with clustered circle markers,
// one per site, coloured by status.
func RenderMap(w io.Writer, sites []model.Site, opts MapOptions) error {
	page := mapPage{MapOptions: opts.withDefaults(), Markers: make([]marker, 0, len(sites))}
	for _, s := range sites {
		var buf bytes.Buffer
		if err := popupTmpl.Execute(&buf, s); err != nil {
			return eris.Wrapf(err, "export: render popup for %s", s.Name)
		}
		page.Markers = append(page.Markers, marker{
			Lat:   s.Latitude,
			Lon:   s.Longitude,
			Color: StatusColor(s.Status),
			Popup: template.HTML(buf.String()), //nolint:gosec // produced by html/template
		})
	}
	if err := mapTmpl.Execute(w, page); err != nil {
		return eris.Wrap(err, "export: render map")
	}
	return nil
}

// WriteMap renders the map to path.
func WriteMap(path string, sites []model.Site, opts MapOptions) error {
	var buf bytes.Buffer
	if err := RenderMap(&buf, sites, opts); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}
