// Package dashboard renders the static HTML overview of recent listings.
// It consumes store state read-only; no business logic lives here.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Renderer writes the dashboard artifact to a fixed path.
type Renderer struct {
	path string
	tmpl *template.Template
}

// NewRenderer creates a renderer targeting the given file path.
func NewRenderer(path string) (*Renderer, error) {
	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"zl": func(v int64) string { return fmt.Sprintf("%d zł", v) },
		"perM2": func(v float64) string {
			if v <= 0 {
				return "—"
			}
			return fmt.Sprintf("%.0f zł/m²", v)
		},
		"area": func(a model.Area) string {
			if !a.Known {
				return "—"
			}
			return fmt.Sprintf("%.1f m²", a.Value)
		},
		"date": func(t time.Time) string { return t.Local().Format("02.01.2006 15:04") },
	}).Parse(dashboardTemplate)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: parse template")
	}
	return &Renderer{path: path, tmpl: tmpl}, nil
}

// Path returns the artifact location, for the HTTP server to serve.
func (r *Renderer) Path() string { return r.path }

type pageData struct {
	Listings    []model.PersistedListing
	Counts      map[model.Portal]int
	Total       int
	GeneratedAt time.Time
}

// Render writes the artifact from the given recent window. The write goes
// through a temp file so the keep-alive server never serves a half-written
// page.
func (r *Renderer) Render(listings []model.PersistedListing, counts map[model.Portal]int) error {
	total := 0
	for _, n := range counts {
		total += n
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, pageData{
		Listings:    listings,
		Counts:      counts,
		Total:       total,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return eris.Wrap(err, "dashboard: execute template")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".dashboard-*")
	if err != nil {
		return eris.Wrap(err, "dashboard: create temp file")
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "dashboard: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "dashboard: close temp file")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "dashboard: replace artifact")
	}
	return nil
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Monitor Nieruchomości — Wrocław</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, 'Segoe UI', Arial, sans-serif; background: #f5f7fa; padding: 20px; }
.container { max-width: 1100px; margin: 0 auto; }
header { background: #2d3748; color: white; padding: 24px; border-radius: 8px; margin-bottom: 24px; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 16px; margin-bottom: 24px; }
.stat { background: white; padding: 16px; border-radius: 8px; }
.stat b { font-size: 26px; color: #2b6cb0; display: block; }
.card { background: white; border-radius: 8px; padding: 20px; margin-bottom: 14px; }
.card h3 { color: #2d3748; margin-bottom: 8px; }
.price { font-size: 22px; font-weight: bold; color: #2f855a; }
.meta { color: #718096; margin: 8px 0; }
.badge { background: #edf2f7; color: #4a5568; padding: 3px 10px; border-radius: 12px; font-size: 12px; text-transform: uppercase; }
.footer { text-align: center; color: #a0aec0; margin-top: 24px; font-size: 13px; }
a { color: #2b6cb0; }
</style>
</head>
<body>
<div class="container">
<header><h1>Monitor Nieruchomości</h1><p>Mieszkania na sprzedaż we Wrocławiu</p></header>
<div class="stats">
<div class="stat"><b>{{.Total}}</b>Aktywnych ofert</div>
{{range $portal, $count := .Counts}}<div class="stat"><b>{{$count}}</b>{{$portal}}</div>
{{end}}</div>
{{range .Listings}}<div class="card">
<h3>{{.Listing.Title}} <span class="badge">{{.Listing.Portal}}</span></h3>
<div class="price">{{zl .Listing.Price}}</div>
<div class="meta">{{area .Listing.Area}} &bull; {{perM2 .Listing.PricePerM2}} &bull; {{.Listing.Location}}</div>
<div class="meta">Dodano: {{date .FirstSeen}} &bull; <a href="{{.Listing.URL}}" target="_blank">Zobacz ogłoszenie</a></div>
</div>
{{end}}<p class="footer">Ostatnia aktualizacja: {{date .GeneratedAt}}</p>
</div>
</body>
</html>
`
