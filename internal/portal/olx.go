package portal

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/extract"
	"github.com/mwalkowiak/flatwatch/internal/model"
)

// olxPaths isolates the embedded-state script selector and the gjson paths
// navigated inside it. OLX ships its result list as a serialized object graph
// in a script tag, which is far more stable than the rendered markup, so this
// adapter prefers the embedded-data strategy.
type olxPaths struct {
	StateScript string // script tag carrying the serialized state
	Items       string // path to the array of listing objects
	Title       string // paths within one item
	URL         string
	PriceText   string
	AreaText    string
	Location    string
}

var defaultOLXPaths = olxPaths{
	StateScript: `script[id=olx-init]`,
	Items:       "data.listing.listings",
	Title:       "title",
	URL:         "url",
	PriceText:   "price.displayValue",
	AreaText:    "params.area",
	Location:    "location.city",
}

// OLX scrapes the OLX result page via its embedded state payload. The
// upstream query is a fixed default result page; criteria are applied
// client-side after the fetch.
type OLX struct {
	origin    string
	searchURL string
	paths     olxPaths
	maxItems  int
}

// NewOLX creates the OLX adapter with its default path table.
func NewOLX() *OLX {
	return &OLX{
		origin:    "https://www.olx.pl",
		searchURL: "https://www.olx.pl/nieruchomosci/mieszkania/sprzedaz/wroclaw/",
		paths:     defaultOLXPaths,
		maxItems:  20,
	}
}

func (o *OLX) Name() model.Portal { return model.PortalOLX }
func (o *OLX) Origin() string     { return o.origin }

// SetMaxItems bounds the number of candidates per invocation.
func (o *OLX) SetMaxItems(n int) {
	if n > 0 {
		o.maxItems = n
	}
}

func (o *OLX) Fetch(ctx context.Context, client *Client, criteria model.Criteria) ([]model.Listing, error) {
	log := zap.L().With(zap.String("component", "portal.olx"))

	body, err := client.Get(ctx, o.searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "olx: parse page")
	}

	payload := strings.TrimSpace(doc.Find(o.paths.StateScript).First().Text())
	if payload == "" {
		// Script tag gone means the page shape changed; treat as no listings
		// found rather than failing the cycle.
		log.Warn("embedded state script not found")
		return nil, nil
	}

	items := gjson.Get(payload, o.paths.Items)
	if !items.Exists() || !items.IsArray() {
		log.Warn("embedded state path absent", zap.String("path", o.paths.Items))
		return nil, nil
	}

	var listings []model.Listing
	for _, item := range items.Array() {
		if len(listings) >= o.maxItems {
			break
		}

		title := strings.TrimSpace(item.Get(o.paths.Title).String())
		href := strings.TrimSpace(item.Get(o.paths.URL).String())
		if title == "" || href == "" {
			log.Debug("skipping candidate with missing fields")
			continue
		}

		price, ok := extract.Price(item.Get(o.paths.PriceText).String())
		if !ok || price == 0 {
			continue
		}

		// OLX often carries the floor area only in the title.
		area := extract.Area(item.Get(o.paths.AreaText).String())
		if !area.Known {
			area = extract.Area(title)
		}

		if !criteria.PriceInRange(price) || !criteria.AreaInRange(area) {
			continue
		}

		location := strings.TrimSpace(item.Get(o.paths.Location).String())
		if location == "" {
			location = "Wrocław"
		}

		listings = append(listings, model.Listing{
			Portal:     model.PortalOLX,
			Title:      title,
			Price:      price,
			Area:       area,
			PricePerM2: model.PricePerM2For(price, area),
			Location:   location,
			URL:        absURL(o.origin, href),
		})
	}

	log.Info("fetched", zap.Int("listings", len(listings)))
	return listings, nil
}
