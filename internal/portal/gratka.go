package portal

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/extract"
	"github.com/mwalkowiak/flatwatch/internal/model"
)

// gratkaSelectors isolates the structural assumptions about the Gratka
// result page.
type gratkaSelectors struct {
	Item       string
	Title      string
	Price      string
	Param      string // repeated parameter items, one of which carries the area
	Link       string
	AreaMarker string
}

var defaultGratkaSelectors = gratkaSelectors{
	Item:       "article.teaserUnified",
	Title:      "h2",
	Price:      "span.teaserUnified__price",
	Param:      "li.teaserUnified__param",
	Link:       "a[href]",
	AreaMarker: "m²",
}

// Gratka scrapes the Gratka result page. The upstream query is a fixed
// default result page; criteria are applied client-side after the fetch.
type Gratka struct {
	origin    string
	searchURL string
	sel       gratkaSelectors
	maxItems  int
}

// NewGratka creates the Gratka adapter with its default selector table.
func NewGratka() *Gratka {
	return &Gratka{
		origin:    "https://gratka.pl",
		searchURL: "https://gratka.pl/nieruchomosci/mieszkania/dolnoslaskie/wroclaw/sprzedaz",
		sel:       defaultGratkaSelectors,
		maxItems:  20,
	}
}

func (g *Gratka) Name() model.Portal { return model.PortalGratka }
func (g *Gratka) Origin() string     { return g.origin }

// SetMaxItems bounds the number of candidates per invocation.
func (g *Gratka) SetMaxItems(n int) {
	if n > 0 {
		g.maxItems = n
	}
}

func (g *Gratka) Fetch(ctx context.Context, client *Client, criteria model.Criteria) ([]model.Listing, error) {
	log := zap.L().With(zap.String("component", "portal.gratka"))

	body, err := client.Get(ctx, g.searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "gratka: parse page")
	}

	var listings []model.Listing
	doc.Find(g.sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find(g.sel.Title).First().Text())
		priceText := strings.TrimSpace(item.Find(g.sel.Price).First().Text())
		href, _ := item.Find(g.sel.Link).First().Attr("href")

		if title == "" || priceText == "" || href == "" {
			log.Debug("skipping candidate with missing fields")
			return true
		}

		price, ok := extract.Price(priceText)
		if !ok || price == 0 {
			return true
		}

		// Area hides among the parameter items rather than a dedicated field.
		area := model.UnknownArea()
		item.Find(g.sel.Param).EachWithBreak(func(_ int, p *goquery.Selection) bool {
			if strings.Contains(p.Text(), g.sel.AreaMarker) {
				area = extract.Area(p.Text())
				return false
			}
			return true
		})
		if !area.Known {
			area = extract.Area(title)
		}

		if !criteria.PriceInRange(price) || !criteria.AreaInRange(area) {
			return true
		}

		listings = append(listings, model.Listing{
			Portal:     model.PortalGratka,
			Title:      title,
			Price:      price,
			Area:       area,
			PricePerM2: model.PricePerM2For(price, area),
			Location:   "Wrocław",
			URL:        absURL(g.origin, href),
		})
		return len(listings) < g.maxItems
	})

	log.Info("fetched", zap.Int("listings", len(listings)))
	return listings, nil
}
