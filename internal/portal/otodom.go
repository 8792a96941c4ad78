package portal

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/extract"
	"github.com/mwalkowiak/flatwatch/internal/model"
)

// otodomSelectors isolates every structural assumption about the Otodom
// result page. The upstream markup gets restructured regularly, so adjusting
// these constants is the expected maintenance, not rewriting the adapter.
type otodomSelectors struct {
	Item        string // repeated listing container
	Title       string
	Link        string
	Location    string
	PriceMarker string // substring identifying the price span
	AreaMarker  string // substring identifying the area span
}

var defaultOtodomSelectors = otodomSelectors{
	Item:        "article[data-cy=listing-item]",
	Title:       "h3",
	Link:        "a[href]",
	Location:    "p[data-cy=listing-item-location]",
	PriceMarker: "zł",
	AreaMarker:  "m²",
}

// Otodom scrapes the Otodom search result page. Criteria are forwarded to the
// upstream query, so no client-side filtering is applied here.
type Otodom struct {
	origin    string
	searchURL string
	sel       otodomSelectors
	maxItems  int
}

// NewOtodom creates the Otodom adapter with its default selector table.
func NewOtodom() *Otodom {
	return &Otodom{
		origin:    "https://www.otodom.pl",
		searchURL: "https://www.otodom.pl/pl/wyniki/sprzedaz/mieszkanie/dolnoslaskie/wroclaw",
		sel:       defaultOtodomSelectors,
		maxItems:  20,
	}
}

func (o *Otodom) Name() model.Portal { return model.PortalOtodom }
func (o *Otodom) Origin() string     { return o.origin }

// SetMaxItems bounds the number of candidates per invocation.
func (o *Otodom) SetMaxItems(n int) {
	if n > 0 {
		o.maxItems = n
	}
}

func (o *Otodom) Fetch(ctx context.Context, client *Client, criteria model.Criteria) ([]model.Listing, error) {
	log := zap.L().With(zap.String("component", "portal.otodom"))

	body, err := client.Get(ctx, o.queryURL(criteria))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "otodom: parse page")
	}

	var listings []model.Listing
	doc.Find(o.sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find(o.sel.Title).First().Text())
		priceText := findMarkedText(item, o.sel.PriceMarker)
		href, _ := item.Find(o.sel.Link).First().Attr("href")

		// One bad candidate never aborts the batch.
		if title == "" || priceText == "" || href == "" {
			log.Debug("skipping candidate with missing fields")
			return true
		}

		price, ok := extract.Price(priceText)
		if !ok || price == 0 {
			return true
		}

		area := extract.Area(findMarkedText(item, o.sel.AreaMarker))
		if !area.Known {
			area = extract.Area(title)
		}

		listings = append(listings, model.Listing{
			Portal:     model.PortalOtodom,
			Title:      title,
			Price:      price,
			Area:       area,
			PricePerM2: model.PricePerM2For(price, area),
			Location:   strings.TrimSpace(item.Find(o.sel.Location).First().Text()),
			URL:        absURL(o.origin, href),
		})
		return len(listings) < o.maxItems
	})

	log.Info("fetched", zap.Int("listings", len(listings)))
	return listings, nil
}

// queryURL forwards criteria bounds as upstream filter parameters.
func (o *Otodom) queryURL(c model.Criteria) string {
	params := url.Values{}
	if c.MinPrice > 0 {
		params.Set("priceMin", fmt.Sprintf("%d", c.MinPrice))
	}
	if c.MaxPrice > 0 {
		params.Set("priceMax", fmt.Sprintf("%d", c.MaxPrice))
	}
	if c.MinArea > 0 {
		params.Set("areaMin", fmt.Sprintf("%.0f", c.MinArea))
	}
	if c.MaxArea > 0 {
		params.Set("areaMax", fmt.Sprintf("%.0f", c.MaxArea))
	}
	if len(params) == 0 {
		return o.searchURL
	}
	return o.searchURL + "?" + params.Encode()
}

// findMarkedText returns the text of the first span containing the marker
// substring. Price and area spans on Otodom carry no stable attribute, only
// their unit text.
func findMarkedText(item *goquery.Selection, marker string) string {
	var found string
	item.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(text, marker) {
			found = text
			return false
		}
		return true
	})
	return found
}
