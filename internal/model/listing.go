// Package model defines the domain types shared across the monitor.
package model

import (
	"math"
	"time"
)

// Portal identifies a listings source.
type Portal string

const (
	PortalOtodom Portal = "otodom"
	PortalOLX    Portal = "olx"
	PortalGratka Portal = "gratka"
)

// Area is an optional surface measurement in square meters. Portals often
// omit it; an unknown area is distinct from a zero one.
type Area struct {
	Value float64
	Known bool
}

// KnownArea returns a present area value.
func KnownArea(v float64) Area { return Area{Value: v, Known: true} }

// UnknownArea returns the absent value.
func UnknownArea() Area { return Area{} }

// Positive reports whether the area is known and greater than zero.
func (a Area) Positive() bool { return a.Known && a.Value > 0 }

// Listing is one offer as observed on a portal results page.
type Listing struct {
	Portal     Portal
	Title      string
	Price      int64 // PLN, whole złoty
	Area       Area
	PricePerM2 float64 // derived, 0 when area is unknown
	Location   string
	URL        string
}

// PricePerM2For derives the per-square-meter price, rounded to two decimal
// places. It returns 0 when the area is unknown or non-positive.
func PricePerM2For(price int64, area Area) float64 {
	if !area.Positive() {
		return 0
	}
	return math.Round(float64(price)/area.Value*100) / 100
}

// PersistedListing is a listing row as stored, with tracking metadata.
type PersistedListing struct {
	Key       string // stable identity, hex sha256 of portal + canonical URL
	Listing   Listing
	FirstSeen time.Time
	LastSeen  time.Time
	IsActive  bool
}

// Criteria bounds the search. A zero bound means unset.
type Criteria struct {
	MinPrice int64   `yaml:"min_price" mapstructure:"min_price"`
	MaxPrice int64   `yaml:"max_price" mapstructure:"max_price"`
	MinArea  float64 `yaml:"min_area" mapstructure:"min_area"`
	MaxArea  float64 `yaml:"max_area" mapstructure:"max_area"`
}

// PriceInRange reports whether a price satisfies the configured bounds.
// A non-positive price never does; an unparsed price must not become a row.
func (c Criteria) PriceInRange(price int64) bool {
	if price <= 0 {
		return false
	}
	if c.MinPrice > 0 && price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && price > c.MaxPrice {
		return false
	}
	return true
}

// AreaInRange reports whether an area satisfies the configured bounds. An
// unknown area passes only when no area bound is set.
func (c Criteria) AreaInRange(a Area) bool {
	if !a.Known {
		return c.MinArea <= 0 && c.MaxArea <= 0
	}
	if c.MinArea > 0 && a.Value < c.MinArea {
		return false
	}
	if c.MaxArea > 0 && a.Value > c.MaxArea {
		return false
	}
	return true
}

// Scan records one monitoring cycle.
type Scan struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Portals   string // comma-joined portal names
	Found     int
	New       int
	Changed   int
	Failed    int
}
