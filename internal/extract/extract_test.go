package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{"spaced thousands", "350 000 zł", 350000, true},
		{"dotted thousands", "1.250.000 zł", 1250000, true},
		{"nbsp separator", "489 000 zł", 489000, true},
		{"plain number", "420000", 420000, true},
		{"no digits", "brak ceny", 0, false},
		{"empty", "", 0, false},
		{"zero parses as zero", "0 zł", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Price(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  float64
		known bool
	}{
		{"comma decimal with superscript", "Mieszkanie 45,5 m² Centrum", 45.5, true},
		{"dot decimal", "62.3 m2", 62.3, true},
		{"bare m unit", "38 m, 2 pokoje", 38, true},
		{"no space before unit", "54m²", 54, true},
		{"first match wins", "70 m² działka 500 m²", 70, true},
		{"no area", "Mieszkanie na sprzedaż", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Area(tt.in)
			assert.Equal(t, tt.known, got.Known)
			if tt.known {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}
