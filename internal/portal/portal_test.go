package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsURL(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		href   string
		want   string
	}{
		{"absolute untouched", "https://www.otodom.pl", "https://www.otodom.pl/pl/oferta/x", "https://www.otodom.pl/pl/oferta/x"},
		{"rooted path rewritten", "https://www.otodom.pl", "/pl/oferta/x", "https://www.otodom.pl/pl/oferta/x"},
		{"bare path rewritten", "https://gratka.pl", "nieruchomosci/ob/1", "https://gratka.pl/nieruchomosci/ob/1"},
		{"protocol-relative keeps host", "https://www.otodom.pl", "//img.otodom.pl/x", "https://img.otodom.pl/x"},
		{"empty stays empty", "https://www.olx.pl", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, absURL(tt.origin, tt.href))
		})
	}
}
