package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vitor-labes/catalogue-scraper/internal/config"
)

func listingHTML(titles, prices, images int) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><ul class="products">`)
	for i := 0; i < max(titles, prices, images); i++ {
		b.WriteString(`<li class="product-inner clearfix">`)
		if i < images {
			fmt.Fprintf(&b, `<div class="mf-product-thumbnail"><img src="/img/p%d.jpg"></div>`, i)
		}
		b.WriteString(`<div class="mf-product-content">`)
		if i < titles {
			fmt.Fprintf(&b, `<h2 class="woo-loop-product__title"> <a href="/p/%d">Product %d</a> </h2>`, i, i)
		}
		b.WriteString(`</div><div class="mf-product-price-box">`)
		if i < prices {
			fmt.Fprintf(&b, `<span class="woocommerce-Price-amount amount"><span class="currency">£</span> %d.00</span>`, 10+i)
		}
		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func TestParseListing(t *testing.T) {
	tests := []struct {
		name                   string
		titles, prices, images int
		want                   int
	}{
		{name: "aligned facets", titles: 3, prices: 3, images: 3, want: 3},
		{name: "mismatched facets truncate to minimum", titles: 5, prices: 4, images: 6, want: 4},
		{name: "missing images", titles: 2, prices: 2, images: 0, want: 0},
		{name: "empty page", want: 0},
	}

	sel := config.NewDefault().Selectors

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := ParseListing(strings.NewReader(listingHTML(tt.titles, tt.prices, tt.images)), sel)
			if err != nil {
				t.Fatalf("ParseListing() error = %v", err)
			}
			if len(products) != tt.want {
				t.Fatalf("got %d products, want %d", len(products), tt.want)
			}
			for i, p := range products {
				if want := fmt.Sprintf("Product %d", i); p.Name != want {
					t.Errorf("products[%d].Name = %q, want %q", i, p.Name, want)
				}
				if want := fmt.Sprintf("£%d.00", 10+i); p.Price != want {
					t.Errorf("products[%d].Price = %q, want %q", i, p.Price, want)
				}
				if want := fmt.Sprintf("/img/p%d.jpg", i); p.ImageURL != want {
					t.Errorf("products[%d].ImageURL = %q, want %q", i, p.ImageURL, want)
				}
			}
		})
	}
}
