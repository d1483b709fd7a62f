package domain

// Product is one listing entry as displayed by the catalogue. Price is kept as
// the display string and only ever compared for equality.
type Product struct {
	Name     string `json:"name" bson:"name"`
	Price    string `json:"price" bson:"price"`
	ImageURL string `json:"url" bson:"image_url"`
}

// CacheKey is the change-cache key for the product. Two products sharing a
// display name share a key.
func (p Product) CacheKey() string {
	return "product:" + p.Name
}

// CrawlSettings are fixed for the lifetime of a single crawl.
type CrawlSettings struct {
	MaxPages int    `json:"max_pages,omitempty"` // 0 = no limit besides the hard page limit
	Proxy    string `json:"proxy,omitempty"`
}
