package model

// Product is a single entry of affiliate-products.
type Product struct {
	Link           string  `json:"link"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	PriceVAT       float64 `json:"price_vat"`
	Price          float64 `json:"price"`
	AdvertiserID   int     `json:"advertiser_id"`
	AdvertiserName string  `json:"advertiser_name"`
	CategoryName   string  `json:"category_name"`
}

// ProductList is one page of products.
type ProductList struct {
	CurrentPage    int       `json:"current_page"`
	TotalPages     int       `json:"total_pages"`
	RecordsPerPage int       `json:"records_per_page"`
	Products       []Product `json:"products"`
}

type ProductResponse struct {
	Result ProductList `json:"result"`
}

// ListProductsParams are the supported affiliate-products filters.
type ListProductsParams struct {
	Page        int
	Advertisers string // comma separated advertiser ids, e.g. "45,41"
	PartNo      string
}

type Advertiser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Logo     string `json:"logo"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type AdvertiserResponse struct {
	Result []Advertiser `json:"result"`
}
