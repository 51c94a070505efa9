package model

type GlobalItem struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	Brand             string `json:"brand"`
	WeightGrams       int    `json:"weight_grams"`
	PriceCents        int64  `json:"price_cents"`
	Link              string `json:"link"`
	Image             string `json:"image"`
	AffiliateURL      string `json:"affiliate_url"`
	AffiliateSource   string `json:"affiliate_source"`
	ImportedFromShare int    `json:"imported_from_share"`
	Ctime             int64  `json:"ctime"`
	Mtime             int64  `json:"mtime"`
}
