package model

// Item carries a denormalized copy of its GlobalItem fields so a stale or
// deleted template never breaks rendering. CategoryID and GlobalItemID are
// empty when unset.
type Item struct {
	ID           string `json:"id"`
	ListID       string `json:"list_id"`
	CategoryID   string `json:"category_id"`
	GlobalItemID string `json:"global_item_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Notes        string `json:"notes"`
	WeightGrams  int    `json:"weight_grams"`
	PriceCents   int64  `json:"price_cents"`
	Link         string `json:"link"`
	Image        string `json:"image"`
	AffiliateURL string `json:"affiliate_url"`
	Worn         int    `json:"worn"`
	Consumable   int    `json:"consumable"`
	Quantity     int    `json:"quantity"`
	Position     int    `json:"position"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
