package model

type List struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Region      string `json:"region"`
	Currency    string `json:"currency"`
	State       int    `json:"state"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
