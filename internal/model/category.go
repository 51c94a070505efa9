package model

type Category struct {
	ID       string `json:"id"`
	ListID   string `json:"list_id"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
