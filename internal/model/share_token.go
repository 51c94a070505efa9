package model

// ShareToken is the public capability for one list. RevokedAt stays zero
// while the token is active; a revoked token is terminal and never reused.
type ShareToken struct {
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	State     int    `json:"state"`
	RevokedAt int64  `json:"revoked_at"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}
