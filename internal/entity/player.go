package entity

// Player identifies a board participant. IDs are opaque strings; the
// server mints one on connect when the client has none.
type Player struct {
	ID string `json:"id"`
}
