package models

// Book is a single listing on the exchange.
type Book struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Condition  string   `json:"condition,omitempty"`
	CoverURL   string   `json:"coverUrl,omitempty"`
	OwnerID    string   `json:"ownerId"`
	OwnerName  string   `json:"ownerName,omitempty"`
	DistanceKm float64  `json:"distanceKm,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// NewListing is the payload for creating a listing.
type NewListing struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Condition string   `json:"condition,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}
