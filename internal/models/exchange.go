package models

import "time"

// Exchange tracks a book handover between two users. State transitions
// are enforced server-side; the client only renders them.
type Exchange struct {
	ID          string    `json:"id"`
	BookID      string    `json:"bookId"`
	RequesterID string    `json:"requesterId"`
	OwnerID     string    `json:"ownerId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// HandoverCode is the payload encoded into the handover QR code. The
// nonce ties a scan to one generated code so a screenshot of an old
// code cannot confirm a different exchange.
type HandoverCode struct {
	ExchangeID string `json:"exchangeId"`
	Nonce      string `json:"nonce"`
}
