// Package exchanges is the exchange feature service: requesting an
// exchange and the QR handover confirmation round-trip. Exchange state
// transitions are enforced server-side; the client only submits
// intents.
package exchanges

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Request asks the owner of bookID for an exchange. A generated
// idempotency key lets the backend dedupe a double-tap into a single
// exchange.
func (s *Service) Request(ctx context.Context, bookID string) (*models.Exchange, error) {
	body := map[string]string{"bookId": bookID}
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	var exchange models.Exchange
	err := s.client.DoWithHeaders(ctx, "POST", "/exchanges", headers, body, &exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to request exchange: %w", err)
	}
	return &exchange, nil
}

// List returns the session user's exchanges.
func (s *Service) List(ctx context.Context) ([]models.Exchange, error) {
	var exchanges []models.Exchange
	if err := s.client.Get(ctx, "/exchanges", &exchanges); err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

// HandoverCode produces the payload the giving party renders as a QR
// code. The nonce is single-use; the server invalidates it once
// scanned.
func (s *Service) HandoverCode(exchangeID string) models.HandoverCode {
	return models.HandoverCode{
		ExchangeID: exchangeID,
		Nonce:      uuid.NewString(),
	}
}

// ConfirmHandover submits a scanned handover code, completing the
// physical book handover for that exchange.
func (s *Service) ConfirmHandover(ctx context.Context, code models.HandoverCode) (*models.Exchange, error) {
	path := "/exchanges/" + url.PathEscape(code.ExchangeID) + "/handover"

	var exchange models.Exchange
	if err := s.client.Post(ctx, path, code, &exchange); err != nil {
		return nil, fmt.Errorf("failed to confirm handover: %w", err)
	}
	return &exchange, nil
}
