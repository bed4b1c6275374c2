// Package books is the listings feature service: location-based
// discovery, text search and listing creation through the dispatcher.
package books

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Nearby lists books offered within radiusKm of the given point.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Book, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radiusKm", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var books []models.Book
	if err := s.client.Get(ctx, "/books/nearby?"+q.Encode(), &books); err != nil {
		return nil, fmt.Errorf("failed to list nearby books: %w", err)
	}
	return books, nil
}

// Search performs a title/author text search.
func (s *Service) Search(ctx context.Context, query string) ([]models.Book, error) {
	q := url.Values{}
	q.Set("q", query)

	var books []models.Book
	if err := s.client.Get(ctx, "/books/search?"+q.Encode(), &books); err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}

// Get fetches a single listing.
func (s *Service) Get(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := s.client.Get(ctx, "/books/"+url.PathEscape(id), &book); err != nil {
		return nil, fmt.Errorf("failed to fetch book %s: %w", id, err)
	}
	return &book, nil
}

// CreateListing publishes a new listing owned by the session user.
func (s *Service) CreateListing(ctx context.Context, req models.NewListing) (*models.Book, error) {
	var book models.Book
	if err := s.client.Post(ctx, "/books", req, &book); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return &book, nil
}
