// Package users is the profile feature service: thin calls through the
// dispatcher plus cache-through of the session user's profile.
package users

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

type Service struct {
	client *api.Client
	store  credentials.Store
	log    zerolog.Logger
}

func NewService(client *api.Client, store credentials.Store, log zerolog.Logger) *Service {
	return &Service{client: client, store: store, log: log}
}

// Profile fetches a user's public profile.
func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return &user, nil
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	City      string `json:"city,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UpdateProfile updates the session user's profile and writes the
// server's copy through to the cache.
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.client.Put(ctx, "/users/me", req, &user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := s.store.SetUser(&user); err != nil {
		s.log.Warn().Err(err).Msg("users: failed to cache profile")
	}

	return &user, nil
}
