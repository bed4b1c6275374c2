// Package auth implements the login/logout flows on top of the
// dispatcher: OTP request and verification, session persistence, and
// best-effort logout.
package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

// Service drives authentication against the backend and owns writing
// the resulting session into the credential store.
type Service struct {
	client *api.Client
	store  credentials.Store
	log    zerolog.Logger
}

// NewService creates the auth service.
func NewService(client *api.Client, store credentials.Store, log zerolog.Logger) *Service {
	return &Service{client: client, store: store, log: log}
}

// RequestOTP asks the backend to send a one-time code to phone. This is
// a public endpoint; no credentials are attached.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	if err := s.client.Post(ctx, "/auth/otp/request", body, nil); err != nil {
		return fmt.Errorf("failed to request OTP: %w", err)
	}
	return nil
}

// VerifyOTP exchanges phone+code for a session. On success the token
// pair and profile are persisted so the session survives restarts.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*models.User, error) {
	body := map[string]string{"phone": phone, "code": code}

	var resp struct {
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
		User         *models.User `json:"user"`
	}
	if err := s.client.Post(ctx, "/auth/otp/verify", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    "Bearer",
	}
	if err := s.saveSession(token, resp.User); err != nil {
		return nil, err
	}

	return resp.User, nil
}

// Me fetches the current profile and refreshes the cached copy. The
// cache is never authoritative; the server response always supersedes
// it.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/users/me", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if err := s.store.SetUser(&user); err != nil {
		s.log.Warn().Err(err).Msg("auth: failed to cache profile")
	}

	return &user, nil
}

// Logout ends the session. The server-side call is explicitly
// best-effort: a failure is logged and ignored so local cleanup always
// runs, even offline or with broken storage.
func (s *Service) Logout(ctx context.Context) {
	if err := s.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.log.Warn().Err(err).Msg("auth: server logout failed, clearing local session anyway")
	}

	s.store.ClearTokens()
	s.store.ClearUser()
}

// CachedUser returns the last-known profile without touching the
// network, for fast startup rendering.
func (s *Service) CachedUser() (*models.User, error) {
	return s.store.User()
}

// HasSession reports whether a stored access token exists. It says
// nothing about validity; an expired token is discovered (and handled)
// on the first authenticated request.
func (s *Service) HasSession() bool {
	token, err := s.store.AccessToken()
	if err != nil {
		s.log.Warn().Err(err).Msg("auth: failed to read stored session")
		return false
	}
	return token != ""
}

func (s *Service) saveSession(token *oauth2.Token, user *models.User) error {
	if err := s.store.SetAccessToken(token.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := s.store.SetRefreshToken(token.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	if user != nil {
		if err := s.store.SetUser(user); err != nil {
			s.log.Warn().Err(err).Msg("auth: failed to cache profile")
		}
	}
	return nil
}
