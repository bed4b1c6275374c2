package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
)

// refreshResult is what every caller blocked on a refresh cycle
// receives when it settles: the fresh access token, or the terminal
// error for that cycle.
type refreshResult struct {
	token string
	err   error
}

// refreshCoordinator serializes token refreshes. At most one refresh
// HTTP call is ever in transit; callers that hit a 401 while one is in
// flight enqueue a continuation and are released in arrival order when
// it settles. State is per coordinator (one per Client), never
// package-level, so independent clients cannot share it.
type refreshCoordinator struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []func(refreshResult)

	store   credentials.Store
	refresh func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	timeout time.Duration
	log     zerolog.Logger
}

// await returns a fresh access token, either by performing the refresh
// itself (first caller in) or by waiting behind the refresh already in
// flight. ctx only bounds this caller's wait; an in-flight refresh runs
// to completion regardless, so the waiters behind it still settle.
func (rc *refreshCoordinator) await(ctx context.Context) (string, error) {
	rc.mu.Lock()
	if rc.inFlight {
		ch := make(chan refreshResult, 1)
		rc.enqueue(func(res refreshResult) { ch <- res })
		rc.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	rc.inFlight = true
	rc.mu.Unlock()

	res := rc.run()
	rc.settle(res)
	return res.token, res.err
}

// enqueue appends a continuation. Caller must hold rc.mu.
func (rc *refreshCoordinator) enqueue(resume func(refreshResult)) {
	rc.waiters = append(rc.waiters, resume)
}

// run performs one refresh cycle and reports its outcome. A missing
// refresh token short-circuits without any HTTP call. Every failure is
// terminal for the session: tokens and the cached profile are cleared
// so the application lands on re-authentication, not a retry loop.
func (rc *refreshCoordinator) run() refreshResult {
	refreshToken, err := rc.store.RefreshToken()
	if err != nil {
		rc.clearSession()
		return refreshResult{err: fmt.Errorf("%w: reading refresh token: %v", ErrSessionExpired, err)}
	}
	if refreshToken == "" {
		rc.clearSession()
		return refreshResult{err: fmt.Errorf("%w: no refresh token stored", ErrSessionExpired)}
	}

	// Detached context: the refresh settles even if the triggering
	// caller's UI context has been dismissed, because the queued
	// callers behind it depend on the outcome.
	refreshCtx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()

	token, err := rc.refresh(refreshCtx, refreshToken)
	if err != nil {
		rc.log.Warn().Err(err).Msg("api: token refresh failed, clearing session")
		rc.clearSession()
		return refreshResult{err: fmt.Errorf("%w: %v", ErrSessionExpired, err)}
	}

	if err := rc.store.SetAccessToken(token.AccessToken); err != nil {
		// The refreshed token is still good in memory; callers proceed
		// with it and the next refresh will try to persist again.
		rc.log.Warn().Err(err).Msg("api: failed to persist access token")
	}
	if token.RefreshToken != "" {
		if err := rc.store.SetRefreshToken(token.RefreshToken); err != nil {
			rc.log.Warn().Err(err).Msg("api: failed to persist refresh token")
		}
	}

	rc.log.Debug().Msg("api: access token refreshed")
	return refreshResult{token: token.AccessToken}
}

// settle resets the coordinator to idle and releases every queued
// continuation in strict arrival order. Continuations are buffered
// sends, so a waiter that stopped listening cannot block the rest.
func (rc *refreshCoordinator) settle(res refreshResult) {
	rc.mu.Lock()
	waiters := rc.waiters
	rc.waiters = nil
	rc.inFlight = false
	rc.mu.Unlock()

	for _, resume := range waiters {
		resume(res)
	}
}

func (rc *refreshCoordinator) clearSession() {
	rc.store.ClearTokens()
	rc.store.ClearUser()
}
