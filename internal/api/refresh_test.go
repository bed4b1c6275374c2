package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
)

func newTestCoordinator(store credentials.Store, refresh func(ctx context.Context, refreshToken string) (*oauth2.Token, error)) *refreshCoordinator {
	return &refreshCoordinator{
		store:   store,
		refresh: refresh,
		timeout: 5 * time.Second,
		log:     zerolog.Nop(),
	}
}

func TestRefreshCoordinator_ReleasesWaitersInArrivalOrder(t *testing.T) {
	rc := newTestCoordinator(credentials.NewMemoryStore(zerolog.Nop()), nil)

	var order []int

	rc.mu.Lock()
	rc.inFlight = true
	for i := 1; i <= 5; i++ {
		i := i
		rc.enqueue(func(refreshResult) { order = append(order, i) })
	}
	rc.mu.Unlock()

	rc.settle(refreshResult{token: "fresh"})

	assert.Equal(t, []int{1, 2, 3, 4, 5}, order, "continuations must run in the order they queued")

	rc.mu.Lock()
	defer rc.mu.Unlock()
	assert.False(t, rc.inFlight, "coordinator must return to idle")
	assert.Nil(t, rc.waiters, "queue must be drained")
}

func TestRefreshCoordinator_SingleRefreshForConcurrentCallers(t *testing.T) {
	const callers = 8

	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetRefreshToken("valid-refresh"))

	var refreshCalls atomic.Int32
	release := make(chan struct{})

	rc := newTestCoordinator(store, func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		refreshCalls.Add(1)
		<-release
		return &oauth2.Token{AccessToken: "fresh-access"}, nil
	})

	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = rc.await(context.Background())
		}(i)
	}

	// Wait for the first caller to start the refresh, then let the rest
	// pile up behind it before releasing.
	require.Eventually(t, func() bool {
		return refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), refreshCalls.Load(), "one refresh call serves every concurrent caller")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, "fresh-access", tokens[i], "caller %d", i)
	}

	token, err := store.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
}

func TestRefreshCoordinator_MissingRefreshTokenSkipsHTTP(t *testing.T) {
	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetAccessToken("stale-access"))

	rc := newTestCoordinator(store, func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		t.Error("refresh callback must not run without a stored refresh token")
		return nil, errors.New("unreachable")
	})

	_, err := rc.await(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)

	token, terr := store.AccessToken()
	require.NoError(t, terr)
	assert.Empty(t, token, "session must be cleared")
}

func TestRefreshCoordinator_FailureIsTerminalForAllWaiters(t *testing.T) {
	const callers = 4

	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetAccessToken("stale-access"))
	require.NoError(t, store.SetRefreshToken("dead-refresh"))

	var refreshCalls atomic.Int32
	release := make(chan struct{})

	rc := newTestCoordinator(store, func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		refreshCalls.Add(1)
		<-release
		return nil, errors.New("refresh token revoked")
	})

	var wg sync.WaitGroup
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = rc.await(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.ErrorIs(t, errs[i], ErrSessionExpired, "caller %d must see the terminal error", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "failure must not trigger a second attempt for queued callers")

	refresh, err := store.RefreshToken()
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestRefreshCoordinator_WaiterAbandonsOnContextCancel(t *testing.T) {
	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetRefreshToken("valid-refresh"))

	started := make(chan struct{})
	release := make(chan struct{})

	rc := newTestCoordinator(store, func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		close(started)
		<-release
		return &oauth2.Token{AccessToken: "fresh-access"}, nil
	})

	go rc.await(context.Background())
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rc.await(ctx)
	assert.ErrorIs(t, err, context.Canceled, "a cancelled waiter leaves without blocking the cycle")

	// The abandoned continuation must not wedge the settle loop.
	close(release)

	require.Eventually(t, func() bool {
		rc.mu.Lock()
		defer rc.mu.Unlock()
		return !rc.inFlight
	}, 2*time.Second, 5*time.Millisecond)

	token, terr := store.AccessToken()
	require.NoError(t, terr)
	assert.Equal(t, "fresh-access", token, "the refresh still completes and persists")
}

func TestRefreshCoordinator_NextCycleStartsFreshAfterSettle(t *testing.T) {
	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetRefreshToken("valid-refresh"))

	var refreshCalls atomic.Int32
	rc := newTestCoordinator(store, func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		n := refreshCalls.Add(1)
		return &oauth2.Token{AccessToken: "access-" + string(rune('0'+n))}, nil
	})

	first, err := rc.await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", first)

	// A 401 after the previous cycle settled starts a new one.
	second, err := rc.await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", second)

	assert.Equal(t, int32(2), refreshCalls.Load())
}
