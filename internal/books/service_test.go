package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := credentials.NewMemoryStore(zerolog.Nop())
	require.NoError(t, store.SetAccessToken("valid-token"))

	client, err := api.New(api.Config{BaseURL: server.URL}, store)
	require.NoError(t, err)

	return NewService(client)
}

func writeEnvelope(w http.ResponseWriter, path string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     true,
		"path":       path,
		"statusCode": http.StatusOK,
		"result":     payload,
	})
}

func TestNearby(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/nearby", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "5.6037", q.Get("lat"))
		assert.Equal(t, "-0.187", q.Get("lng"))
		assert.Equal(t, "5", q.Get("radiusKm"))

		writeEnvelope(w, r.URL.Path, []models.Book{
			{ID: "b1", Title: "Things Fall Apart", Author: "Chinua Achebe", DistanceKm: 1.2},
			{ID: "b2", Title: "Homegoing", Author: "Yaa Gyasi", DistanceKm: 3.4},
		})
	}))

	books, err := svc.Nearby(context.Background(), 5.6037, -0.187, 5)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Things Fall Apart", books[0].Title)
	assert.InDelta(t, 3.4, books[1].DistanceKm, 0.001)
}

func TestSearch_EscapesQuery(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/search", r.URL.Path)
		assert.Equal(t, "purple hibiscus & co", r.URL.Query().Get("q"))
		writeEnvelope(w, r.URL.Path, []models.Book{{ID: "b3", Title: "Purple Hibiscus"}})
	}))

	books, err := svc.Search(context.Background(), "purple hibiscus & co")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b3", books[0].ID)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"status":     false,
			"statusCode": http.StatusNotFound,
			"message":    "book not found",
		})
	}))

	_, err := svc.Get(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestCreateListing(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/books", r.URL.Path)

		var req models.NewListing
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "The Beautyful Ones Are Not Yet Born", req.Title)
		assert.InDelta(t, 5.6037, req.Latitude, 0.0001)

		writeEnvelope(w, r.URL.Path, models.Book{ID: "b9", Title: req.Title, OwnerID: "u1"})
	}))

	book, err := svc.CreateListing(context.Background(), models.NewListing{
		Title:     "The Beautyful Ones Are Not Yet Born",
		Author:    "Ayi Kwei Armah",
		Condition: "good",
		Latitude:  5.6037,
		Longitude: -0.187,
	})
	require.NoError(t, err)
	assert.Equal(t, "b9", book.ID)
	assert.Equal(t, "u1", book.OwnerID)
}
