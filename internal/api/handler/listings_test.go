package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cardmeet/backend/internal/api/handler"
	"cardmeet/backend/internal/geo"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateListing_Validation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"Missing coordinates", gin.H{"game": "Baloot"}},
		{"Unsupported game", gin.H{"lat": 24.7, "lng": 46.6, "game": "Poker"}},
		{"Radius too small", gin.H{"lat": 24.7, "lng": 46.6, "game": "Baloot", "radiusKm": 0.5}},
		{"Radius too large", gin.H{"lat": 24.7, "lng": 46.6, "game": "Baloot", "radiusKm": 16}},
		{"TTL too short", gin.H{"lat": 24.7, "lng": 46.6, "game": "Baloot", "ttlMinutes": 4}},
		{"TTL too long", gin.H{"lat": 24.7, "lng": 46.6, "game": "Baloot", "ttlMinutes": 61}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockStorage)
			r := setupRouter(handler.NewHandler(s), "host-1")

			code, _ := doJSON(t, r, http.MethodPost, "/listings", tt.body)

			assert.Equal(t, http.StatusBadRequest, code)
			s.AssertNotCalled(t, "CreateListing", mock.Anything)
		})
	}
}

func TestCreateListing_Success(t *testing.T) {
	// Arrange
	s := new(MockStorage)
	var created *models.Listing
	s.On("CreateListing", mock.AnythingOfType("*models.Listing")).
		Run(func(args mock.Arguments) {
			created = args.Get(0).(*models.Listing)
		}).Return(nil)
	r := setupRouter(handler.NewHandler(s), "host-1")

	before := time.Now()

	// Act — radius and TTL omitted, so defaults apply.
	code, body := doJSON(t, r, http.MethodPost, "/listings", gin.H{
		"lat":       24.7136,
		"lng":       46.6753,
		"game":      "Baloot",
		"skill":     "intermediate",
		"languages": []string{"ar", "en"},
	})

	// Assert
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "listing")
	if assert.NotNil(t, created) {
		assert.Equal(t, "host-1", created.HostID)
		assert.Equal(t, models.ListingOpen, created.Status)
		assert.Equal(t, models.GameBaloot, created.Game)
		assert.Equal(t, 15.0, created.RadiusKm, "default radius is 15 km")
		assert.Nil(t, created.JoinToken, "no join token until acceptance")

		// Default TTL is 15 minutes.
		wantExpiry := before.Add(15 * time.Minute)
		assert.WithinDuration(t, wantExpiry, created.ExpiresAt, 5*time.Second)
	}
}

func TestDiscoverListings_InvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"Missing coordinates", "/listings"},
		{"Bad lat", "/listings?lat=abc&lng=46.6"},
		{"Radius out of range", "/listings?lat=24.7&lng=46.6&radiusKm=20"},
		{"Unknown game", "/listings?lat=24.7&lng=46.6&game=Chess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockStorage)
			r := setupRouter(handler.NewHandler(s), "")

			code, _ := doJSON(t, r, http.MethodGet, tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

// TestDiscoverListings_MinRadiusRule verifies that a listing is visible
// only within the tighter of the caller's radius and its own, and that
// results come back nearest first.
func TestDiscoverListings_MinRadiusRule(t *testing.T) {
	// Arrange: caller at the origin; distances along the equator are
	// roughly 111.195 km per degree of longitude.
	near := models.Listing{ID: "near", Lat: 0, Lng: 0.02, RadiusKm: 15, Status: models.ListingOpen}      // ~2.22 km
	mid := models.Listing{ID: "mid", Lat: 0, Lng: 0.03, RadiusKm: 15, Status: models.ListingOpen}        // ~3.34 km
	shy := models.Listing{ID: "shy", Lat: 0, Lng: 0.05, RadiusKm: 3, Status: models.ListingOpen}         // ~5.56 km, tight host radius
	distant := models.Listing{ID: "distant", Lat: 0, Lng: 0.2, RadiusKm: 15, Status: models.ListingOpen} // ~22.2 km

	s := new(MockStorage)
	s.On("FindOpenListings", models.GameType("")).
		Return([]models.Listing{distant, shy, mid, near}, nil)
	r := setupRouter(handler.NewHandler(s), "")

	// Act
	code, body := doJSON(t, r, http.MethodGet, "/listings?lat=0&lng=0", nil)

	// Assert: "shy" is excluded by its own 3 km radius even though the
	// caller searched with 15 km; "distant" is beyond the caller's radius.
	assert.Equal(t, http.StatusOK, code)
	results, ok := body["listings"].([]interface{})
	assert.True(t, ok)
	if assert.Len(t, results, 2) {
		first := results[0].(map[string]interface{})
		second := results[1].(map[string]interface{})
		assert.Equal(t, "near", first["id"])
		assert.Equal(t, "mid", second["id"])
		assert.InDelta(t, 2.22, first["distanceKm"].(float64), 0.01)
		assert.InDelta(t, 3.34, second["distanceKm"].(float64), 0.01)
	}
}

// TestDiscoverListings_CallerRadiusTightens verifies the caller's smaller
// radius also cuts listings off.
func TestDiscoverListings_CallerRadiusTightens(t *testing.T) {
	near := models.Listing{ID: "near", Lat: 0, Lng: 0.02, RadiusKm: 15, Status: models.ListingOpen} // ~2.22 km
	mid := models.Listing{ID: "mid", Lat: 0, Lng: 0.03, RadiusKm: 15, Status: models.ListingOpen}   // ~3.34 km

	s := new(MockStorage)
	s.On("FindOpenListings", models.GameType("")).Return([]models.Listing{near, mid}, nil)
	r := setupRouter(handler.NewHandler(s), "")

	code, body := doJSON(t, r, http.MethodGet, "/listings?lat=0&lng=0&radiusKm=3", nil)

	assert.Equal(t, http.StatusOK, code)
	results := body["listings"].([]interface{})
	if assert.Len(t, results, 1) {
		assert.Equal(t, "near", results[0].(map[string]interface{})["id"])
	}
}

// TestDiscoverListings_ExactBoundaryIncluded verifies a listing whose own
// radius equals the caller's distance to it is still visible: the radius
// comparison is inclusive on both sides.
func TestDiscoverListings_ExactBoundaryIncluded(t *testing.T) {
	d := geo.DistanceKm(0, 0, 0, 0.02)
	edge := models.Listing{ID: "edge", Lat: 0, Lng: 0.02, RadiusKm: d, Status: models.ListingOpen}

	s := new(MockStorage)
	s.On("FindOpenListings", models.GameType("")).Return([]models.Listing{edge}, nil)
	r := setupRouter(handler.NewHandler(s), "")

	code, body := doJSON(t, r, http.MethodGet, "/listings?lat=0&lng=0", nil)

	assert.Equal(t, http.StatusOK, code)
	results := body["listings"].([]interface{})
	if assert.Len(t, results, 1) {
		hit := results[0].(map[string]interface{})
		assert.Equal(t, "edge", hit["id"])
		assert.Equal(t, d, hit["distanceKm"].(float64))
	}
}

// TestDiscoverListings_DeterministicTieBreak verifies equidistant listings
// come back ordered by ID.
func TestDiscoverListings_DeterministicTieBreak(t *testing.T) {
	a := models.Listing{ID: "aaa", Lat: 0, Lng: 0.02, RadiusKm: 15, Status: models.ListingOpen}
	b := models.Listing{ID: "bbb", Lat: 0, Lng: 0.02, RadiusKm: 15, Status: models.ListingOpen}

	s := new(MockStorage)
	s.On("FindOpenListings", models.GameType("")).Return([]models.Listing{b, a}, nil)
	r := setupRouter(handler.NewHandler(s), "")

	_, body := doJSON(t, r, http.MethodGet, "/listings?lat=0&lng=0", nil)

	results := body["listings"].([]interface{})
	if assert.Len(t, results, 2) {
		assert.Equal(t, "aaa", results[0].(map[string]interface{})["id"])
		assert.Equal(t, "bbb", results[1].(map[string]interface{})["id"])
	}
}

func TestDiscoverListings_GameFilterPassedThrough(t *testing.T) {
	s := new(MockStorage)
	s.On("FindOpenListings", models.GameTrix).Return([]models.Listing{}, nil)
	r := setupRouter(handler.NewHandler(s), "")

	code, _ := doJSON(t, r, http.MethodGet, "/listings?lat=0&lng=0&game=Trix", nil)

	assert.Equal(t, http.StatusOK, code)
	s.AssertExpectations(t)
}

func TestGetListing(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		s := new(MockStorage)
		s.On("GetListingByID", "l-1").
			Return(&models.Listing{ID: "l-1", Status: models.ListingOpen}, nil)
		r := setupRouter(handler.NewHandler(s), "")

		code, body := doJSON(t, r, http.MethodGet, "/listings/l-1", nil)

		assert.Equal(t, http.StatusOK, code)
		listing := body["listing"].(map[string]interface{})
		assert.Equal(t, "l-1", listing["id"])
	})

	t.Run("Not found", func(t *testing.T) {
		s := new(MockStorage)
		s.On("GetListingByID", "ghost").Return(nil, storage.ErrNotFound)
		r := setupRouter(handler.NewHandler(s), "")

		code, _ := doJSON(t, r, http.MethodGet, "/listings/ghost", nil)

		assert.Equal(t, http.StatusNotFound, code)
	})
}

// BenchmarkDiscoverOrdering measures discovery over a larger candidate set.
func BenchmarkDiscoverOrdering(b *testing.B) {
	listings := make([]models.Listing, 0, 500)
	for i := 0; i < 500; i++ {
		listings = append(listings, models.Listing{
			ID:       fmt.Sprintf("l-%03d", i),
			Lat:      0,
			Lng:      float64(i) * 0.0002,
			RadiusKm: 15,
			Status:   models.ListingOpen,
		})
	}

	s := new(MockStorage)
	s.On("FindOpenListings", models.GameType("")).Return(listings, nil)
	r := setupRouter(handler.NewHandler(s), "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/listings?lat=0&lng=0", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}
