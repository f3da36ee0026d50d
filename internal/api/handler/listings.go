package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"cardmeet/backend/internal/api/middleware"
	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/geo"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type createListingInput struct {
	Lat        *float64        `json:"lat" binding:"required"`
	Lng        *float64        `json:"lng" binding:"required"`
	Game       models.GameType `json:"game" binding:"required"`
	Skill      string          `json:"skill"`
	Languages  []string        `json:"languages"`
	VenueID    *string         `json:"venueId"`
	RadiusKm   *float64        `json:"radiusKm"`
	TTLMinutes *int            `json:"ttlMinutes"`
}

// CreateListing opens a new listing for the caller at the given coordinate.
func (h *Handler) CreateListing(c *gin.Context) {
	var input createListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": err.Error()})
		return
	}

	if !models.ValidGame(input.Game) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported game"})
		return
	}

	radiusKm := config.DefaultRadiusKm
	if input.RadiusKm != nil {
		radiusKm = *input.RadiusKm
	}
	if radiusKm < config.MinRadiusKm || radiusKm > config.MaxRadiusKm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radiusKm out of range"})
		return
	}

	ttlMinutes := config.DefaultTTLMinutes
	if input.TTLMinutes != nil {
		ttlMinutes = *input.TTLMinutes
	}
	if ttlMinutes < config.MinTTLMinutes || ttlMinutes > config.MaxTTLMinutes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttlMinutes out of range"})
		return
	}

	listing := &models.Listing{
		HostID:    c.GetString(middleware.CtxUserID),
		Lat:       *input.Lat,
		Lng:       *input.Lng,
		Game:      input.Game,
		Skill:     input.Skill,
		Languages: pq.StringArray(input.Languages),
		VenueID:   input.VenueID,
		RadiusKm:  radiusKm,
		Status:    models.ListingOpen,
		ExpiresAt: time.Now().Add(time.Duration(ttlMinutes) * time.Minute),
	}

	if err := h.Storage.CreateListing(listing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// discoveredListing is a listing enriched with the caller's distance to it.
type discoveredListing struct {
	models.Listing
	DistanceKm float64 `json:"distanceKm"`
}

// DiscoverListings returns OPEN, unexpired listings near the caller's
// coordinate, nearest first. A listing is visible only within the tighter
// of the two radii: the caller's search radius and the listing's own.
func (h *Handler) DiscoverListings(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}

	radiusKm := config.DefaultRadiusKm
	if raw := c.Query("radiusKm"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < config.MinRadiusKm || parsed > config.MaxRadiusKm {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
			return
		}
		radiusKm = parsed
	}

	game := models.GameType(c.Query("game"))
	if game != "" && !models.ValidGame(game) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}

	listings, err := h.Storage.FindOpenListings(game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listings"})
		return
	}

	results := make([]discoveredListing, 0, len(listings))
	for _, l := range listings {
		d := geo.DistanceKm(lat, lng, l.Lat, l.Lng)
		if d <= min(radiusKm, l.RadiusKm) {
			results = append(results, discoveredListing{Listing: l, DistanceKm: d})
		}
	}

	// Nearest first; ties broken by ID so ordering is reproducible.
	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].ID < results[j].ID
	})

	c.JSON(http.StatusOK, gin.H{"listings": results})
}

// GetListing returns one listing by ID.
func (h *Handler) GetListing(c *gin.Context) {
	listing, err := h.Storage.GetListingByID(c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}
