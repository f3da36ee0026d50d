package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"cardmeet/backend/internal/api/middleware"
	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/geo"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type checkInInput struct {
	ListingID string   `json:"listingId" binding:"required"`
	JoinToken string   `json:"joinToken" binding:"required"`
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
}

type finishInput struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// CheckIn validates the join token, the listing's expiry and the seeker's
// proximity, then starts the play session. Checks run in that order so the
// client can distinguish a bad token from being too far away. Not
// idempotent: a second call after success fails the RESERVED state check.
func (h *Handler) CheckIn(c *gin.Context) {
	var input checkInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	listing, err := h.Storage.GetListingByID(input.ListingID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing or token"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}
	if listing.Status != models.ListingReserved || listing.JoinToken == nil ||
		subtle.ConstantTimeCompare([]byte(*listing.JoinToken), []byte(input.JoinToken)) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing or token"})
		return
	}

	if listing.ExpiresAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing expired"})
		return
	}

	// Geofence: within the listing's radius, capped at the global maximum.
	// The boundary itself counts as inside.
	d := geo.DistanceKm(*input.Lat, *input.Lng, listing.Lat, listing.Lng)
	if d > min(config.MaxRadiusKm, listing.RadiusKm) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Out of geofence", "distanceKm": d})
		return
	}

	session, err := h.Storage.StartSession(listing.ID)
	if errors.Is(err, storage.ErrConflict) {
		// The sweeper or a concurrent check-in got there first.
		c.JSON(http.StatusConflict, gin.H{"error": "Listing no longer reserved"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "sessionId": session.ID})
}

// FinishSession ends a running session and completes its listing. Only the
// listing's host or the accepted seeker may finish it.
func (h *Handler) FinishSession(c *gin.Context) {
	var input finishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	session, err := h.Storage.GetSessionByID(input.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	listing, err := h.Storage.GetListingByID(session.ListingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	callerID := c.GetString(middleware.CtxUserID)
	if callerID != listing.HostID {
		seekerID, err := h.Storage.GetAcceptedSeekerID(session.ListingID)
		if err != nil || callerID != seekerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this session"})
			return
		}
	}

	if _, err := h.Storage.FinishSession(session.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finish session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
