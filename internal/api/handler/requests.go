package handler

import (
	"errors"
	"net/http"

	"cardmeet/backend/internal/api/middleware"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestToJoin creates a PENDING join request against an OPEN listing.
// A seeker may have at most one pending request per listing.
func (h *Handler) RequestToJoin(c *gin.Context) {
	seekerID := c.GetString(middleware.CtxUserID)
	listingID := c.Param("listingId")

	listing, err := h.Storage.GetListingByID(listingID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && listing.Status != models.ListingOpen) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not open"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	pending, err := h.Storage.HasPendingRequest(listingID, seekerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check requests"})
		return
	}
	if pending {
		c.JSON(http.StatusConflict, gin.H{"error": "Request already pending"})
		return
	}

	request := &models.JoinRequest{
		ListingID: listingID,
		SeekerID:  seekerID,
		Status:    models.RequestPending,
	}
	if err := h.Storage.CreateJoinRequest(request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// AcceptRequest lets the host pick the single winner for a listing.
// The reservation, the acceptance and the bulk decline of every other
// request happen atomically; concurrent accepts on the same listing
// resolve to exactly one winner.
func (h *Handler) AcceptRequest(c *gin.Context) {
	hostID := c.GetString(middleware.CtxUserID)
	requestID := c.Param("requestId")

	request, err := h.Storage.GetJoinRequestByID(requestID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	if err != nil || request.Listing == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load request"})
		return
	}

	if request.Listing.HostID != hostID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}
	if request.Listing.Status != models.ListingOpen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing not open"})
		return
	}

	joinToken := uuid.New().String()
	err = h.Storage.AcceptJoinRequest(requestID, request.ListingID, joinToken)
	if errors.Is(err, storage.ErrConflict) {
		// Someone else reserved, expired or closed the listing between
		// the read above and the conditional write.
		c.JSON(http.StatusConflict, gin.H{"error": "Listing no longer open"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listingId": request.ListingID, "joinToken": joinToken})
}
