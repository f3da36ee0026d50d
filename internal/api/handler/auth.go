package handler

import (
	"errors"
	"log"
	"net/http"

	"cardmeet/backend/internal/api/middleware"
	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/phone"
	"cardmeet/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type otpRequestInput struct {
	Phone string `json:"phone" binding:"required"`
}

type otpVerifyInput struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RequestOTP upserts the account for a phone number and returns the dev
// code hint. No SMS is sent: verification runs against the configured
// bypass code until a real OTP provider is wired in.
func (h *Handler) RequestOTP(c *gin.Context) {
	var input otpRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone"})
		return
	}

	normalized := phone.Normalize(input.Phone)
	if !phone.Valid(normalized) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone"})
		return
	}

	// Best-effort per-phone throttle; a Redis hiccup must not block auth.
	count, err := h.Storage.CountOTPRequest(normalized, config.OTPWindow)
	if err != nil {
		log.Printf("ERROR: OTP throttle check failed for %s: %v", normalized, err)
	} else if count > config.OTPMaxRequests {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many code requests"})
		return
	}

	if _, err := h.Storage.UpsertUserByPhone(normalized); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "otpHint": config.OTPHint()})
}

// VerifyOTP checks the submitted code against the bypass code, marks the
// phone verified and issues a bearer token bound to the user.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var input otpVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	normalized := phone.Normalize(input.Phone)
	if !phone.Valid(normalized) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if input.Code != config.OTPBypass() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code (dev uses OTP_BYPASS)"})
		return
	}

	user, err := h.Storage.VerifyUserPhone(normalized)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify phone"})
		return
	}

	token, err := middleware.SignToken(user.ID)
	if err != nil {
		log.Printf("ERROR: Failed to sign token for user %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated caller's account.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	user, err := h.Storage.GetUserByID(userID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
