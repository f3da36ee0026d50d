package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"cardmeet/backend/internal/api/handler"
	"cardmeet/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter builds the API routes with a stub auth middleware that
// injects userID directly, so endpoint tests exercise handler logic
// without minting real tokens. RequireAuth itself is covered separately
// in auth_test.go.
func setupRouter(h *handler.Handler, userID string) *gin.Engine {
	r := gin.New()

	authed := func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Next()
	}

	r.POST("/auth/otp/request", h.RequestOTP)
	r.POST("/auth/otp/verify", h.VerifyOTP)
	r.GET("/me", authed, h.Me)
	r.POST("/listings", authed, h.CreateListing)
	r.GET("/listings", h.DiscoverListings)
	r.GET("/listings/:id", h.GetListing)
	r.POST("/:listingId/requests", authed, h.RequestToJoin)
	r.POST("/requests/:requestId/accept", authed, h.AcceptRequest)
	r.POST("/checkin", authed, h.CheckIn)
	r.POST("/checkin/finish", authed, h.FinishSession)
	return r
}

// doJSON performs a request with a JSON body and decodes the JSON response.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w.Code, parsed
}
