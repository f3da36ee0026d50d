package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // Needed for pq.StringArray
	"gorm.io/gorm"
)

// ListingStatus tracks a listing through its lifecycle.
type ListingStatus string

const (
	// ListingOpen means the listing is discoverable and accepting join requests.
	ListingOpen ListingStatus = "OPEN"
	// ListingReserved means the host accepted one request and a join token was minted.
	ListingReserved ListingStatus = "RESERVED"
	// ListingInProgress means the seeker checked in and a session is running.
	ListingInProgress ListingStatus = "IN_PROGRESS"
	// ListingCompleted means the session finished normally.
	ListingCompleted ListingStatus = "COMPLETED"
	// ListingExpired means the sweeper reclaimed the listing past its expiry.
	ListingExpired ListingStatus = "EXPIRED"
)

// GameType is one of the supported card games.
type GameType string

const (
	GameTrix    GameType = "Trix"
	GameBaloot  GameType = "Baloot"
	GameTarneeb GameType = "Tarneeb"
	GameHand    GameType = "Hand"
	GameBanakel GameType = "Banakel"
)

// ValidGame reports whether g is one of the supported games.
func ValidGame(g GameType) bool {
	switch g {
	case GameTrix, GameBaloot, GameTarneeb, GameHand, GameBanakel:
		return true
	}
	return false
}

// Listing is a host's open invitation to play a card game at a location.
type Listing struct {
	// ID is the unique identifier of the listing (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// HostID is the ID of the user who created the listing.
	HostID string `gorm:"type:text;not null;index" json:"hostId"`
	// Lat/Lng is the meeting point coordinate.
	Lat float64 `gorm:"not null" json:"lat"`
	Lng float64 `gorm:"not null" json:"lng"`
	// Game is the card game the host wants to play.
	Game GameType `gorm:"type:text;not null" json:"game"`
	// Skill is an optional self-declared skill tag.
	Skill string `json:"skill,omitempty"`
	// Languages are optional language tags for the table.
	Languages pq.StringArray `gorm:"type:text[]" json:"languages,omitempty"`
	// VenueID optionally references an external venue.
	VenueID *string `json:"venueId,omitempty"`
	// RadiusKm is the host's geofence radius, bounded to [1,15].
	RadiusKm float64 `gorm:"not null" json:"radiusKm"`
	// JoinToken is the single-use secret minted at acceptance.
	// It is set only while the listing is RESERVED.
	JoinToken *string `json:"-"`
	// Status is the current lifecycle state.
	Status ListingStatus `gorm:"type:text;not null;index" json:"status"`
	// ExpiresAt is when the listing becomes eligible for the expiry sweep.
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate is a GORM hook that assigns a UUID if the ID is not set.
func (l *Listing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return
}

// Terminal reports whether the listing can no longer change state.
func (s ListingStatus) Terminal() bool {
	return s == ListingCompleted || s == ListingExpired
}

// Expirable reports whether the sweeper may reclaim a listing in this state.
func (s ListingStatus) Expirable() bool {
	return s == ListingOpen || s == ListingReserved
}
