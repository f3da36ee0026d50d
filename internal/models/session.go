package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a timed play session started by a successful check-in.
// Sessions are append-only: they are created, then ended, never deleted.
type Session struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	ListingID string     `gorm:"type:text;not null;index" json:"listingId"`
	StartedAt time.Time  `gorm:"not null" json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

// Active reports whether the session has not been ended yet.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}
