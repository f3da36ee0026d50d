package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JoinRequestStatus is the resolution state of a join request.
type JoinRequestStatus string

const (
	RequestPending  JoinRequestStatus = "PENDING"
	RequestAccepted JoinRequestStatus = "ACCEPTED"
	RequestDeclined JoinRequestStatus = "DECLINED"
)

// JoinRequest is a seeker's bid to join a listing. It is created by the
// seeker and resolved by the listing's host. For any listing at most one
// request ever reaches ACCEPTED.
type JoinRequest struct {
	ID        string            `gorm:"primaryKey" json:"id"`
	ListingID string            `gorm:"type:text;not null;index" json:"listingId"`
	SeekerID  string            `gorm:"type:text;not null;index" json:"seekerId"`
	Status    JoinRequestStatus `gorm:"type:text;not null" json:"status"`
	CreatedAt time.Time         `json:"createdAt"`

	Listing *Listing `gorm:"foreignKey:ListingID" json:"-"`
}

func (r *JoinRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = RequestPending
	}
	return
}
