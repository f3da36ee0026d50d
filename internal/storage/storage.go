package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"cardmeet/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Sentinel errors surfaced by storage operations. Handlers map them to
// HTTP status codes; anything else is treated as an internal failure.
var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a conditional write lost to a concurrent state
	// transition (e.g. the listing was no longer OPEN at accept time).
	ErrConflict = errors.New("listing state conflict")
)

type Storage interface {
	UpsertUserByPhone(phone string) (*models.User, error)
	VerifyUserPhone(phone string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	CreateListing(listing *models.Listing) error
	GetListingByID(id string) (*models.Listing, error)
	FindOpenListings(game models.GameType) ([]models.Listing, error)

	CreateJoinRequest(request *models.JoinRequest) error
	GetJoinRequestByID(id string) (*models.JoinRequest, error)
	HasPendingRequest(listingID, seekerID string) (bool, error)
	AcceptJoinRequest(requestID, listingID, joinToken string) error
	GetAcceptedSeekerID(listingID string) (string, error)

	StartSession(listingID string) (*models.Session, error)
	GetSessionByID(id string) (*models.Session, error)
	FinishSession(sessionID string) (*models.Session, error)

	ExpireStaleListings(now time.Time) (int64, error)

	AcquireSweepLock(key string, ttl time.Duration) (bool, error)
	CountOTPRequest(phone string, window time.Duration) (int64, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// UpsertUserByPhone creates the user for a phone number on first contact.
// Calling it for an existing phone is a no-op and returns the existing row.
func (s *Service) UpsertUserByPhone(phone string) (*models.User, error) {
	var user models.User
	defaults := models.User{Phone: phone, PhoneVerified: false}

	result := s.DB.Where("phone = ?", phone).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		log.Printf("ERROR: Failed to upsert user for phone %s: %v", phone, result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("INFO: New user %s created for phone %s.", user.ID, phone)
	}
	return &user, nil
}

// VerifyUserPhone marks the user's phone as verified, creating the user if
// the verify call arrives before a code request for that phone.
func (s *Service) VerifyUserPhone(phone string) (*models.User, error) {
	user, err := s.UpsertUserByPhone(phone)
	if err != nil {
		return nil, err
	}
	if !user.PhoneVerified {
		user.PhoneVerified = true
		if err := s.DB.Model(user).Update("phone_verified", true).Error; err != nil {
			log.Printf("ERROR: Failed to mark phone %s verified: %v", phone, err)
			return nil, err
		}
	}
	return user, nil
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateListing stores a new listing. Status and expiry are set by the caller.
func (s *Service) CreateListing(listing *models.Listing) error {
	if err := s.DB.Create(listing).Error; err != nil {
		log.Printf("ERROR: Failed to create listing for host %s: %v", listing.HostID, err)
		return err
	}
	return nil
}

func (s *Service) GetListingByID(id string) (*models.Listing, error) {
	var listing models.Listing
	err := s.DB.First(&listing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get listing %s: %v", id, err)
		return nil, err
	}
	return &listing, nil
}

// FindOpenListings returns every OPEN, unexpired listing, optionally
// filtered by game. Distance filtering and ordering happen in the caller;
// this is a plain scan, acceptable at MVP scale.
func (s *Service) FindOpenListings(game models.GameType) ([]models.Listing, error) {
	var listings []models.Listing
	q := s.DB.Where("status = ? AND expires_at > ?", models.ListingOpen, time.Now())
	if game != "" {
		q = q.Where("game = ?", game)
	}
	if err := q.Find(&listings).Error; err != nil {
		log.Printf("ERROR: Failed to find open listings: %v", err)
		return nil, err
	}
	return listings, nil
}

func (s *Service) CreateJoinRequest(request *models.JoinRequest) error {
	if err := s.DB.Create(request).Error; err != nil {
		log.Printf("ERROR: Failed to create join request for listing %s: %v", request.ListingID, err)
		return err
	}
	return nil
}

// GetJoinRequestByID loads a request together with its listing.
func (s *Service) GetJoinRequestByID(id string) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := s.DB.Preload("Listing").First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get join request %s: %v", id, err)
		return nil, err
	}
	return &request, nil
}

func (s *Service) HasPendingRequest(listingID, seekerID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.JoinRequest{}).
		Where("listing_id = ? AND seeker_id = ? AND status = ?",
			listingID, seekerID, models.RequestPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptJoinRequest performs the single-winner acceptance as one atomic
// unit: reserve the listing with the minted token, accept the target
// request, decline every other request on the listing. The reservation is
// a conditional update on the current status; under concurrent accepts for
// the same listing exactly one call succeeds and the rest get ErrConflict
// with nothing written.
func (s *Service) AcceptJoinRequest(requestID, listingID, joinToken string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingOpen).
			Updates(map[string]interface{}{
				"status":     models.ListingReserved,
				"join_token": joinToken,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race: the listing was reserved, expired or
			// completed between the read and this write.
			return ErrConflict
		}

		if err := tx.Model(&models.JoinRequest{}).
			Where("id = ?", requestID).
			Update("status", models.RequestAccepted).Error; err != nil {
			return err
		}

		return tx.Model(&models.JoinRequest{}).
			Where("listing_id = ? AND id <> ?", listingID, requestID).
			Update("status", models.RequestDeclined).Error
	})
}

// GetAcceptedSeekerID returns the seeker who won the listing's arbitration.
func (s *Service) GetAcceptedSeekerID(listingID string) (string, error) {
	var request models.JoinRequest
	err := s.DB.Where("listing_id = ? AND status = ?", listingID, models.RequestAccepted).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return request.SeekerID, nil
}

// StartSession transitions the listing RESERVED -> IN_PROGRESS and creates
// the session in one transaction. The conditional transition doubles as the
// guard against the sweeper expiring the listing mid-check-in.
func (s *Service) StartSession(listingID string) (*models.Session, error) {
	session := &models.Session{
		ListingID: listingID,
		StartedAt: time.Now(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingReserved).
			Update("status", models.ListingInProgress)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Create(session).Error
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			log.Printf("ERROR: Failed to start session for listing %s: %v", listingID, err)
		}
		return nil, err
	}
	return session, nil
}

func (s *Service) GetSessionByID(id string) (*models.Session, error) {
	var session models.Session
	err := s.DB.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishSession stamps endedAt on the session and completes its listing.
func (s *Service) FinishSession(sessionID string) (*models.Session, error) {
	session, err := s.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if session.EndedAt == nil {
			session.EndedAt = &now
			if err := tx.Model(session).Update("ended_at", now).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Listing{}).
			Where("id = ?", session.ListingID).
			Update("status", models.ListingCompleted).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to finish session %s: %v", sessionID, err)
		return nil, err
	}
	return session, nil
}

// ExpireStaleListings bulk-transitions every OPEN/RESERVED listing past its
// expiry to EXPIRED and returns how many rows changed. Idempotent: a run
// with no qualifying rows is a no-op.
func (s *Service) ExpireStaleListings(now time.Time) (int64, error) {
	res := s.DB.Model(&models.Listing{}).
		Where("status IN ? AND expires_at < ?",
			[]models.ListingStatus{models.ListingOpen, models.ListingReserved}, now).
		Updates(map[string]interface{}{
			"status":     models.ListingExpired,
			"join_token": nil,
		})
	if res.Error != nil {
		log.Printf("ERROR: Failed to expire stale listings: %v", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AcquireSweepLock takes a short-lived advisory lock in Redis so that only
// one process runs the expiry sweep per tick when several replicas share
// the database.
func (s *Service) AcquireSweepLock(key string, ttl time.Duration) (bool, error) {
	return s.Redis.SetNX(s.Ctx, key, "1", ttl).Result()
}

// CountOTPRequest bumps the per-phone OTP request counter and returns the
// new count within the window.
func (s *Service) CountOTPRequest(phone string, window time.Duration) (int64, error) {
	key := "otp:req:" + phone
	count, err := s.Redis.Incr(s.Ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.Redis.Expire(s.Ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
