package handler_test

import (
	"time"

	"cardmeet/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpsertUserByPhone(phone string) (*models.User, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) VerifyUserPhone(phone string) (*models.User, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) CreateListing(listing *models.Listing) error {
	args := m.Called(listing)
	return args.Error(0)
}

func (m *MockStorage) GetListingByID(id string) (*models.Listing, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockStorage) FindOpenListings(game models.GameType) ([]models.Listing, error) {
	args := m.Called(game)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockStorage) CreateJoinRequest(request *models.JoinRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockStorage) GetJoinRequestByID(id string) (*models.JoinRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockStorage) HasPendingRequest(listingID, seekerID string) (bool, error) {
	args := m.Called(listingID, seekerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) AcceptJoinRequest(requestID, listingID, joinToken string) error {
	args := m.Called(requestID, listingID, joinToken)
	return args.Error(0)
}

func (m *MockStorage) GetAcceptedSeekerID(listingID string) (string, error) {
	args := m.Called(listingID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) StartSession(listingID string) (*models.Session, error) {
	args := m.Called(listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) GetSessionByID(id string) (*models.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) FinishSession(sessionID string) (*models.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) ExpireStaleListings(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) AcquireSweepLock(key string, ttl time.Duration) (bool, error) {
	args := m.Called(key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CountOTPRequest(phone string, window time.Duration) (int64, error) {
	args := m.Called(phone, window)
	return args.Get(0).(int64), args.Error(1)
}
