package config

import (
	"os"
	"time"
)

const (
	// Geofence
	MaxRadiusKm     = 15.0
	MinRadiusKm     = 1.0
	DefaultRadiusKm = 15.0
	EarthRadiusKm   = 6371.0

	// Listing lifetime
	MinTTLMinutes     = 5
	MaxTTLMinutes     = 60
	DefaultTTLMinutes = 15

	// Expiry sweep
	SweepInterval = 60 * time.Second
	SweepLockKey  = "sweep:lock"

	// Auth
	TokenValidity = 7 * 24 * time.Hour
	TokenIssuer   = "cardmeet-backend"

	// OTP throttling (per phone, via redis)
	OTPMaxRequests = 5
	OTPWindow      = 10 * time.Minute
)

// SupportedGames are the card games a listing can be created for.
var SupportedGames = []string{"Trix", "Baloot", "Tarneeb", "Hand", "Banakel"}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Port returns the HTTP listen port.
func Port() string {
	return getenv("PORT", "4000")
}

// DatabaseDSN returns the PostgreSQL connection string.
func DatabaseDSN() string {
	return getenv("DATABASE_URL",
		"host=localhost user=user password=password dbname=cardmeetdb port=5432 sslmode=disable")
}

// RedisAddr returns the Redis address.
func RedisAddr() string {
	return getenv("REDIS_ADDR", "localhost:6379")
}

// JWTSecret returns the token signing secret. Read at call time so tests
// can override it via the environment.
func JWTSecret() []byte {
	return []byte(getenv("JWT_SECRET", "dev_secret"))
}

// OTPBypass returns the fixed verification code accepted in development.
// This is a stand-in for real SMS delivery and must be replaced with issued,
// expiring, single-use codes before production.
func OTPBypass() string {
	return getenv("OTP_BYPASS", "0000")
}

// OTPHint is the hint string returned from the code-request endpoint.
func OTPHint() string {
	if OTPBypass() == "0000" {
		return "Use 0000 in dev"
	}
	return "Set OTP in env"
}
