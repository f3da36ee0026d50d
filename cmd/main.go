package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"cardmeet/backend/internal/api/handler"
	"cardmeet/backend/internal/api/middleware"
	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"
	"cardmeet/backend/internal/sweeper"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(config.DatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: "",
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.JoinRequest{},
		&models.Session{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting CardMeet Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Dependencies
	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	// 2. Background expiry sweep
	sw := sweeper.NewService(s)
	go sw.Run()

	// 3. Gin router
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	h := handler.NewHandler(s)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "cardmeet-backend"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/otp/request", middleware.RateLimitByIP(middleware.OTPLimiter), h.RequestOTP)
		auth.POST("/otp/verify", middleware.RateLimitByIP(middleware.OTPLimiter), h.VerifyOTP)
	}

	r.GET("/me", middleware.RequireAuth(), h.Me)

	r.POST("/listings", middleware.RequireAuth(), h.CreateListing)
	r.GET("/listings", h.DiscoverListings)
	r.GET("/listings/:id", h.GetListing)

	r.POST("/:listingId/requests", middleware.RequireAuth(), h.RequestToJoin)
	r.POST("/requests/:requestId/accept", middleware.RequireAuth(), h.AcceptRequest)

	r.POST("/checkin", middleware.RequireAuth(), h.CheckIn)
	r.POST("/checkin/finish", middleware.RequireAuth(), h.FinishSession)

	// 4. HTTP server
	server := &http.Server{
		Addr:           ":" + config.Port(),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Server listening on port %s", config.Port())
	log.Fatal(server.ListenAndServe())
}
