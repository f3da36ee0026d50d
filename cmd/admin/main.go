package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/models"
	"cardmeet/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	db, err := gorm.Open(postgres.Open(config.DatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "sweep":
		expired, err := storageSvc.ExpireStaleListings(time.Now())
		if err != nil {
			log.Fatalf("Error sweeping listings: %v", err)
		}
		fmt.Printf("Expired %d listing(s).\n", expired)
	case "listing":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin listing <listing_id>")
			os.Exit(1)
		}
		listing, err := storageSvc.GetListingByID(os.Args[2])
		if err != nil {
			log.Fatalf("Error loading listing: %v", err)
		}
		fmt.Printf("Listing %s\n", listing.ID)
		fmt.Printf("  host:      %s\n", listing.HostID)
		fmt.Printf("  game:      %s\n", listing.Game)
		fmt.Printf("  status:    %s\n", listing.Status)
		fmt.Printf("  coord:     (%f, %f) radius %.1f km\n", listing.Lat, listing.Lng, listing.RadiusKm)
		fmt.Printf("  expires:   %s\n", listing.ExpiresAt.Format(time.RFC3339))
	case "expire":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin expire <listing_id>")
			os.Exit(1)
		}
		if err := expireListing(db, os.Args[2]); err != nil {
			log.Fatalf("Error expiring listing: %v", err)
		}
		fmt.Printf("Listing %s has been expired.\n", os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

// expireListing force-expires a single OPEN/RESERVED listing.
func expireListing(db *gorm.DB, listingID string) error {
	res := db.Model(&models.Listing{}).
		Where("id = ? AND status IN ?", listingID,
			[]models.ListingStatus{models.ListingOpen, models.ListingReserved}).
		Updates(map[string]interface{}{
			"status":     models.ListingExpired,
			"join_token": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("listing %s not found or not expirable", listingID)
	}
	return nil
}
