package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/estatehub/backend/internal/adapters/database"
	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/infrastructure/auth"
	"github.com/estatehub/backend/internal/infrastructure/clients/postgres"
	"github.com/estatehub/backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	listingRepo := database.NewListingAdapter(pgClient)
	userRepo := database.NewUserAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				listings,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed users
	type seedUser struct {
		name     string
		email    string
		password string
		role     entities.Role
		contact  string
	}
	seedUsers := []seedUser{
		{name: "Demo User", email: "user@demo.com", password: "password123", role: entities.RoleUser},
		{name: "Admin User", email: "admin@demo.com", password: "admin123", role: entities.RoleAdmin},
		{name: "John Smith", email: "john.smith@demo.com", password: "password123", role: entities.RoleUser, contact: "9876543210"},
		{name: "Sarah Johnson", email: "sarah.johnson@demo.com", password: "password123", role: entities.RoleUser, contact: "9876543211"},
	}

	var owners []*entities.User
	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", su.email, err)
		}

		now := time.Now().UTC()
		user := &entities.User{
			ID:           uuid.NewString(),
			Name:         su.name,
			Email:        su.email,
			PasswordHash: hash,
			Role:         su.role,
			Contact:      su.contact,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create user %s: %v", su.email, err)
			continue
		}
		if su.role == entities.RoleUser {
			owners = append(owners, user)
		}
	}
	log.Printf("Seeded %d users", len(seedUsers))

	if len(owners) == 0 {
		log.Fatal("No non-admin users available to own listings")
	}

	// 2. Seed listings, spread across the non-admin users
	rooms := func(n int) *int { return &n }
	listings := []*entities.Listing{
		{
			Title:        "Luxury 3BHK Apartment in Bandra West",
			Description:  "Stunning sea-facing apartment with modern amenities, spacious rooms, and premium finishing. Located in the heart of Bandra West with easy access to shopping centers, restaurants, and public transport.",
			Price:        85000,
			DealType:     entities.DealTypeRent,
			Category:     entities.CategoryResidential,
			PropertyKind: entities.PropertyKindApartment,
			RoomCount:    rooms(3),
			Area:         1200,
			Location: entities.Location{
				Address:    "15th Floor, Oceanic Tower, Hill Road",
				City:       "Mumbai",
				State:      "Maharashtra",
				PostalCode: "400050",
				Latitude:   19.0596,
				Longitude:  72.8295,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Luxury+3BHK+living+room+with+sea+view",
				"https://placehold.co/800x600?text=Modern+kitchen+with+premium+appliances",
				"https://placehold.co/800x600?text=Master+bedroom+with+city+view",
			},
			Amenities:  []string{"Swimming Pool", "Gym", "24x7 Security", "Power Backup", "Parking"},
			Features:   []string{"Sea View", "Balcony", "Modular Kitchen", "Wardrobes"},
			IsApproved: true,
			IsFeatured: true,
			Status:     entities.StatusActive,
		},
		{
			Title:        "Modern 4BHK Villa with Garden",
			Description:  "Spacious villa with private garden, swimming pool, and contemporary design. Perfect for families looking for luxury living in a peaceful environment.",
			Price:        12500000,
			DealType:     entities.DealTypeBuy,
			Category:     entities.CategoryResidential,
			PropertyKind: entities.PropertyKindVilla,
			RoomCount:    rooms(4),
			Area:         2500,
			Location: entities.Location{
				Address:    "Villa No. 45, Prestige Golfshire",
				City:       "Bangalore",
				State:      "Karnataka",
				PostalCode: "560066",
				Latitude:   12.9716,
				Longitude:  77.5946,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Beautiful+villa+exterior+with+garden",
				"https://placehold.co/800x600?text=Spacious+living+room+with+high+ceiling",
				"https://placehold.co/800x600?text=Private+swimming+pool+and+deck",
			},
			Amenities:  []string{"Private Pool", "Garden", "Parking for 3 cars", "24x7 Security", "Power Backup"},
			Features:   []string{"Garden View", "Private Pool", "Study Room", "Servant Quarter"},
			IsApproved: true,
			IsFeatured: true,
			Status:     entities.StatusActive,
		},
		{
			Title:        "Premium Commercial Office Space",
			Description:  "Grade A commercial office space in prime business district. Fully furnished with modern facilities, perfect for IT companies and corporate offices.",
			Price:        125000,
			DealType:     entities.DealTypeRent,
			Category:     entities.CategoryCommercial,
			PropertyKind: entities.PropertyKindOffice,
			Area:         1800,
			Location: entities.Location{
				Address:    "12th Floor, DLF Cyber City",
				City:       "Gurgaon",
				State:      "Haryana",
				PostalCode: "122002",
				Latitude:   28.4595,
				Longitude:  77.0266,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Modern+office+space+with+workstations",
				"https://placehold.co/800x600?text=Conference+room+with+city+view",
				"https://placehold.co/800x600?text=Office+reception+and+waiting+area",
			},
			Amenities:  []string{"Central AC", "Power Backup", "Elevator", "Parking", "24x7 Security"},
			Features:   []string{"Furnished", "IT Ready", "Conference Room", "Pantry"},
			IsApproved: true,
			IsFeatured: true,
			Status:     entities.StatusActive,
		},
		{
			Title:        "2BHK Apartment in IT Hub",
			Description:  "Well-designed 2BHK apartment in the heart of IT corridor. Close to tech parks, restaurants, and shopping malls. Perfect for working professionals.",
			Price:        35000,
			DealType:     entities.DealTypeRent,
			Category:     entities.CategoryResidential,
			PropertyKind: entities.PropertyKindApartment,
			RoomCount:    rooms(2),
			Area:         900,
			Location: entities.Location{
				Address:    "Apartment 8B, Tech Paradise",
				City:       "Hyderabad",
				State:      "Telangana",
				PostalCode: "500081",
				Latitude:   17.3850,
				Longitude:  78.4867,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Cozy+2BHK+living+space+with+modern+design",
				"https://placehold.co/800x600?text=Compact+kitchen+with+dining+area",
				"https://placehold.co/800x600?text=Bedroom+with+built+in+wardrobes",
			},
			Amenities:  []string{"Gym", "Swimming Pool", "Parking", "Security", "Power Backup"},
			Features:   []string{"Balcony", "Modular Kitchen", "Wardrobes", "Internet Ready"},
			IsApproved: true,
			Status:     entities.StatusActive,
		},
		{
			Title:        "Spacious 3BHK House for Sale",
			Description:  "Independent house with spacious rooms, parking for 2 cars, and small garden. Located in a quiet residential area with good connectivity.",
			Price:        8500000,
			DealType:     entities.DealTypeBuy,
			Category:     entities.CategoryResidential,
			PropertyKind: entities.PropertyKindHouse,
			RoomCount:    rooms(3),
			Area:         1800,
			Location: entities.Location{
				Address:    "House No. 127, Sector 47",
				City:       "Faridabad",
				State:      "Haryana",
				PostalCode: "121001",
				Latitude:   28.3670,
				Longitude:  77.3155,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Independent+house+with+front+garden",
				"https://placehold.co/800x600?text=Spacious+living+and+dining+area",
				"https://placehold.co/800x600?text=Master+bedroom+with+attached+bathroom",
			},
			Amenities:  []string{"Parking", "Garden", "Security", "Power Backup"},
			Features:   []string{"Independent House", "Garden", "Terrace", "Store Room"},
			IsApproved: true,
			Status:     entities.StatusActive,
		},
		{
			Title:        "Retail Shop in Prime Location",
			Description:  "Ground floor retail space in busy commercial area. High footfall location, perfect for retail business, restaurant, or showroom.",
			Price:        95000,
			DealType:     entities.DealTypeRent,
			Category:     entities.CategoryCommercial,
			PropertyKind: entities.PropertyKindShop,
			Area:         600,
			Location: entities.Location{
				Address:    "Shop No. 12, Commercial Complex, FC Road",
				City:       "Pune",
				State:      "Maharashtra",
				PostalCode: "411005",
				Latitude:   18.5196,
				Longitude:  73.8553,
			},
			Images: []string{
				"https://placehold.co/800x600?text=Prime+retail+space+with+glass+frontage",
				"https://placehold.co/800x600?text=Spacious+shop+interior+with+natural+light",
				"https://placehold.co/800x600?text=Busy+commercial+street+with+high+footfall",
			},
			Amenities:  []string{"Parking", "24x7 Access", "Security", "Power Backup"},
			Features:   []string{"Ground Floor", "Corner Shop", "High Ceiling", "Display Windows"},
			IsApproved: true,
			Status:     entities.StatusActive,
		},
	}

	seeded := 0
	for i, listing := range listings {
		now := time.Now().UTC()
		listing.ID = uuid.NewString()
		listing.OwnerID = owners[i%len(owners)].ID
		listing.CreatedAt = now
		listing.UpdatedAt = now

		if err := listingRepo.Create(ctx, listing); err != nil {
			log.Printf("Failed to create listing %q: %v", listing.Title, err)
			continue
		}
		seeded++
	}
	log.Printf("Seeded %d listings", seeded)

	log.Println("Database seeding completed")
}
