package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// DemoListing represents a seed parking spot
type DemoListing struct {
	Title        string
	Description  string
	Address      string
	City         string
	Latitude     float64
	Longitude    float64
	PricePerHour float64
}

func seedDemoListings() {
	// Database connection parameters
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", "parkspot_db")
	dbSSLMode := getEnv("DB_SSL_MODE", "disable")

	// Create connection string
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	// Connect to database
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("✅ Successfully connected to database for seeding")

	// Check if listings already exist
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count); err != nil {
		log.Fatal("Failed to check listings count:", err)
	}

	if count > 0 {
		log.Printf("⚠️  Listings already exist (%d found). Skipping insertion.", count)
		return
	}

	// Demo host account (password: seed only, must be rotated in real deployments)
	var hostID uint
	err = db.QueryRow(`
		INSERT INTO users (full_name, phone_number, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 'host', true, NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		"Demo Host", "+22240000000", "$2a$12$seedonlyseedonlyseedonlyseedonlyseedonlyseedonly00").Scan(&hostID)
	if err != nil {
		log.Fatal("Failed to seed demo host:", err)
	}

	listings := []DemoListing{
		{
			Title:        "Covered spot near Marché Capitale",
			Description:  "Shaded private spot behind a secure gate, fits sedans and small SUVs.",
			Address:      "Avenue Gamal Abdel Nasser, Nouakchott",
			City:         "Nouakchott",
			Latitude:     18.0858,
			Longitude:    -15.9785,
			PricePerHour: 50.0,
		},
		{
			Title:        "Driveway in Tevragh Zeina",
			Description:  "Paved driveway, streetlight overhead, easy in-and-out.",
			Address:      "Rue 42-022, Tevragh Zeina, Nouakchott",
			City:         "Nouakchott",
			Latitude:     18.1021,
			Longitude:    -15.9870,
			PricePerHour: 35.0,
		},
		{
			Title:        "Lot space near the airport road",
			Description:  "Open-air fenced lot with an attendant during the day.",
			Address:      "Route de l'Aéroport, Nouakchott",
			City:         "Nouakchott",
			Latitude:     18.0965,
			Longitude:    -15.9481,
			PricePerHour: 25.0,
		},
		{
			Title:        "Garage spot in Ksar",
			Description:  "Enclosed garage bay, remote-controlled door, cameras on site.",
			Address:      "Rue de l'Indépendance, Ksar, Nouakchott",
			City:         "Nouakchott",
			Latitude:     18.0790,
			Longitude:    -15.9660,
			PricePerHour: 80.0,
		},
	}

	inserted := 0
	for _, l := range listings {
		_, err := db.Exec(`
			INSERT INTO listings (host_id, title, description, address, city, latitude, longitude, price_per_hour, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, NOW(), NOW())`,
			hostID, l.Title, l.Description, l.Address, l.City, l.Latitude, l.Longitude, l.PricePerHour)
		if err != nil {
			log.Printf("❌ Failed to insert listing %q: %v", l.Title, err)
			continue
		}
		inserted++
	}

	log.Printf("✅ Seeded %d demo listings for host %d", inserted, hostID)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
