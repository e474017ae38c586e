package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/config"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/database"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store/postgres"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/utils"
)

type demoProduct struct {
	name     string
	barcode  string
	category string
	selling  float64
	purchase float64
	quantity int
}

var demoCatalog = []demoProduct{
	{"Rice 5kg", "6151100000011", "Grains", 4500, 3800, 20},
	{"Groundnut Oil 1L", "6151100000028", "Cooking", 1200, 950, 15},
	{"Sugar 1kg", "6151100000035", "Baking", 800, 620, 30},
	{"Salt 500g", "6151100000042", "Cooking", 300, 180, 3},
	{"Indomie Carton", "6151100000059", "Noodles", 5200, 4400, 8},
	{"Peak Milk Tin", "6151100000066", "Dairy", 950, 760, 2},
}

// seed_demo provisions a demo shop with a starter catalog and prints a
// pairing token for the device.
func main() {
	phone := flag.String("phone", "+2348000000001", "shop phone number")
	shop := flag.String("shop", "Demo Provisions", "shop name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	st := postgres.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	user := models.User{
		ID:          uuid.NewString(),
		PhoneNumber: *phone,
		ShopName:    *shop,
		CreatedAt:   now,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	log.Printf("✅ Created shop %q (%s)", user.ShopName, user.ID)

	for _, item := range demoCatalog {
		p := &models.Product{
			ID:            utils.NewID(),
			UserID:        user.ID,
			Name:          item.name,
			Barcode:       item.barcode,
			Category:      item.category,
			SellingPrice:  item.selling,
			PurchasePrice: item.purchase,
			CreatedAt:     now,
			UpdatedAt:     now,
			SyncStatus:    models.SyncSynced,
		}
		if err := st.CreateProduct(ctx, p, item.quantity); err != nil {
			log.Fatalf("Failed to seed %q: %v", item.name, err)
		}
		log.Printf("   📦 %s (stock %d)", item.name, item.quantity)
	}

	token, err := utils.GenerateToken(user.ID, cfg.JWTSecret, 90*24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	log.Println("✅ Seed complete. Pairing token for the device:")
	log.Println(token)
}
