// seed-demo provisions a fresh database with an owner account and a small
// menu, enough to point a POS client at a dev instance and start ringing
// orders.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
//
// Idempotent: existing staff and products (matched by name) are left alone.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"github.com/shopspring/decimal"
)

const ownerPin = "4242"

type seedStaff struct {
	name string
	role models.BaseRole
	pin  string
}

type seedProduct struct {
	name     string
	category models.ProductCategory
	price    string
	target   models.StationRole
}

var staffSeed = []seedStaff{
	{"Owner", models.BaseRoleOwner, ownerPin},
	{"Mina", models.BaseRoleStaff, "1111"},
	{"Karim", models.BaseRoleStaff, "2222"},
}

var menuSeed = []seedProduct{
	{"Turkish Coffee", models.ProductCategoryHot, "30", models.StationRoleBarista},
	{"Espresso", models.ProductCategoryHot, "35", models.StationRoleBarista},
	{"Iced Latte", models.ProductCategoryCold, "50", models.StationRoleBarista},
	{"Mango Juice", models.ProductCategoryFresh, "45", models.StationRoleBarista},
	{"Shisha Mint", models.ProductCategoryShisha, "80", models.StationRoleShisha},
	{"Shisha Double Apple", models.ProductCategoryShisha, "80", models.StationRoleShisha},
	{"Club Sandwich", models.ProductCategoryFood, "90", models.StationRoleBarista},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	for _, s := range staffSeed {
		var count int64
		if err := db.WithContext(ctx).Model(&models.UserProfile{}).Where("name = ?", s.name).Count(&count).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to lookup staff %q: %v\n", s.name, err)
			os.Exit(1)
		}
		if count > 0 {
			fmt.Printf("staff %q exists, skipping\n", s.name)
			continue
		}
		user, err := models.CreateStaff(ctx, &models.NewStaff{Name: s.name, BaseRole: s.role, Pin: s.pin})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create staff %q: %v\n", s.name, err)
			os.Exit(1)
		}
		fmt.Printf("created staff %q id=%s role=%s pin=%s\n", user.Name, user.ID, user.BaseRole, s.pin)
	}

	for _, p := range menuSeed {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Product{}).Where("name = ?", p.name).Count(&count).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to lookup product %q: %v\n", p.name, err)
			os.Exit(1)
		}
		if count > 0 {
			fmt.Printf("product %q exists, skipping\n", p.name)
			continue
		}
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad seed price for %q: %v\n", p.name, err)
			os.Exit(1)
		}
		product, err := models.CreateProduct(ctx, &models.NewProduct{
			Name:       p.name,
			Category:   p.category,
			Price:      price,
			TargetRole: p.target,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create product %q: %v\n", p.name, err)
			os.Exit(1)
		}
		fmt.Printf("created product %q id=%s price=%s station=%s\n", product.Name, product.ID, product.Price, product.TargetRole)
	}

	fmt.Println("seed complete")
}
