// Package seed loads the demo catalog and discount policies.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

const (
	categorySmartphone  = "Smartphone"
	categoryEarphones   = "Earphones"
	categorySmartwatch  = "Smartwatch"
	categoryLaptop      = "Laptop"
	categoryTV          = "TV"
	categoryAccessories = "Computer Accessories"
)

type productSeed struct {
	name, description string
	price             string
	stock             int
	category, brand   string
	sku               string
}

var productSeeds = []productSeed{
	{"Samsung Galaxy S24", "Samsung flagship smartphone", "1200000", 50, categorySmartphone, "Samsung", "SAMSUNG-S24"},
	{"Samsung Galaxy Buds2", "Samsung wireless earphones", "150000", 100, categoryEarphones, "Samsung", "SAMSUNG-BUDS2"},
	{"Samsung Galaxy Watch6", "Samsung smartwatch", "350000", 30, categorySmartwatch, "Samsung", "SAMSUNG-WATCH6"},
	{"iPhone 15 Pro", "Apple flagship smartphone", "1500000", 40, categorySmartphone, "Apple", "APPLE-IPHONE15"},
	{"AirPods Pro 2", "Apple wireless earphones", "300000", 80, categoryEarphones, "Apple", "APPLE-AIRPODS2"},
	{"Apple Watch Series 9", "Apple smartwatch", "500000", 25, categorySmartwatch, "Apple", "APPLE-WATCH9"},
	{"LG gram", "LG ultralight laptop", "1800000", 20, categoryLaptop, "LG", "LG-GRAM"},
	{"LG OLED TV 65\"", "LG premium TV", "2500000", 15, categoryTV, "LG", "LG-OLED-TV65"},
	{"Wireless Mouse", "Everyday wireless mouse", "50000", 200, categoryAccessories, "Logitech", "LOGITECH-MOUSE"},
	{"Wireless Keyboard", "Everyday wireless keyboard", "80000", 150, categoryAccessories, "Logitech", "LOGITECH-KEY"},
	{"USB-C Cable", "USB-C cable", "15000", 300, categoryAccessories, "Belkin", "BELKIN-USBC"},
}

// Products returns the demo catalog stamped with now.
func Products(now time.Time) []catalog.Product {
	out := make([]catalog.Product, 0, len(productSeeds))
	for _, s := range productSeeds {
		out = append(out, catalog.Product{
			ID:          uuid.New(),
			Name:        s.name,
			Description: s.description,
			Price:       decimal.RequireFromString(s.price),
			Stock:       s.stock,
			Category:    s.category,
			Brand:       s.brand,
			SKU:         s.sku,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}

// Policies returns the demo policies, valid from a day before now for one month.
func Policies(now time.Time) []pricing.Policy {
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 1, 0)
	amount := func(s string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(s))
	}
	str := func(s string) *string { return &s }
	two := 2

	policies := []pricing.Policy{
		{
			Name: "Samsung 15% off", Description: "15% off every Samsung product",
			Type: pricing.DiscountPercentage, Target: pricing.TargetBrand,
			Value: decimal.NewFromInt(15), MaxDiscountAmount: amount("200000"), TargetBrand: str("Samsung"),
		},
		{
			Name: "Apple 15% off", Description: "15% off every Apple product",
			Type: pricing.DiscountPercentage, Target: pricing.TargetBrand,
			Value: decimal.NewFromInt(15), MaxDiscountAmount: amount("300000"), TargetBrand: str("Apple"),
		},
		{
			Name: "Computer accessories 1000 off", Description: "1000 off each computer accessory line",
			Type: pricing.DiscountFixedAmount, Target: pricing.TargetCategory,
			Value: decimal.NewFromInt(1000), TargetCategory: str(categoryAccessories),
		},
		{
			Name: "Smartphones 1000 off", Description: "1000 off each smartphone line",
			Type: pricing.DiscountFixedAmount, Target: pricing.TargetCategory,
			Value: decimal.NewFromInt(1000), TargetCategory: str(categorySmartphone),
		},
		{
			Name: "LG 10% off", Description: "10% off every LG product",
			Type: pricing.DiscountPercentage, Target: pricing.TargetBrand,
			Value: decimal.NewFromInt(10), MaxDiscountAmount: amount("100000"), TargetBrand: str("LG"),
		},
		{
			Name: "Buy 2 or more, 5% off", Description: "5% off lines with at least two units",
			Type: pricing.DiscountPercentage, Target: pricing.TargetQuantity,
			Value: decimal.NewFromInt(5), MinQuantity: &two,
		},
		{
			Name: "Orders over 100000, 5% off", Description: "5% off orders of 100000 or more",
			Type: pricing.DiscountPercentage, Target: pricing.TargetOrderAmount,
			Value: decimal.NewFromInt(5), MaxDiscountAmount: amount("50000"), MinOrderAmount: amount("100000"),
		},
	}
	for i := range policies {
		policies[i].ID = uuid.New()
		policies[i].Active = true
		policies[i].StartsAt = &start
		policies[i].EndsAt = &end
	}
	return policies
}

// Result counts the rows written by Apply.
type Result struct {
	Products int
	Policies int
}

// Apply writes the demo data. Each set is skipped when its store already holds data.
func Apply(ctx context.Context, products catalog.Store, policies discount.Store, now time.Time, logger zerolog.Logger) (Result, error) {
	var res Result

	page, err := products.List(ctx, catalog.Filter{}, catalog.ListParams{Page: 1, Limit: 1})
	if err != nil {
		return res, fmt.Errorf("count products: %w", err)
	}
	if page.Total == 0 {
		for _, p := range Products(now) {
			if _, err := products.Create(ctx, p); err != nil {
				return res, fmt.Errorf("seed product %s: %w", p.SKU, err)
			}
			res.Products++
		}
	} else {
		logger.Info().Int("existing", page.Total).Msg("products present, skipping")
	}

	existing, err := policies.List(ctx)
	if err != nil {
		return res, fmt.Errorf("count policies: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range Policies(now) {
			if _, err := policies.Create(ctx, p); err != nil {
				return res, fmt.Errorf("seed policy %q: %w", p.Name, err)
			}
			res.Policies++
		}
	} else {
		logger.Info().Int("existing", len(existing)).Msg("discount policies present, skipping")
	}
	return res, nil
}
