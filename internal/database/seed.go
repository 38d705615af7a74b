package database

import (
	"fmt"

	"stocksim/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The tradable universe: five instruments in each of five categories.
var seedInstruments = []models.Instrument{
	{Symbol: "AAPL", DisplayName: "Apple", Category: "Technology (IT)"},
	{Symbol: "MSFT", DisplayName: "Microsoft", Category: "Technology (IT)"},
	{Symbol: "NVDA", DisplayName: "Nvidia", Category: "Technology (IT)"},
	{Symbol: "GOOGL", DisplayName: "Alphabet", Category: "Technology (IT)"},
	{Symbol: "AMZN", DisplayName: "Amazon", Category: "Technology (IT)"},

	{Symbol: "MRNA", DisplayName: "Moderna", Category: "Healthcare/Biotechnology"},
	{Symbol: "PFE", DisplayName: "Pfizer", Category: "Healthcare/Biotechnology"},
	{Symbol: "GILD", DisplayName: "Gilead Sciences", Category: "Healthcare/Biotechnology"},
	{Symbol: "REGN", DisplayName: "Regeneron Pharmaceuticals", Category: "Healthcare/Biotechnology"},
	{Symbol: "VRTX", DisplayName: "Vertex Pharmaceuticals", Category: "Healthcare/Biotechnology"},

	{Symbol: "TSLA", DisplayName: "Tesla", Category: "Renewable Energy/Clean Energy"},
	{Symbol: "NEE", DisplayName: "NextEra Energy", Category: "Renewable Energy/Clean Energy"},
	{Symbol: "ENPH", DisplayName: "Enphase Energy", Category: "Renewable Energy/Clean Energy"},
	{Symbol: "BEP", DisplayName: "Brookfield Renewable Partners", Category: "Renewable Energy/Clean Energy"},
	{Symbol: "FSLR", DisplayName: "First Solar", Category: "Renewable Energy/Clean Energy"},

	{Symbol: "SHOP", DisplayName: "Shopify", Category: "E-commerce"},
	{Symbol: "EBAY", DisplayName: "eBay", Category: "E-commerce"},
	{Symbol: "ETSY", DisplayName: "Etsy", Category: "E-commerce"},
	{Symbol: "MELI", DisplayName: "MercadoLibre", Category: "E-commerce"},
	{Symbol: "BABA", DisplayName: "Alibaba", Category: "E-commerce"},

	{Symbol: "PYPL", DisplayName: "PayPal", Category: "Financial Technology (FinTech)"},
	{Symbol: "SQ", DisplayName: "Square", Category: "Financial Technology (FinTech)"},
	{Symbol: "V", DisplayName: "Visa", Category: "Financial Technology (FinTech)"},
	{Symbol: "MA", DisplayName: "Mastercard", Category: "Financial Technology (FinTech)"},
	{Symbol: "COIN", DisplayName: "Coinbase", Category: "Financial Technology (FinTech)"},
}

// SeedInstruments inserts the instrument catalog, skipping symbols that are
// already present. Safe to run on every startup.
func SeedInstruments(db *gorm.DB) error {
	instruments := make([]models.Instrument, len(seedInstruments))
	copy(instruments, seedInstruments)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&instruments).Error
	if err != nil {
		return fmt.Errorf("failed to seed instruments: %w", err)
	}
	return nil
}
