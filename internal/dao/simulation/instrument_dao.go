package simulation

import (
	"errors"
	"fmt"

	"stocksim/internal/models"
	"stocksim/internal/simerror"

	"gorm.io/gorm"
)

// InstrumentDAO handles database access for the instrument catalog.
type InstrumentDAO struct {
	db *gorm.DB
}

// InstrumentDAOInterface defines the contract for instrument data access.
type InstrumentDAOInterface interface {
	GetBySymbol(symbol string) (*models.Instrument, error)
	List(category string) ([]models.Instrument, error)
	Categories() ([]string, error)
}

// NewInstrumentDAO creates a new instrument DAO instance.
func NewInstrumentDAO(db *gorm.DB) InstrumentDAOInterface {
	return &InstrumentDAO{
		db: db,
	}
}

// GetBySymbol retrieves an instrument by its unique symbol.
func (dao *InstrumentDAO) GetBySymbol(symbol string) (*models.Instrument, error) {
	var instrument models.Instrument
	if err := dao.db.Where("symbol = ?", symbol).First(&instrument).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: instrument %s", simerror.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}
	return &instrument, nil
}

// List returns instruments ordered by symbol, optionally filtered by category.
func (dao *InstrumentDAO) List(category string) ([]models.Instrument, error) {
	var instruments []models.Instrument
	query := dao.db.Order("symbol ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&instruments).Error; err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	return instruments, nil
}

// Categories returns the distinct instrument categories.
func (dao *InstrumentDAO) Categories() ([]string, error) {
	var categories []string
	err := dao.db.Model(&models.Instrument{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
