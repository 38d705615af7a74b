package database

import (
	"stocksim/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema and the supporting indexes. It takes
// the connection explicitly so tests can run it against their own database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Instrument{},
		&models.Session{},
		&models.LedgerEntry{},
	); err != nil {
		return err
	}

	// At most one in-progress session per owner. A partial unique index keeps
	// the invariant even when two start requests race past the lookup.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_owner_in_progress ON sessions(owner_id) WHERE status = 'in_progress'",
	).Error
}
