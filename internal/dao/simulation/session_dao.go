package simulation

import (
	"errors"
	"fmt"

	"stocksim/internal/models"
	"stocksim/internal/simerror"

	"gorm.io/gorm"
)

// SessionDAO handles database operations for investment sessions.
type SessionDAO struct {
	db *gorm.DB
}

// SessionDAOInterface defines the contract for session data access. There is
// deliberately no delete: finished sessions are retained as history.
type SessionDAOInterface interface {
	Create(session *models.Session) error
	GetByID(sessionID uint) (*models.Session, error)
	GetByIDWithTx(tx *gorm.DB, sessionID uint) (*models.Session, error)
	GetActiveByOwner(ownerID uint) (*models.Session, error)
	GetFinishedByOwner(ownerID uint) ([]models.Session, error)
	UpdateGuarded(tx *gorm.DB, session *models.Session, updates map[string]interface{}) error
}

// NewSessionDAO creates a new session DAO instance.
func NewSessionDAO(db *gorm.DB) SessionDAOInterface {
	return &SessionDAO{
		db: db,
	}
}

// Create inserts a new session record.
func (dao *SessionDAO) Create(session *models.Session) error {
	if err := dao.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID.
func (dao *SessionDAO) GetByID(sessionID uint) (*models.Session, error) {
	return dao.GetByIDWithTx(dao.db, sessionID)
}

// GetByIDWithTx retrieves a session by ID within a transaction.
func (dao *SessionDAO) GetByIDWithTx(tx *gorm.DB, sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := tx.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %d", simerror.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// GetActiveByOwner returns the owner's single in-progress session, or
// ErrNotFound when none exists.
func (dao *SessionDAO) GetActiveByOwner(ownerID uint) (*models.Session, error) {
	var session models.Session
	err := dao.db.Where("owner_id = ? AND status = ?", ownerID, models.SessionStatusInProgress).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no in-progress session for owner %d", simerror.ErrNotFound, ownerID)
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

// GetFinishedByOwner returns the owner's finished sessions, most recently
// ended first.
func (dao *SessionDAO) GetFinishedByOwner(ownerID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := dao.db.Where("owner_id = ? AND status = ?", ownerID, models.SessionStatusFinished).
		Order("end_timestamp DESC, id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get finished sessions: %w", err)
	}
	return sessions, nil
}

// UpdateGuarded applies updates to the session row only if its version still
// matches the one the caller read, bumping the version in the same statement.
// A stale version yields ErrVersionConflict so the caller can re-read and
// retry instead of clobbering a concurrent writer.
func (dao *SessionDAO) UpdateGuarded(tx *gorm.DB, session *models.Session, updates map[string]interface{}) error {
	guarded := make(map[string]interface{}, len(updates)+1)
	for column, value := range updates {
		guarded[column] = value
	}
	guarded["version"] = session.Version + 1

	result := tx.Model(&models.Session{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(guarded)
	if result.Error != nil {
		return fmt.Errorf("failed to update session %d: %w", session.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: session %d at version %d", simerror.ErrVersionConflict, session.ID, session.Version)
	}

	session.Version++
	return nil
}
