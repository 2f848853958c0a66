package repositories

import (
	"time"

	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreamRepository defines the interface for notification stream rows
type StreamRepository interface {
	Mint(accountID uint, token string, mintedAt time.Time) error
	GetByAccount(accountID uint) (*models.NotificationStream, error)
	ClearToken(accountID uint, token string) error
}

// PostgresStreamRepository implements StreamRepository for PostgreSQL
type PostgresStreamRepository struct {
	db *gorm.DB
}

// NewPostgresStreamRepository creates a new PostgresStreamRepository
func NewPostgresStreamRepository(db *gorm.DB) *PostgresStreamRepository {
	return &PostgresStreamRepository{db: db}
}

// Mint upserts the account's stream row. Only one token per account is
// live at a time, so minting implicitly invalidates the previous token.
func (r *PostgresStreamRepository) Mint(accountID uint, token string, mintedAt time.Time) error {
	stream := models.NotificationStream{AccountID: accountID, Token: token, MintedAt: mintedAt}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "minted_at"}),
	}).Create(&stream).Error
}

func (r *PostgresStreamRepository) GetByAccount(accountID uint) (*models.NotificationStream, error) {
	var stream models.NotificationStream
	if err := r.db.Where("account_id = ?", accountID).First(&stream).Error; err != nil {
		return nil, err
	}
	return &stream, nil
}

// ClearToken drops the stream row, but only while it still holds the
// given token. A disconnect from a stale connection must not clear a
// token minted after it.
func (r *PostgresStreamRepository) ClearToken(accountID uint, token string) error {
	return r.db.Where("account_id = ? AND token = ?", accountID, token).Delete(&models.NotificationStream{}).Error
}
