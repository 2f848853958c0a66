package repositories

import (
	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository defines the interface for favorite data operations
type FavoriteRepository interface {
	EnsureFavorite(accountID, postID uint) (created bool, err error)
	DeleteFavorite(accountID, postID uint) error
	HasFavorited(accountID, postID uint) (bool, error)
	CountByPostID(postID uint) (int64, error)
	WithTx(tx *gorm.DB) FavoriteRepository
}

// PostgresFavoriteRepository implements FavoriteRepository for PostgreSQL
type PostgresFavoriteRepository struct {
	db *gorm.DB
}

// NewPostgresFavoriteRepository creates a new PostgresFavoriteRepository
func NewPostgresFavoriteRepository(db *gorm.DB) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{db: db}
}

// WithTx returns a repository bound to tx, so the pair mutation can share
// a transaction with its notification bookkeeping.
func (r *PostgresFavoriteRepository) WithTx(tx *gorm.DB) FavoriteRepository {
	return &PostgresFavoriteRepository{db: tx}
}

// EnsureFavorite inserts the (account, post) pair if absent. The unique
// pair index breaks ties between concurrent inserts: the loser's insert
// becomes a no-op and is reported as already present, not an error.
func (r *PostgresFavoriteRepository) EnsureFavorite(accountID, postID uint) (bool, error) {
	favorite := models.Favorite{AccountID: accountID, PostID: postID}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFavoriteRepository) DeleteFavorite(accountID, postID uint) error {
	return r.db.Where("account_id = ? AND post_id = ?", accountID, postID).Delete(&models.Favorite{}).Error
}

func (r *PostgresFavoriteRepository) HasFavorited(accountID, postID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Favorite{}).Where("account_id = ? AND post_id = ?", accountID, postID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFavoriteRepository) CountByPostID(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
