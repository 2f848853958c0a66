package repositories

import (
	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepostRepository defines the interface for repost data operations
type RepostRepository interface {
	ActivateRepost(accountID, postID uint) (repost *models.Repost, created bool, err error)
	RetractRepost(repost *models.Repost) error
	GetRepost(accountID, postID uint) (*models.Repost, error)
	GetByWrapperPostID(wrapperPostID uint) (*models.Repost, error)
	HasReposted(accountID, postID uint) (bool, error)
	CountByPostID(postID uint) (int64, error)
	WithTx(tx *gorm.DB) RepostRepository
}

// PostgresRepostRepository implements RepostRepository for PostgreSQL
type PostgresRepostRepository struct {
	db *gorm.DB
}

// NewPostgresRepostRepository creates a new PostgresRepostRepository
func NewPostgresRepostRepository(db *gorm.DB) *PostgresRepostRepository {
	return &PostgresRepostRepository{db: db}
}

// WithTx returns a repository bound to tx, so the pair mutation can share
// a transaction with its notification bookkeeping.
func (r *PostgresRepostRepository) WithTx(tx *gorm.DB) RepostRepository {
	return &PostgresRepostRepository{db: tx}
}

// ActivateRepost inserts the (account, post) pair and, when the insert
// wins, mints the wrapper post in the same transaction. Each activation
// gets a fresh wrapper; a retracted repost's wrapper is never revived.
// On a lost race or an already-active pair the existing row is returned
// with created=false.
func (r *PostgresRepostRepository) ActivateRepost(accountID, postID uint) (*models.Repost, bool, error) {
	repost := models.Repost{AccountID: accountID, PostID: postID}
	var created bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&repost)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Where("account_id = ? AND post_id = ?", accountID, postID).First(&repost).Error
		}
		created = true

		wrapper := models.Post{AccountID: accountID}
		if err := tx.Create(&wrapper).Error; err != nil {
			return err
		}
		repost.WrapperPostID = wrapper.ID
		return tx.Model(&models.Repost{}).Where("id = ?", repost.ID).Update("wrapper_post_id", wrapper.ID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &repost, created, nil
}

// RetractRepost deletes the repost row and its wrapper post.
func (r *PostgresRepostRepository) RetractRepost(repost *models.Repost) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Repost{}, repost.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", repost.WrapperPostID).Delete(&models.PostPayload{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, repost.WrapperPostID).Error
	})
}

func (r *PostgresRepostRepository) GetRepost(accountID, postID uint) (*models.Repost, error) {
	var repost models.Repost
	if err := r.db.Where("account_id = ? AND post_id = ?", accountID, postID).First(&repost).Error; err != nil {
		return nil, err
	}
	return &repost, nil
}

func (r *PostgresRepostRepository) GetByWrapperPostID(wrapperPostID uint) (*models.Repost, error) {
	var repost models.Repost
	if err := r.db.Where("wrapper_post_id = ?", wrapperPostID).First(&repost).Error; err != nil {
		return nil, err
	}
	return &repost, nil
}

func (r *PostgresRepostRepository) HasReposted(accountID, postID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Repost{}).Where("account_id = ? AND post_id = ?", accountID, postID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepostRepository) CountByPostID(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Repost{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
