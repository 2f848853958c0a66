package repositories

import (
	"time"

	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
)

// FeedPageSize caps every feed and reply listing
const FeedPageSize = 16

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post, payload *models.PostPayload) error
	GetPostByID(id uint) (*models.Post, error)
	GetPayload(postID uint) (*models.PostPayload, error)
	DeletePostCascade(postID uint) error
	ListTimeline(before time.Time, limit int) ([]models.Post, error)
	ListFollowingTimeline(accountIDs []uint, before time.Time, limit int) ([]models.Post, error)
	ListReplies(postID uint, before time.Time, limit int) ([]models.Post, error)
	CountReplies(postID uint) (int64, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post and its payload row in one transaction.
// payload may be nil for repost wrapper posts, which carry no content.
func (r *PostgresPostRepository) CreatePost(post *models.Post, payload *models.PostPayload) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if payload != nil {
			payload.PostID = post.ID
			if err := tx.Create(payload).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Account.User").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetPayload(postID uint) (*models.PostPayload, error) {
	var payload models.PostPayload
	if err := r.db.Where("post_id = ?", postID).First(&payload).Error; err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeletePostCascade removes a post and everything hanging off it:
// payload, favorites, reposts of it with their wrapper posts,
// notifications referencing it, and its replies, recursively. The
// cascade runs as explicit deletes in one transaction instead of
// database triggers so the ordering is visible here.
func (r *PostgresPostRepository) DeletePostCascade(postID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deletePostTree(tx, postID)
	})
}

func deletePostTree(tx *gorm.DB, postID uint) error {
	// Replies first, depth-first.
	var replyIDs []uint
	if err := tx.Model(&models.Post{}).Where("reply_to_id = ?", postID).Pluck("id", &replyIDs).Error; err != nil {
		return err
	}
	for _, id := range replyIDs {
		if err := deletePostTree(tx, id); err != nil {
			return err
		}
	}

	// Reposts of this post take their wrapper posts down with them.
	var reposts []models.Repost
	if err := tx.Where("post_id = ?", postID).Find(&reposts).Error; err != nil {
		return err
	}
	for _, repost := range reposts {
		if err := tx.Delete(&models.Repost{}, repost.ID).Error; err != nil {
			return err
		}
		if err := deletePostTree(tx, repost.WrapperPostID); err != nil {
			return err
		}
	}

	// If this post is itself a wrapper, its repost row goes too, and with
	// it the reposted notification held by the original post's owner:
	// that notification references the original, which outlives this
	// delete.
	var asWrapper []models.Repost
	if err := tx.Where("wrapper_post_id = ?", postID).Find(&asWrapper).Error; err != nil {
		return err
	}
	for _, repost := range asWrapper {
		var original models.Post
		if err := tx.Select("account_id").First(&original, repost.PostID).Error; err == nil {
			err = tx.Where("account_id = ? AND post_id = ? AND action = ? AND action_account_id = ?",
				original.AccountID, repost.PostID, models.ActionReposted, repost.AccountID).
				Delete(&models.Notification{}).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Repost{}, repost.ID).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("post_id = ?", postID).Delete(&models.PostPayload{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Post{}, postID).Error
}

// ListTimeline returns top-level posts at or before the reference time,
// newest first.
func (r *PostgresPostRepository) ListTimeline(before time.Time, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Account.User").
		Where("reply_to_id IS NULL AND created_at <= ?", before).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListFollowingTimeline is ListTimeline restricted to the given authors.
func (r *PostgresPostRepository) ListFollowingTimeline(accountIDs []uint, before time.Time, limit int) ([]models.Post, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var posts []models.Post
	err := r.db.Preload("Account.User").
		Where("reply_to_id IS NULL AND account_id IN ? AND created_at <= ?", accountIDs, before).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) ListReplies(postID uint, before time.Time, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Account.User").
		Where("reply_to_id = ? AND created_at <= ?", postID, before).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountReplies(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("reply_to_id = ?", postID).Count(&count).Error
	return count, err
}
