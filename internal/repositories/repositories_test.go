package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Post{},
		&models.PostPayload{},
		&models.Favorite{},
		&models.Repost{},
		&models.Follow{},
		&models.Notification{},
		&models.NotificationStream{},
	))
	return db
}

func createAccount(t *testing.T, db *gorm.DB, username string) *models.Account {
	t.Helper()
	user := models.User{Username: username}
	require.NoError(t, db.Create(&user).Error)
	account := models.Account{UserID: user.ID, DisplayName: username + " display", User: user}
	require.NoError(t, db.Create(&account).Error)
	return &account
}

func createTextPost(t *testing.T, db *gorm.DB, accountID uint, content string, createdAt time.Time) *models.Post {
	t.Helper()
	post := models.Post{AccountID: accountID, CreatedAt: createdAt}
	require.NoError(t, db.Create(&post).Error)
	payload := models.PostPayload{PostID: post.ID, Kind: models.PayloadKindText, Content: content}
	require.NoError(t, db.Create(&payload).Error)
	return &post
}

func createReply(t *testing.T, db *gorm.DB, accountID, parentID uint, content string, createdAt time.Time) *models.Post {
	t.Helper()
	post := models.Post{AccountID: accountID, ReplyToID: &parentID, CreatedAt: createdAt}
	require.NoError(t, db.Create(&post).Error)
	payload := models.PostPayload{PostID: post.ID, Kind: models.PayloadKindText, Content: content}
	require.NoError(t, db.Create(&payload).Error)
	return &post
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}
