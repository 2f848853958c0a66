package repositories

import (
	"testing"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletePostCascade(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	repostRepo := NewPostgresRepostRepository(db)
	alice := createAccount(t, db, "alice")
	bob := createAccount(t, db, "bob")

	post := createTextPost(t, db, alice.ID, "hi", time.Now())
	reply1 := createReply(t, db, bob.ID, post.ID, "first", time.Now())
	createReply(t, db, alice.ID, reply1.ID, "nested", time.Now())
	createReply(t, db, bob.ID, post.ID, "second", time.Now())

	favRepo := NewPostgresFavoriteRepository(db)
	_, err := favRepo.EnsureFavorite(bob.ID, post.ID)
	require.NoError(t, err)
	_, err = favRepo.EnsureFavorite(alice.ID, reply1.ID)
	require.NoError(t, err)

	repost, _, err := repostRepo.ActivateRepost(bob.ID, post.ID)
	require.NoError(t, err)

	notification := models.Notification{AccountID: alice.ID, PostID: &post.ID, Action: models.ActionFavorited, ActionAccountID: bob.ID, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&notification).Error)

	require.NoError(t, repo.DeletePostCascade(post.ID))

	// Nothing references the deleted tree anymore.
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.PostPayload{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.Favorite{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.Repost{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.Notification{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "id = ?", repost.WrapperPostID))
}

func TestDeletePostCascadeLeavesUnrelatedRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	alice := createAccount(t, db, "alice")
	bob := createAccount(t, db, "bob")

	doomed := createTextPost(t, db, alice.ID, "doomed", time.Now())
	keeper := createTextPost(t, db, bob.ID, "keeper", time.Now())

	favRepo := NewPostgresFavoriteRepository(db)
	_, err := favRepo.EnsureFavorite(alice.ID, keeper.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeletePostCascade(doomed.ID))

	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", keeper.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.PostPayload{}, "post_id = ?", keeper.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Favorite{}, "post_id = ?", keeper.ID))
}

func TestDeleteWrapperPostRemovesRepostNotification(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	repostRepo := NewPostgresRepostRepository(db)
	alice := createAccount(t, db, "alice")
	bob := createAccount(t, db, "bob")

	original := createTextPost(t, db, alice.ID, "hi", time.Now())
	repost, created, err := repostRepo.ActivateRepost(bob.ID, original.ID)
	require.NoError(t, err)
	require.True(t, created)

	// The notification points at the original post, which outlives the
	// wrapper, so the wrapper cascade has to clean it up explicitly.
	notification := models.Notification{AccountID: alice.ID, PostID: &original.ID, Action: models.ActionReposted, ActionAccountID: bob.ID, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&notification).Error)

	require.NoError(t, repo.DeletePostCascade(repost.WrapperPostID))

	assert.EqualValues(t, 0, countRows(t, db, &models.Repost{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.Notification{}, "action = ?", models.ActionReposted))
	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", original.ID))

	// With all traces gone the same account can repost again.
	_, created, err = repostRepo.ActivateRepost(bob.ID, original.ID)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestListTimelineWindowingAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	alice := createAccount(t, db, "alice")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		createTextPost(t, db, alice.ID, "post", base.Add(time.Duration(i)*time.Minute))
	}
	// Replies never show in the timeline.
	parent := createTextPost(t, db, alice.ID, "parent", base)
	createReply(t, db, alice.ID, parent.ID, "reply", base.Add(30*time.Minute))

	cutoff := base.Add(10 * time.Minute)
	posts, err := repo.ListTimeline(cutoff, FeedPageSize)
	require.NoError(t, err)

	require.NotEmpty(t, posts)
	assert.LessOrEqual(t, len(posts), FeedPageSize)
	for i, post := range posts {
		assert.False(t, post.CreatedAt.After(cutoff), "post %d newer than the window", i)
		assert.Nil(t, post.ReplyToID)
		if i > 0 {
			assert.False(t, posts[i-1].CreatedAt.Before(post.CreatedAt), "ordering broken at %d", i)
		}
	}

	// A wide-open window still caps at the page size.
	posts, err = repo.ListTimeline(base.Add(time.Hour), FeedPageSize)
	require.NoError(t, err)
	assert.Len(t, posts, FeedPageSize)
}

func TestListFollowingTimeline(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	alice := createAccount(t, db, "alice")
	bob := createAccount(t, db, "bob")
	carol := createAccount(t, db, "carol")

	now := time.Now()
	createTextPost(t, db, alice.ID, "from alice", now)
	createTextPost(t, db, bob.ID, "from bob", now)
	createTextPost(t, db, carol.ID, "from carol", now)

	posts, err := repo.ListFollowingTimeline([]uint{alice.ID, bob.ID}, now.Add(time.Second), FeedPageSize)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, post := range posts {
		assert.NotEqual(t, carol.ID, post.AccountID)
	}

	// Following nobody means an empty feed, not an error.
	posts, err = repo.ListFollowingTimeline(nil, now.Add(time.Second), FeedPageSize)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListReplies(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	alice := createAccount(t, db, "alice")
	bob := createAccount(t, db, "bob")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parent := createTextPost(t, db, alice.ID, "parent", base)
	createReply(t, db, bob.ID, parent.ID, "r1", base.Add(time.Minute))
	createReply(t, db, alice.ID, parent.ID, "r2", base.Add(2*time.Minute))
	createTextPost(t, db, bob.ID, "unrelated", base.Add(3*time.Minute))

	replies, err := repo.ListReplies(parent.ID, base.Add(time.Hour), FeedPageSize)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "r2", mustPayload(t, repo, replies[0].ID).Content)
	assert.Equal(t, "r1", mustPayload(t, repo, replies[1].ID).Content)

	count, err := repo.CountReplies(parent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func mustPayload(t *testing.T, repo PostRepository, postID uint) *models.PostPayload {
	t.Helper()
	payload, err := repo.GetPayload(postID)
	require.NoError(t, err)
	return payload
}
