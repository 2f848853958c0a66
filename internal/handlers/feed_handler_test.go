package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedResponse struct {
	Posts []PostView `json:"posts"`
}

func (env *testEnv) feedHandler() *FeedHandler {
	return NewFeedHandler(env.posts, env.follows, env.serializer)
}

func TestGetFeedAnonymous(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")

	createTextPost(t, env.db, alice.ID, "older", env.now.Add(-time.Minute))
	createTextPost(t, env.db, alice.ID, "newer", env.now)

	c, rec := env.request(http.MethodGet, "/api/v1/feed", nil, "")
	require.NoError(t, h.GetFeed(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, "newer", resp.Posts[0].Content)
	assert.Equal(t, "older", resp.Posts[1].Content)
	assert.Equal(t, "alice", resp.Posts[0].AccountUsername)
	assert.Equal(t, "alice display", resp.Posts[0].AccountDisplayName)

	// Anonymous viewers see no viewer-specific state.
	for _, post := range resp.Posts {
		assert.False(t, post.IsOwner)
		assert.False(t, post.Favorited)
		assert.False(t, post.Reposted)
	}
}

func TestGetFeedViewerFlags(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")
	bob := createAccount(t, env.db, "bob")

	post := createTextPost(t, env.db, alice.ID, "hi", env.now)
	createTextPost(t, env.db, bob.ID, "mine", env.now.Add(time.Second))
	_, err := env.favorites.EnsureFavorite(bob.ID, post.ID)
	require.NoError(t, err)

	c, rec := env.request(http.MethodGet, "/api/v1/feed", nil, "")
	asAccount(c, bob)
	require.NoError(t, h.GetFeed(c))

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 2)
	assert.True(t, resp.Posts[0].IsOwner)
	assert.False(t, resp.Posts[0].Favorited)
	assert.False(t, resp.Posts[1].IsOwner)
	assert.True(t, resp.Posts[1].Favorited)
	assert.EqualValues(t, 1, resp.Posts[1].FavoriteCount)
}

func TestGetFeedFollowing(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")
	bob := createAccount(t, env.db, "bob")
	carol := createAccount(t, env.db, "carol")

	createTextPost(t, env.db, alice.ID, "from alice", env.now)
	createTextPost(t, env.db, carol.ID, "from carol", env.now)
	_, err := env.follows.EnsureFollow(bob.ID, alice.ID)
	require.NoError(t, err)

	c, rec := env.request(http.MethodGet, "/api/v1/feed?following=true", nil, "")
	asAccount(c, bob)
	require.NoError(t, h.GetFeed(c))

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "from alice", resp.Posts[0].Content)
}

func TestGetFeedFollowingRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()

	c, _ := env.request(http.MethodGet, "/api/v1/feed?following=true", nil, "")
	err := h.GetFeed(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httpError(t, err).Code)
}

func TestGetFeedReplies(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")
	bob := createAccount(t, env.db, "bob")

	parent := createTextPost(t, env.db, alice.ID, "parent", env.now.Add(-time.Minute))
	reply := createTextPost(t, env.db, bob.ID, "child", env.now)
	require.NoError(t, env.db.Model(reply).Update("reply_to_id", parent.ID).Error)
	createTextPost(t, env.db, bob.ID, "unrelated", env.now)

	c, rec := env.request(http.MethodGet, fmt.Sprintf("/api/v1/feed?replies=%d", parent.ID), nil, "")
	require.NoError(t, h.GetFeed(c))

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "child", resp.Posts[0].Content)
	require.NotNil(t, resp.Posts[0].ReplyTo)
	assert.Equal(t, "parent", resp.Posts[0].ReplyTo.Content)
}

func TestGetFeedRepostWrapper(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")
	bob := createAccount(t, env.db, "bob")

	original := createTextPost(t, env.db, alice.ID, "hi", env.now.Add(-time.Minute))
	_, created, err := env.reposts.ActivateRepost(bob.ID, original.ID)
	require.NoError(t, err)
	require.True(t, created)

	c, rec := env.request(http.MethodGet, "/api/v1/feed", nil, "")
	require.NoError(t, h.GetFeed(c))

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 2)

	// The wrapper leads the page and carries the original inside it.
	wrapper := resp.Posts[0]
	assert.True(t, wrapper.IsRepost)
	assert.Equal(t, "bob", wrapper.AccountUsername)
	require.NotNil(t, wrapper.OriginalPost)
	assert.Equal(t, "hi", wrapper.OriginalPost.Content)
	assert.Equal(t, "alice", wrapper.OriginalPost.AccountUsername)
}

func TestGetFeedBadTimestamp(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()

	c, _ := env.request(http.MethodGet, "/api/v1/feed?timestamp=yesterday", nil, "")
	err := h.GetFeed(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpError(t, err).Code)
}

func TestGetFeedTimestampWindow(t *testing.T) {
	env := newTestEnv(t)
	h := env.feedHandler()
	alice := createAccount(t, env.db, "alice")

	cutoff := env.now
	createTextPost(t, env.db, alice.ID, "in window", cutoff.Add(-time.Minute))
	createTextPost(t, env.db, alice.ID, "too new", cutoff.Add(time.Minute))

	target := "/api/v1/feed?timestamp=" + cutoff.Format(time.RFC3339)
	c, rec := env.request(http.MethodGet, target, nil, "")
	require.NoError(t, h.GetFeed(c))

	var resp feedResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "in window", resp.Posts[0].Content)
}
