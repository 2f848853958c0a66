package handlers

import (
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/feathr-social/backend/internal/storage"
	"gorm.io/gorm"
)

// PostView is the serialized, viewer-aware shape of a post. Reply
// parents and reposted originals nest recursively; the chains are
// acyclic because a post can only reference posts that already existed
// when it was created.
type PostView struct {
	ID                 uint      `json:"id"`
	Type               string    `json:"type"`
	Content            string    `json:"content"`
	URL                string    `json:"url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	AccountUsername    string    `json:"account_username"`
	AccountDisplayName string    `json:"account_display_name"`
	AccountAvatar      string    `json:"account_avatar"`
	IsOwner            bool      `json:"is_owner"`
	Favorited          bool      `json:"favorited"`
	FavoriteCount      int64     `json:"favorite_count"`
	Reposted           bool      `json:"reposted"`
	RepostCount        int64     `json:"repost_count"`
	ReplyCount         int64     `json:"reply_count"`
	IsRepost           bool      `json:"is_repost"`
	OriginalPost       *PostView `json:"original_post,omitempty"`
	ReplyTo            *PostView `json:"reply_to,omitempty"`
}

// PostSerializer builds PostViews, joining in payload, engagement counts
// and the viewer's own favorite/repost/ownership state
type PostSerializer struct {
	postRepository     repositories.PostRepository
	favoriteRepository repositories.FavoriteRepository
	repostRepository   repositories.RepostRepository
	fileStore          storage.FileStore
}

// NewPostSerializer creates a new PostSerializer
func NewPostSerializer(
	postRepo repositories.PostRepository,
	favoriteRepo repositories.FavoriteRepository,
	repostRepo repositories.RepostRepository,
	fileStore storage.FileStore,
) *PostSerializer {
	return &PostSerializer{
		postRepository:     postRepo,
		favoriteRepository: favoriteRepo,
		repostRepository:   repostRepo,
		fileStore:          fileStore,
	}
}

// Serialize renders one post for the given viewer. viewerID 0 means
// anonymous: every viewer-specific flag stays false. post must have its
// Account and Account.User loaded.
func (s *PostSerializer) Serialize(post *models.Post, viewerID uint) (*PostView, error) {
	view := &PostView{
		ID:                 post.ID,
		CreatedAt:          post.CreatedAt,
		AccountUsername:    post.Account.User.Username,
		AccountDisplayName: post.Account.DisplayName,
		AccountAvatar:      s.fileStore.URL(post.Account.ProfilePicture),
		IsOwner:            viewerID != 0 && viewerID == post.AccountID,
	}

	payload, err := s.postRepository.GetPayload(post.ID)
	switch {
	case err == nil:
		view.Type = payload.Kind
		view.Content = payload.Content
		if payload.Kind == models.PayloadKindImage {
			view.URL = s.fileStore.URL(payload.ImagePath)
		}
	case err == gorm.ErrRecordNotFound:
		// No payload: this post is a repost wrapper.
		repost, err := s.repostRepository.GetByWrapperPostID(post.ID)
		if err != nil {
			return nil, err
		}
		view.IsRepost = true
		original, err := s.postRepository.GetPostByID(repost.PostID)
		if err != nil {
			return nil, err
		}
		view.OriginalPost, err = s.Serialize(original, viewerID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if view.FavoriteCount, err = s.favoriteRepository.CountByPostID(post.ID); err != nil {
		return nil, err
	}
	if view.RepostCount, err = s.repostRepository.CountByPostID(post.ID); err != nil {
		return nil, err
	}
	if view.ReplyCount, err = s.postRepository.CountReplies(post.ID); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if view.Favorited, err = s.favoriteRepository.HasFavorited(viewerID, post.ID); err != nil {
			return nil, err
		}
		if view.Reposted, err = s.repostRepository.HasReposted(viewerID, post.ID); err != nil {
			return nil, err
		}
	}

	if post.ReplyToID != nil {
		parent, err := s.postRepository.GetPostByID(*post.ReplyToID)
		if err != nil {
			return nil, err
		}
		view.ReplyTo, err = s.Serialize(parent, viewerID)
		if err != nil {
			return nil, err
		}
	}

	return view, nil
}

// SerializeAll renders a page of posts
func (s *PostSerializer) SerializeAll(posts []models.Post, viewerID uint) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		view, err := s.Serialize(&posts[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// SerializeNotification renders a notification row for the list endpoint
// and the push path. n must have ActionAccount.User loaded.
func SerializeNotification(n *models.Notification) models.NotificationPayload {
	return models.NotificationPayload{
		NotificationID:           n.ID,
		Action:                   n.Action,
		ActionAccount:            n.ActionAccount.User.Username,
		ActionAccountDisplayName: n.ActionAccount.DisplayName,
		Read:                     n.Read,
		CreatedAt:                n.CreatedAt,
		PostID:                   n.PostID,
	}
}
