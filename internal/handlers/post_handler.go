package handlers

import (
	"bytes"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	// Image formats accepted for image posts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/feathr-social/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// maxContentLength bounds text content and image captions
const maxContentLength = 255

// PostHandler handles post creation and deletion
type PostHandler struct {
	postRepository    repositories.PostRepository
	repostRepository  repositories.RepostRepository
	accountRepository repositories.AccountRepository
	fileStore         storage.FileStore
	notifier          *push.Notifier
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	repostRepo repositories.RepostRepository,
	accountRepo repositories.AccountRepository,
	fileStore storage.FileStore,
	notifier *push.Notifier,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		repostRepository:  repostRepo,
		accountRepository: accountRepo,
		fileStore:         fileStore,
		notifier:          notifier,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost inserts a new post with exactly one payload row. Image
// posts are multipart; the uploaded bytes must decode as an image. A
// reply additionally notifies the parent post's owner.
func (h *PostHandler) CreatePost(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.accountRepository.GetByID(accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated account not found")
	}

	var parent *models.Post
	if req.ReplyID != nil {
		parent, err = h.postRepository.GetPostByID(*req.ReplyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return echo.NewHTTPError(http.StatusNotFound, "Reply target not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	payload := &models.PostPayload{Kind: req.Type, Content: req.Content}
	switch req.Type {
	case models.PayloadKindText:
		if req.Content == "" || len(req.Content) > maxContentLength {
			return echo.NewHTTPError(http.StatusBadRequest, "content must be 1-255 characters")
		}
	case models.PayloadKindMarkdown:
		if req.Content == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "content is required")
		}
	case models.PayloadKindImage:
		if len(req.Content) > maxContentLength {
			return echo.NewHTTPError(http.StatusBadRequest, "caption must be at most 255 characters")
		}
		path, err := h.storeImage(c, account.User.Username)
		if err != nil {
			return err
		}
		payload.ImagePath = path
	}

	post := &models.Post{AccountID: accountID, ReplyToID: req.ReplyID}
	if err := h.postRepository.CreatePost(post, payload); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if parent != nil {
		notification := &models.Notification{
			AccountID:       parent.AccountID,
			PostID:          &parent.ID,
			Action:          models.ActionReplied,
			ActionAccountID: accountID,
			CreatedAt:       time.Now(),
		}
		if err := h.notifier.Notify(notification, account); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, post)
}

// storeImage validates the uploaded file decodes as an image and writes
// it to the file store, returning the stored path.
func (h *PostHandler) storeImage(c echo.Context, username string) (string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "failed to open image file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "failed to read image file")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "image is not a valid image file")
	}

	path, err := h.fileStore.Save(username, fileHeader.Filename, data)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to store image")
	}
	return path, nil
}

// DeletePost removes a post owned by the caller and cascades to its
// payload, favorites, reposts, notifications and replies.
func (h *PostHandler) DeletePost(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(uint(postID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if post.AccountID != accountID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	// Deleting a wrapper retracts the repost: the original owner's
	// notification is withdrawn and live clients hear about it before the
	// rows go.
	if repost, err := h.repostRepository.GetByWrapperPostID(post.ID); err == nil {
		if original, err := h.postRepository.GetPostByID(repost.PostID); err == nil {
			if err := h.notifier.Retract(original.AccountID, &repost.PostID, models.ActionReposted, repost.AccountID); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	}

	// Stored image goes with the payload row.
	var imagePath string
	if payload, err := h.postRepository.GetPayload(post.ID); err == nil && payload.Kind == models.PayloadKindImage {
		imagePath = payload.ImagePath
	}

	if err := h.postRepository.DeletePostCascade(post.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if imagePath != "" {
		if err := h.fileStore.Delete(imagePath); err != nil {
			log.Printf("failed to delete media %q: %v", imagePath, err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
