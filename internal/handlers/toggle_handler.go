package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ToggleHandler applies create-or-retract semantics for favorites and
// reposts, keeping notification state in step: activation creates the
// matching notification and pushes it, retraction deletes it and pushes
// a removal. The pair mutation and its notification land in one
// transaction, so duplicate toggles racing each other cannot leave a
// notification without its pair row or vice versa.
type ToggleHandler struct {
	postRepository     repositories.PostRepository
	favoriteRepository repositories.FavoriteRepository
	repostRepository   repositories.RepostRepository
	accountRepository  repositories.AccountRepository
	notifier           *push.Notifier
}

// NewToggleHandler creates a new ToggleHandler
func NewToggleHandler(
	postRepo repositories.PostRepository,
	favoriteRepo repositories.FavoriteRepository,
	repostRepo repositories.RepostRepository,
	accountRepo repositories.AccountRepository,
	notifier *push.Notifier,
) *ToggleHandler {
	return &ToggleHandler{
		postRepository:     postRepo,
		favoriteRepository: favoriteRepo,
		repostRepository:   repostRepo,
		accountRepository:  accountRepo,
		notifier:           notifier,
	}
}

// RegisterToggleRoutes registers favorite and repost routes
func (h *ToggleHandler) RegisterToggleRoutes(g *echo.Group) {
	g.POST("/posts/:id/favorite", h.ToggleFavorite)
	g.POST("/posts/:id/repost", h.ToggleRepost)
}

// ToggleFavorite favorites the post, or retracts an existing favorite
func (h *ToggleHandler) ToggleFavorite(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	post, actor, err := h.loadTarget(c, accountID)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		AccountID:       post.AccountID,
		PostID:          &post.ID,
		Action:          models.ActionFavorited,
		ActionAccountID: accountID,
		CreatedAt:       time.Now(),
	}
	created, err := h.notifier.Toggle(notification, actor, func(tx *gorm.DB) (bool, error) {
		favorites := h.favoriteRepository.WithTx(tx)
		created, err := favorites.EnsureFavorite(accountID, post.ID)
		if err != nil || created {
			return created, err
		}
		return false, favorites.DeleteFavorite(accountID, post.ID)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	count, err := h.favoriteRepository.CountByPostID(post.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"favorited": created, "favorite_count": count})
}

// ToggleRepost reposts the post, or retracts an existing repost along
// with its wrapper post
func (h *ToggleHandler) ToggleRepost(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	post, actor, err := h.loadTarget(c, accountID)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		AccountID:       post.AccountID,
		PostID:          &post.ID,
		Action:          models.ActionReposted,
		ActionAccountID: accountID,
		CreatedAt:       time.Now(),
	}
	created, err := h.notifier.Toggle(notification, actor, func(tx *gorm.DB) (bool, error) {
		reposts := h.repostRepository.WithTx(tx)
		repost, created, err := reposts.ActivateRepost(accountID, post.ID)
		if err != nil || created {
			return created, err
		}
		return false, reposts.RetractRepost(repost)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	count, err := h.repostRepository.CountByPostID(post.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"reposted": created, "repost_count": count})
}

// loadTarget resolves the :id post and the acting account
func (h *ToggleHandler) loadTarget(c echo.Context, accountID uint) (*models.Post, *models.Account, error) {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(uint(postID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	actor, err := h.accountRepository.GetByID(accountID)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Authenticated account not found")
	}
	return post, actor, nil
}
