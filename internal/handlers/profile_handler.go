package handlers

import (
	"bytes"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/feathr-social/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ProfileHandler serves public profiles, profile updates and the follow
// toggle
type ProfileHandler struct {
	accountRepository repositories.AccountRepository
	followRepository  repositories.FollowRepository
	fileStore         storage.FileStore
	notifier          *push.Notifier
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(
	accountRepo repositories.AccountRepository,
	followRepo repositories.FollowRepository,
	fileStore storage.FileStore,
	notifier *push.Notifier,
) *ProfileHandler {
	return &ProfileHandler{
		accountRepository: accountRepo,
		followRepository:  followRepo,
		fileStore:         fileStore,
		notifier:          notifier,
	}
}

// RegisterPublicRoutes registers routes readable without authentication
func (h *ProfileHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/profiles/:username", h.GetProfile)
}

// RegisterProtectedRoutes registers authenticated profile routes
func (h *ProfileHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/profiles/:username/follow", h.ToggleFollow)
}

// GetProfile returns a public profile with follower counts and the
// viewer's follow state
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	viewerID := getAccountIDFromContext(c)

	account, err := h.accountRepository.GetByUsername(c.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	followers, err := h.followRepository.GetFollowersCount(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.GetFollowingCount(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	info := models.ProfileInfo{
		Username:       account.User.Username,
		DisplayName:    account.DisplayName,
		Followers:      followers,
		Following:      following,
		IsOwner:        viewerID != 0 && viewerID == account.ID,
		ProfilePicture: h.fileStore.URL(account.ProfilePicture),
		BannerPicture:  h.fileStore.URL(account.BannerPicture),
	}
	if viewerID != 0 {
		info.IsFollowing, err = h.followRepository.IsFollowing(viewerID, account.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, info)
}

// ToggleFollow follows the named account, or retracts an existing follow
func (h *ProfileHandler) ToggleFollow(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	target, err := h.accountRepository.GetByUsername(c.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	actor, err := h.accountRepository.GetByID(accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated account not found")
	}

	notification := &models.Notification{
		AccountID:       target.ID,
		Action:          models.ActionFollowed,
		ActionAccountID: accountID,
		CreatedAt:       time.Now(),
	}
	created, err := h.notifier.Toggle(notification, actor, func(tx *gorm.DB) (bool, error) {
		follows := h.followRepository.WithTx(tx)
		created, err := follows.EnsureFollow(accountID, target.ID)
		if err != nil || created {
			return created, err
		}
		return false, follows.DeleteFollow(accountID, target.ID)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"following": created})
}

// UpdateProfile updates display name and profile/banner images. A
// replaced image's old file is deleted from storage.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	account, err := h.accountRepository.GetByID(accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated account not found")
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.DisplayName != "" {
		account.DisplayName = req.DisplayName
	}

	if path, err := h.replaceImage(c, "profile_picture", account, account.ProfilePicture); err != nil {
		return err
	} else if path != "" {
		account.ProfilePicture = path
	}
	if path, err := h.replaceImage(c, "banner_picture", account, account.BannerPicture); err != nil {
		return err
	} else if path != "" {
		account.BannerPicture = path
	}

	if err := h.accountRepository.UpdateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, account)
}

// replaceImage stores an uploaded image form field if present and
// deletes the file it supersedes. Returns "" when the field is absent.
func (h *ProfileHandler) replaceImage(c echo.Context, field string, account *models.Account, oldPath string) (string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	data, err := readImageFile(fileHeader)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, field+" is not a valid image file")
	}
	path, err := h.fileStore.Save(account.User.Username, fileHeader.Filename, data)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to store "+field)
	}
	if oldPath != "" {
		if err := h.fileStore.Delete(oldPath); err != nil {
			log.Printf("failed to delete replaced %s %q: %v", field, oldPath, err)
		}
	}
	return path, nil
}

// readImageFile reads an uploaded file and verifies it decodes as an
// image.
func readImageFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return data, nil
}
