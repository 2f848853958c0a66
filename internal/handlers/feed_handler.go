package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves paginated, viewer-aware post listings
type FeedHandler struct {
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
	serializer       *PostSerializer
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	followRepo repositories.FollowRepository,
	serializer *PostSerializer,
) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		followRepository: followRepo,
		serializer:       serializer,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns a page of posts created at or before the reference
// timestamp (default now), newest first, at most 16. `following=true`
// restricts to followed authors; `replies=<post_id>` lists a post's
// replies instead of the timeline. Anonymous viewers get all
// viewer-specific flags as false.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	viewerID := getAccountIDFromContext(c)

	before := time.Now()
	if ts := c.QueryParam("timestamp"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "timestamp must be RFC3339")
		}
		before = parsed
	}

	var posts []models.Post
	var err error
	switch {
	case c.QueryParam("replies") != "":
		parentID, parseErr := strconv.ParseUint(c.QueryParam("replies"), 10, 32)
		if parseErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "replies must be a post ID")
		}
		posts, err = h.postRepository.ListReplies(uint(parentID), before, repositories.FeedPageSize)
	case c.QueryParam("following") == "true":
		if viewerID == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required for the following feed")
		}
		var followingIDs []uint
		followingIDs, err = h.followRepository.GetFollowingIDs(viewerID)
		if err == nil {
			posts, err = h.postRepository.ListFollowingTimeline(followingIDs, before, repositories.FeedPageSize)
		}
	default:
		posts, err = h.postRepository.ListTimeline(before, repositories.FeedPageSize)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views, err := h.serializer.SerializeAll(posts, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": views})
}
