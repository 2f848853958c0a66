package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/feathr-social/backend/internal/middleware"
	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/feathr-social/backend/internal/storage"
	"github.com/feathr-social/backend/validators"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv wires the handlers under test to real repositories over an
// in-memory database.
type testEnv struct {
	db        *gorm.DB
	echo      *echo.Echo
	hub       *push.Hub
	notifier  *push.Notifier
	mediaRoot string
	now       time.Time

	accounts      repositories.AccountRepository
	posts         repositories.PostRepository
	favorites     repositories.FavoriteRepository
	reposts       repositories.RepostRepository
	follows       repositories.FollowRepository
	notifications repositories.NotificationRepository
	streams       repositories.StreamRepository
	fileStore     storage.FileStore
	serializer    *PostSerializer
}

func newTestEnv(t *testing.T) *testEnv {
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

	e := echo.New()
	e.Validator = validators.NewValidator()

	env := &testEnv{
		db:        db,
		echo:      e,
		hub:       push.NewHub(),
		mediaRoot: t.TempDir(),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.accounts = repositories.NewPostgresAccountRepository(db)
	env.posts = repositories.NewPostgresPostRepository(db)
	env.favorites = repositories.NewPostgresFavoriteRepository(db)
	env.reposts = repositories.NewPostgresRepostRepository(db)
	env.follows = repositories.NewPostgresFollowRepository(db)
	env.notifications = repositories.NewPostgresNotificationRepository(db)
	env.streams = repositories.NewPostgresStreamRepository(db)
	env.notifier = push.NewNotifier(db, env.streams, env.hub, func() time.Time { return env.now })
	env.fileStore = storage.NewLocalFileStore(env.mediaRoot, "/media")
	env.serializer = NewPostSerializer(env.posts, env.favorites, env.reposts, env.fileStore)
	return env
}

// request builds an echo context and recorder for a handler invocation
func (env *testEnv) request(method, target string, body io.Reader, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return env.echo.NewContext(req, rec), rec
}

// asAccount stamps the context with the claims RequireAuth would set
func asAccount(c echo.Context, account *models.Account) {
	c.Set(middleware.ContextKeyClaims, &models.JwtCustomClaims{
		AccountID: account.ID,
		Username:  account.User.Username,
	})
}

// openStream mints a stream token for the account and registers a
// recording connection under its channel key.
func (env *testEnv) openStream(t *testing.T, account *models.Account) *recordingConn {
	t.Helper()
	token := uuid.NewString()
	require.NoError(t, env.streams.Mint(account.ID, token, env.now))
	conn := &recordingConn{}
	env.hub.Register(models.StreamKey(account.ID, token), conn)
	return conn
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T: %v", err, err)
	return httpErr
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

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

// recordingConn captures stream messages in place of a live websocket
type recordingConn struct {
	mu       sync.Mutex
	messages []push.StreamMessage
	closed   bool
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := v.(push.StreamMessage)
	if !ok {
		return fmt.Errorf("unexpected message type %T", v)
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) received() []push.StreamMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]push.StreamMessage, len(c.messages))
	copy(out, c.messages)
	return out
}
