package login

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
	websess "github.com/crewdesk/crewdesk/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	err = db.AutoMigrate(&models.Role{}, &models.User{})
	require.NoError(t, err, "failed to migrate models")

	require.NoError(t, db.Create(&models.Role{Name: "company", IsSystem: true}).Error)

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func initSessionStore() {
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

func performLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func TestPostSuccessSetsCookie(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db))

	lp := auth.NewLocalProvider(db)
	_, err := lp.CreateUser("bob", "bob@example.com", "s3cr3t", "Bob", "Doe",
		models.UserTypeCompany, nil, 1)
	require.NoError(t, err)

	resp := performLogin(t, app, `{"username":"bob","password":"s3cr3t"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, "session=")
	assert.Contains(t, strings.ToLower(setCookie), "secure")
}

func TestPostDevModeDisablesSecure(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	cfg := newTestConfig()
	cfg.DevMode = true

	var s Service
	require.NoError(t, s.Init(app, cfg, db))

	lp := auth.NewLocalProvider(db)
	_, err := lp.CreateUser("carol", "carol@example.com", "pass", "Carol", "Doe",
		models.UserTypeCompany, nil, 1)
	require.NoError(t, err)

	resp := performLogin(t, app, `{"username":"carol","password":"pass"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, strings.ToLower(resp.Header.Get("Set-Cookie")), "secure")
}

func TestPostWrongPassword(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db))

	lp := auth.NewLocalProvider(db)
	_, err := lp.CreateUser("bob", "bob@example.com", "s3cr3t", "Bob", "Doe",
		models.UserTypeCompany, nil, 1)
	require.NoError(t, err)

	resp := performLogin(t, app, `{"username":"bob","password":"wrong"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
}

func TestPostInactiveAccount(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db))

	lp := auth.NewLocalProvider(db)
	user, err := lp.CreateUser("dave", "dave@example.com", "pass", "Dave", "Doe",
		models.UserTypeCompany, nil, 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("active", false).Error)

	resp := performLogin(t, app, `{"username":"dave","password":"pass"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostMalformedBody(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db))

	resp := performLogin(t, app, "{")
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
