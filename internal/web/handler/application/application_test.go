package application

import (
	"io"
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
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/session"
)

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

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	cookie string
}

// setupEnv builds an app with the application routes and a logged in company
// user holding every application permission. One approved job posting each for
// the logged in tenant (ID 1) and a foreign one (ID 2) are created.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	err = db.AutoMigrate(
		&models.Role{}, &models.Permission{}, &models.RolePermission{},
		&models.User{}, &models.JobPosting{}, &models.JobApplication{},
	)
	require.NoError(t, err, "failed to migrate models")

	role := models.Role{Name: "company", IsSystem: true}
	require.NoError(t, db.Create(&role).Error)

	for _, name := range []string{
		auth.PermApplicationList, auth.PermApplicationUpdate, auth.PermApplicationDelete,
	} {
		perm := models.Permission{Name: name, Resource: "application", Action: name}
		require.NoError(t, db.Create(&perm).Error)
		require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)
	}

	user := models.User{
		Active:   true,
		Username: "acme",
		Email:    "acme@example.com",
		Type:     models.UserTypeCompany,
		RoleID:   role.ID,
	}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, db.Create(&models.JobPosting{
		UserID: user.ID, Title: "Engineer", Status: models.JobApproved,
	}).Error)
	require.NoError(t, db.Create(&models.JobPosting{
		UserID: 99, Title: "Foreign", Status: models.JobApproved,
	}).Error)

	session.Init(&testStorage{data: make(map[string][]byte)})

	sessionID, err := session.GenerateSessionID()
	require.NoError(t, err)

	sessData := &session.Data{User: user}
	require.NoError(t, sessData.Write(sessionID, time.Minute))

	app := fiber.New()

	// stand-in for the service-level auth middleware
	app.Use(func(c *fiber.Ctx) error {
		sessData := new(session.Data)
		_ = sessData.Read(c.Cookies(session.CookieName))

		if sessData.User.ID > 0 {
			c.Locals("CurrentUser", sessData.User)
		}

		return c.Next()
	})

	cfg := &config.Config{MultiTenant: true}

	var s Service
	s.Init(app, cfg, db, auth.NewService(db), tenant.NewResolver(db, true))

	return &testEnv{
		app:    app,
		db:     db,
		cookie: session.CookieName + "=" + sessionID,
	}
}

func (e *testEnv) request(t *testing.T, method, target, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", e.cookie)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func TestUpdateApplication(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.JobApplication{
		JobPostingID: 1, Name: "Ada", Email: "ada@example.com",
		Status: models.ApplicationApplied,
	}).Error)

	resp := env.request(t, http.MethodPut, Path+"/1",
		`{"name":"Ada Lovelace","email":"ada@example.com","phone":"555-0100"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var application models.JobApplication
	require.NoError(t, env.db.First(&application, 1).Error)
	assert.Equal(t, "Ada Lovelace", application.Name)
	assert.Equal(t, "555-0100", application.Phone)
	assert.Equal(t, models.ApplicationApplied, application.Status)
}

func TestUpdateApplicationOtherTenant(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.JobApplication{
		JobPostingID: 2, Name: "Foreign", Email: "x@example.com",
		Status: models.ApplicationApplied,
	}).Error)

	resp := env.request(t, http.MethodPut, Path+"/1",
		`{"name":"Hijacked","email":"x@example.com"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteApplication(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.JobApplication{
		JobPostingID: 1, Name: "Ada", Email: "ada@example.com",
		Status: models.ApplicationApplied,
	}).Error)

	resp := env.request(t, http.MethodDelete, Path+"/1", "")
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.JobApplication{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteApplicationOtherTenant(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.JobApplication{
		JobPostingID: 2, Name: "Foreign", Email: "x@example.com",
		Status: models.ApplicationApplied,
	}).Error)

	resp := env.request(t, http.MethodDelete, Path+"/1", "")
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.JobApplication{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
