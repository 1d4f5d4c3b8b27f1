package employee

import (
	"encoding/json"
	"fmt"
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
	"github.com/crewdesk/crewdesk/internal/webhook"
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

// setupEnv builds an app with the employee routes and a logged in company
// user that holds every employee permission.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	err = db.AutoMigrate(
		&models.Role{}, &models.Permission{}, &models.RolePermission{},
		&models.User{}, &models.Employee{}, &models.WebhookEndpoint{},
	)
	require.NoError(t, err, "failed to migrate models")

	// role with every employee permission
	role := models.Role{Name: "company", IsSystem: true}
	require.NoError(t, db.Create(&role).Error)

	for _, name := range []string{
		auth.PermEmployeeList, auth.PermEmployeeCreate,
		auth.PermEmployeeUpdate, auth.PermEmployeeDelete,
	} {
		perm := models.Permission{Name: name, Resource: "employee", Action: name}
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
	tenants := tenant.NewResolver(db, true)
	hooks := webhook.NewDispatcher(db, time.Second)

	var s Service
	s.Init(app, cfg, db, auth.NewService(db), tenants, hooks)

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

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestCreateEmployee(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, http.MethodPost, Path,
		`{"name":"Ada","email":"ada@example.com","basic_salary":3000,"allowances":500}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Employee created", body["message"])

	var employee models.Employee
	require.NoError(t, env.db.First(&employee).Error)
	assert.Equal(t, "Ada", employee.Name)
	assert.Equal(t, models.EmployeeActive, employee.Status)
}

func TestCreateEmployeeValidation(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, http.MethodPost, Path, `{"email":"not-a-name"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListEmployeesScopedToOwner(t *testing.T) {
	env := setupEnv(t)

	// rows for the logged in tenant and a foreign one
	for i := 1; i <= 3; i++ {
		require.NoError(t, env.db.Create(&models.Employee{
			UserID: 1, Name: fmt.Sprintf("Own %d", i), Status: models.EmployeeActive,
		}).Error)
	}

	require.NoError(t, env.db.Create(&models.Employee{
		UserID: 99, Name: "Foreign", Status: models.EmployeeActive,
	}).Error)

	resp := env.request(t, http.MethodGet, Path+"?per_page=2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["last_page"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestUpdateEmployeeOtherTenant(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.Employee{
		UserID: 99, Name: "Foreign", Status: models.EmployeeActive,
	}).Error)

	resp := env.request(t, http.MethodPut, Path+"/1", `{"name":"Hijacked"}`)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteEmployee(t *testing.T) {
	env := setupEnv(t)

	require.NoError(t, env.db.Create(&models.Employee{
		UserID: 1, Name: "Ada", Status: models.EmployeeActive,
	}).Error)

	resp := env.request(t, http.MethodDelete, Path+"/1", "")
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Employee{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRequestWithoutSession(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodGet, Path, nil)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
