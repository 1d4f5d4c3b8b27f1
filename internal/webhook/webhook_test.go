package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.WebhookEndpoint{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// capture records requests a test server receives.
type capture struct {
	mu       sync.Mutex
	requests []capturedRequest
	done     chan struct{}
}

type capturedRequest struct {
	method string
	body   []byte
}

func newCapture(expected int) *capture {
	return &capture{done: make(chan struct{}, expected)}
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	c.mu.Lock()
	c.requests = append(c.requests, capturedRequest{method: r.Method, body: body})
	c.mu.Unlock()

	c.done <- struct{}{}

	w.WriteHeader(http.StatusOK)
}

func (c *capture) wait(t *testing.T, n int) []capturedRequest {
	t.Helper()

	for range n {
		select {
		case <-c.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for webhook delivery")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]capturedRequest(nil), c.requests...)
}

func TestFireDeliversToSubscribedEndpoints(t *testing.T) {
	db := setupTestDB(t)

	cap := newCapture(1)
	server := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer server.Close()

	endpoints := []models.WebhookEndpoint{
		{UserID: 1, URL: server.URL, Method: "POST", Event: models.WebhookEmployeeCreated, Active: true},
		{UserID: 1, URL: server.URL, Method: "POST", Event: models.WebhookContractCreated, Active: true},
		{UserID: 1, URL: server.URL, Method: "POST", Event: models.WebhookEmployeeCreated, Active: false},
		{UserID: 2, URL: server.URL, Method: "POST", Event: models.WebhookEmployeeCreated, Active: true},
	}
	for i := range endpoints {
		require.NoError(t, db.Create(&endpoints[i]).Error)
	}

	d := NewDispatcher(db, time.Second)
	d.Fire(1, models.WebhookEmployeeCreated, map[string]any{"id": 42, "name": "Ada"})

	requests := cap.wait(t, 1)
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].method)

	var payload Payload
	require.NoError(t, json.Unmarshal(requests[0].body, &payload))
	assert.Equal(t, models.WebhookEmployeeCreated, payload.Event)

	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", data["name"])
}

func TestFireUsesConfiguredMethod(t *testing.T) {
	db := setupTestDB(t)

	cap := newCapture(1)
	server := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer server.Close()

	endpoint := models.WebhookEndpoint{
		UserID: 1, URL: server.URL, Method: "PUT",
		Event: models.WebhookPayrollCreated, Active: true,
	}
	require.NoError(t, db.Create(&endpoint).Error)

	d := NewDispatcher(db, time.Second)
	d.Fire(1, models.WebhookPayrollCreated, nil)

	requests := cap.wait(t, 1)
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].method)
}

func TestFireWithoutEndpointsIsNoop(t *testing.T) {
	db := setupTestDB(t)

	d := NewDispatcher(db, time.Second)
	d.Fire(1, models.WebhookJobCreated, nil)
}

func TestDeliverRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewDispatcher(setupTestDB(t), time.Second)

	err := d.deliver(&models.WebhookEndpoint{URL: server.URL, Method: "POST"}, []byte(`{}`))
	assert.Error(t, err)
}
