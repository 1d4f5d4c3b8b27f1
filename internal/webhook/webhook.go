// Package webhook delivers entity events to tenant-configured endpoints.
// Delivery is fire-and-forget: a failed delivery is logged and never
// surfaces to the request that triggered it.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/db/models"
)

const defaultTimeout = 10 * time.Second

// Payload is the JSON body delivered to an endpoint.
type Payload struct {
	Event     models.WebhookEvent `json:"event"`
	Timestamp time.Time           `json:"timestamp"`
	Data      any                 `json:"data"`
}

// Dispatcher looks up active endpoints and delivers event payloads to them.
type Dispatcher struct {
	db     *gorm.DB
	client *http.Client
}

// NewDispatcher creates a dispatcher with the given delivery timeout.
// A non-positive timeout falls back to ten seconds.
func NewDispatcher(db *gorm.DB, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Dispatcher{
		db:     db,
		client: &http.Client{Timeout: timeout},
	}
}

// Fire delivers the event to every active endpoint the owning account has
// subscribed for it. Delivery happens in a background goroutine per endpoint;
// Fire returns immediately.
func (d *Dispatcher) Fire(ownerID uint64, event models.WebhookEvent, data any) {
	if d == nil || d.db == nil {
		return
	}

	var endpoints []models.WebhookEndpoint
	err := d.db.Where("user_id = ? AND event = ? AND active = ?", ownerID, event, true).
		Find(&endpoints).Error
	if err != nil {
		log.Warn().Err(err).Str("event", string(event)).Msg("failed to load webhook endpoints")
		return
	}

	if len(endpoints) == 0 {
		return
	}

	payload := Payload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("event", string(event)).Msg("failed to encode webhook payload")
		return
	}

	for i := range endpoints {
		endpoint := endpoints[i]

		go func() {
			if err := d.deliver(&endpoint, body); err != nil {
				log.Warn().
					Err(err).
					Str("event", string(event)).
					Str("url", endpoint.URL).
					Msg("webhook delivery failed")

				return
			}

			log.Debug().
				Str("event", string(event)).
				Str("url", endpoint.URL).
				Msg("webhook delivered")
		}()
	}
}

func (d *Dispatcher) deliver(endpoint *models.WebhookEndpoint, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.client.Timeout)
	defer cancel()

	method := endpoint.Method
	if method != http.MethodPut {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build webhook request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Crewdesk-Webhook")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
