package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"orderline/internal/config"
	"orderline/internal/domain"
	"orderline/internal/events"
	"orderline/internal/repo"
)

const (
	defaultWebhookInterval = 2 * time.Second
	defaultWebhookTimeout  = 5 * time.Second
	defaultWebhookBatch    = 100
)

// WebhookPump drains the event log to configured HTTP sinks. Cursors
// persist in the webhook_cursors table so restarts resume where a hook
// left off instead of replaying history.
type WebhookPump struct {
	Events   events.Reader
	Repo     repo.Repo
	Webhooks []config.Webhook
	client   *http.Client
}

func NewWebhookPump(rd events.Reader, rp repo.Repo, hooks []config.Webhook) *WebhookPump {
	return &WebhookPump{
		Events:   rd,
		Repo:     rp,
		Webhooks: hooks,
		client:   &http.Client{Timeout: defaultWebhookTimeout},
	}
}

// Run pumps until ctx is cancelled.
func (p *WebhookPump) Run(ctx context.Context) {
	if len(p.Webhooks) == 0 {
		return
	}
	ticker := time.NewTicker(defaultWebhookInterval)
	defer ticker.Stop()
	for {
		p.DispatchAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DispatchAll performs one delivery pass over every configured hook.
func (p *WebhookPump) DispatchAll(ctx context.Context) {
	for _, hook := range p.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			continue
		}
		p.dispatchWebhook(ctx, hook)
	}
}

func (p *WebhookPump) dispatchWebhook(ctx context.Context, hook config.Webhook) {
	cursor, err := p.Repo.WebhookCursor(ctx, hook.ID)
	if err != nil {
		log.Printf("webhook %s: read cursor failed: %v", hook.ID, err)
		return
	}
	evts, err := p.Events.After(ctx, cursor, defaultWebhookBatch)
	if err != nil {
		log.Printf("webhook %s: fetch events failed: %v", hook.ID, err)
		return
	}
	filter := newEventFilter(hook.Events)
	for _, evt := range evts {
		if filter.match(evt.Type) {
			if err := p.postEvent(ctx, hook, evt); err != nil {
				log.Printf("webhook %s: deliver to %s failed: %v", hook.ID, hook.URL, err)
				return
			}
		}
		if err := p.Repo.SetWebhookCursor(ctx, hook.ID, evt.ID); err != nil {
			log.Printf("webhook %s: save cursor failed: %v", hook.ID, err)
			return
		}
	}
}

type webhookEvent struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	TS         string          `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
	PayloadRaw string          `json:"payload_raw,omitempty"`
}

func (p *WebhookPump) postEvent(ctx context.Context, hook config.Webhook, evt domain.Event) error {
	payload := json.RawMessage([]byte("{}"))
	var raw string
	if evt.Payload != "" {
		if json.Valid([]byte(evt.Payload)) {
			payload = json.RawMessage([]byte(evt.Payload))
		} else {
			raw = evt.Payload
		}
	}
	body := webhookEvent{
		ID:         evt.ID,
		Type:       evt.Type,
		OrderID:    evt.OrderID,
		ActorID:    evt.ActorID,
		TS:         evt.TS,
		Payload:    payload,
		PayloadRaw: raw,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Orderline-Event", evt.Type)
	req.Header.Set("X-Orderline-Delivery", fmt.Sprintf("%d", evt.ID))
	if strings.TrimSpace(hook.Secret) != "" {
		req.Header.Set("X-Orderline-Secret", hook.Secret)
	}
	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

type eventFilter struct {
	all bool
	set map[string]struct{}
}

func newEventFilter(evts []string) eventFilter {
	if len(evts) == 0 {
		return eventFilter{all: true}
	}
	set := make(map[string]struct{}, len(evts))
	for _, evt := range evts {
		key := strings.TrimSpace(evt)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	if len(set) == 0 {
		return eventFilter{all: true}
	}
	return eventFilter{set: set}
}

func (f eventFilter) match(evt string) bool {
	if f.all {
		return true
	}
	_, ok := f.set[evt]
	return ok
}
