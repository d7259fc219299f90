package orderlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Orderline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Order represents the API order model (partial).
type Order struct {
	ID         int64   `json:"order_id"`
	Status     string  `json:"status"`
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name,omitempty"`
	Subject    string  `json:"subject,omitempty"`
	WorkType   string  `json:"work_type,omitempty"`
	Deadline   string  `json:"deadline,omitempty"`
	Comment    string  `json:"comment,omitempty"`
	ExecutorID string  `json:"executor_id,omitempty"`
	FinalPrice int     `json:"final_price,omitempty"`
	DueDate    string  `json:"due_date,omitempty"`
	Offers     []Offer `json:"offers,omitempty"`
}

// Offer represents one executor's proposed terms.
type Offer struct {
	ExecutorID   string `json:"executor_id"`
	ExecutorName string `json:"executor_name,omitempty"`
	Price        int    `json:"price"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// Blob is a file reference (document or photo).
type Blob struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
	Name string `json:"name,omitempty"`
}

// Profile represents a client profile.
type Profile struct {
	ClientID   string `json:"client_id"`
	Name       string `json:"name,omitempty"`
	Group      string `json:"group,omitempty"`
	University string `json:"university,omitempty"`
	Gradebook  string `json:"gradebook,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Executor represents a registry entry.
type Executor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	OrderID int64  `json:"order_id,omitempty"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateOrder opens a draft.
func (c *Client) CreateOrder(ctx context.Context, subject, workType, deadline, comment string) (Order, error) {
	body := map[string]any{
		"subject":   subject,
		"work_type": workType,
		"deadline":  deadline,
		"comment":   comment,
	}
	var resp Order
	err := c.do(ctx, http.MethodPost, "v0/orders", body, &resp)
	return resp, err
}

// ConfirmOrder confirms a draft, optionally saving the profile.
func (c *Client) ConfirmOrder(ctx context.Context, id int64, profile *Profile) (Order, error) {
	body := map[string]any{}
	if profile != nil {
		body["profile"] = profile
	}
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "confirm"), body, &resp)
	return resp, err
}

// CancelOrder removes an order.
func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, c.orderPath(id, "cancel"), nil, nil)
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodGet, c.orderPath(id, ""), nil, &resp)
	return resp, err
}

// ListOrders returns orders visible to the caller.
func (c *Client) ListOrders(ctx context.Context, status string) ([]Order, error) {
	endpoint := "v0/orders"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Order
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// AssignExecutor invites one executor.
func (c *Client) AssignExecutor(ctx context.Context, id int64, executorID string) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "assign"), map[string]any{"executor_id": executorID}, &resp)
	return resp, err
}

// Broadcast offers the order to all executors.
func (c *Client) Broadcast(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "broadcast"), nil, &resp)
	return resp, err
}

// SelfTake has the operator take the order on own terms.
func (c *Client) SelfTake(ctx context.Context, id int64, price int, deadline, comment string) (Order, error) {
	body := map[string]any{"price": price, "deadline": deadline, "comment": comment}
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "self-take"), body, &resp)
	return resp, err
}

// SubmitOffer posts or replaces the caller's offer.
func (c *Client) SubmitOffer(ctx context.Context, id int64, price int, deadline, comment string) (Order, error) {
	body := map[string]any{"price": price, "deadline": deadline, "comment": comment}
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "offers"), body, &resp)
	return resp, err
}

// DeclineInvitation passes on an invited or broadcast order.
func (c *Client) DeclineInvitation(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "decline"), nil, &resp)
	return resp, err
}

// ApproveOffer accepts one executor's offer; price > 0 overrides the
// client price.
func (c *Client) ApproveOffer(ctx context.Context, id int64, executorID string, price int) (Order, error) {
	body := map[string]any{}
	if price > 0 {
		body["price"] = price
	}
	endpoint := c.orderPath(id, fmt.Sprintf("offers/%s/approve", url.PathEscape(executorID)))
	var resp Order
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// RejectOffer removes one executor's offer.
func (c *Client) RejectOffer(ctx context.Context, id int64, executorID string) (Order, error) {
	endpoint := c.orderPath(id, fmt.Sprintf("offers/%s/reject", url.PathEscape(executorID)))
	var resp Order
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// SubmitPaymentProof attaches proof of payment.
func (c *Client) SubmitPaymentProof(ctx context.Context, id int64, proof Blob) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "payment/proof"), map[string]any{"proof": proof}, &resp)
	return resp, err
}

// AcceptPayment confirms the money arrived.
func (c *Client) AcceptPayment(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "payment/accept"), nil, &resp)
	return resp, err
}

// RejectPayment discards the proof and asks again.
func (c *Client) RejectPayment(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "payment/reject"), nil, &resp)
	return resp, err
}

// CancelPayment backs out of paying.
func (c *Client) CancelPayment(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "payment/cancel"), nil, &resp)
	return resp, err
}

// SubmitWork delivers the finished work.
func (c *Client) SubmitWork(ctx context.Context, id int64, file Blob) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "work"), map[string]any{"file": file}, &resp)
	return resp, err
}

// ApproveWork forwards the work to the client.
func (c *Client) ApproveWork(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "work/approve"), nil, &resp)
	return resp, err
}

// RejectWork sends the work back to the executor.
func (c *Client) RejectWork(ctx context.Context, id int64, comment string) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "work/reject"), map[string]any{"comment": comment}, &resp)
	return resp, err
}

// AcceptWork completes the order.
func (c *Client) AcceptWork(ctx context.Context, id int64) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "work/accept"), nil, &resp)
	return resp, err
}

// RequestRevision asks for rework on an approved delivery.
func (c *Client) RequestRevision(ctx context.Context, id int64, comment string) (Order, error) {
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "work/revision"), map[string]any{"comment": comment}, &resp)
	return resp, err
}

// RefuseOrder walks away from an in-progress order.
func (c *Client) RefuseOrder(ctx context.Context, id int64, reason, comment string) (Order, error) {
	body := map[string]any{"reason": reason, "comment": comment}
	var resp Order
	err := c.do(ctx, http.MethodPost, c.orderPath(id, "refuse"), body, &resp)
	return resp, err
}

// ListExecutors returns the executor registry.
func (c *Client) ListExecutors(ctx context.Context) ([]Executor, error) {
	var resp []Executor
	err := c.do(ctx, http.MethodGet, "v0/executors", nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, after int64, limit int) ([]Event, error) {
	endpoint := fmt.Sprintf("v0/events?after=%d", after)
	if limit > 0 {
		endpoint = fmt.Sprintf("%s&limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) orderPath(id int64, p string) string {
	if p == "" {
		return fmt.Sprintf("v0/orders/%d", id)
	}
	return fmt.Sprintf("v0/orders/%d/%s", id, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
