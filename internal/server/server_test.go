package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"orderline/internal/config"
	"orderline/internal/db"
	"orderline/internal/domain"
	"orderline/internal/engine"
	"orderline/internal/migrate"
	"orderline/internal/notify"
	"orderline/internal/store"
)

const testAdminKey = "test-admin-key"
const testJWTSecret = "test-secret"

type testServer struct {
	URL    string
	Engine *engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("admin")
	cfg.Server.AdminKey = testAdminKey
	cfg.Server.JWTSecret = testJWTSecret
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, store.NewFileStore(filepath.Join(workspace, "orders.json")), cfg)
	e.Notify = &notify.Recorder{}
	if err := e.Repo.AddExecutor(context.Background(), domain.Executor{ID: "exec-1", Name: "First"}); err != nil {
		t.Fatalf("add executor: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func token(t *testing.T, actorID string, role domain.Role) string {
	t.Helper()
	tok, err := IssueToken(testJWTSecret, actorID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Api-Key": testAdminKey}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func decodeOrder(t *testing.T, data []byte) domain.Order {
	t.Helper()
	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("unmarshal order: %v (%s)", err, string(data))
	}
	return o
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/orders", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code != "unauthorized" {
		t.Fatalf("error envelope: %s", string(data))
	}

	// health stays open
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	clientTok := bearer(token(t, "client-1", domain.RoleClient))
	execTok := bearer(token(t, "exec-1", domain.RoleExecutor))

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/orders", map[string]any{
		"subject":   "Economics",
		"work_type": "coursework",
		"deadline":  "15.04.2024",
	}, clientTok)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	o := decodeOrder(t, data)
	id := o.ID

	orderURL := srv.URL + "/v0/orders/" + jsonNumber(id)
	res, data = doJSON(t, client, http.MethodPost, orderURL+"/confirm", map[string]any{}, clientTok)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("confirm status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, orderURL+"/broadcast", nil, adminHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("broadcast status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, orderURL+"/offers", map[string]any{
		"price":    1000,
		"deadline": "5",
	}, execTok)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("offer status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, orderURL+"/offers/exec-1/approve", map[string]any{
		"price": 1200,
	}, adminHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", res.StatusCode, string(data))
	}
	o = decodeOrder(t, data)
	if o.Status != domain.StatusAwaitingPayment || o.FinalPrice != 1200 {
		t.Fatalf("after approve: %+v", o)
	}

	res, data = doJSON(t, client, http.MethodPost, orderURL+"/payment/proof", map[string]any{
		"proof": map[string]any{"kind": "photo", "ref": "proof-1"},
	}, clientTok)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("proof status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, orderURL+"/payment/accept", nil, adminHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("pay accept status %d: %s", res.StatusCode, string(data))
	}
	o = decodeOrder(t, data)
	if o.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", o.Status)
	}

	// a second accept is an illegal transition and keeps the envelope shape
	res, data = doJSON(t, client, http.MethodPost, orderURL+"/payment/accept", nil, adminHeaders())
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code != "invalid_transition" {
		t.Fatalf("conflict envelope: %s", string(data))
	}
}

func TestClientSeesOnlyOwnOrders(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	tok1 := bearer(token(t, "client-1", domain.RoleClient))
	tok2 := bearer(token(t, "client-2", domain.RoleClient))

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/orders", map[string]any{
		"subject": "Secret", "work_type": "essay",
	}, tok1)
	o := decodeOrder(t, data)

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/orders/"+jsonNumber(o.ID), nil, tok2)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order visible: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/orders", nil, tok2)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", res.StatusCode)
	}
	var listed []domain.Order
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("client-2 sees %d foreign orders", len(listed))
	}
}

func TestRegistryRequiresAdmin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/executors", nil,
		bearer(token(t, "client-1", domain.RoleClient)))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/executors", nil, adminHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin list status %d: %s", res.StatusCode, string(data))
	}
	var executors []domain.Executor
	if err := json.Unmarshal(data, &executors); err != nil || len(executors) != 1 {
		t.Fatalf("executors: %v %s", err, string(data))
	}
}

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}
