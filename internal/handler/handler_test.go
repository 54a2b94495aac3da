package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/ledger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/middleware"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/signing"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/tracking"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/config"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestServer(t *testing.T, requireAuth bool) *echo.Echo {
	t.Helper()
	log := zap.NewNop()

	signer, err := signing.New(testKey)
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewMemoryStore()
	store := content.NewFallbackStore(nil, content.NewLocalStore(), log)
	notary := ledger.NewNotary(nil, ledger.NewLocalLedger(), log)
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test", ExpirationTime: time.Hour})

	h := &Handler{
		Products: service.NewProductService(repo, store, notary, signer, log),
		Verifier: verify.NewEngine(repo, notary, store, signer, log),
		Chain:    tracking.NewChain(repo, store, nil, log),
		Invoices: service.NewInvoiceService(repo, log),
		Funding:  service.NewFundingService(repo),
		Stats:    service.NewStatsService(repo, repo),
		Auth:     service.NewAuthService(repo, jwt, bcrypt.MinCost),
	}

	e := echo.New()
	e.Use(middleware.RequestIDMiddleware)
	var protect echo.MiddlewareFunc
	if requireAuth {
		protect = middleware.AuthMiddleware(jwt)
	}
	h.Routes(e, protect)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func createProduct(t *testing.T, e *echo.Echo, serial string, headers ...string) map[string]any {
	t.Helper()
	body := `{"name":"Widget","description":"A widget","serial_number":"` + serial + `","batch_id":"B-1","manufacturing_date":"2024-05-01"}`
	code, out := do(t, e, http.MethodPost, "/api/products", body, headers...)
	if code != http.StatusOK {
		t.Fatalf("create product: %d %v", code, out)
	}
	return out
}

func TestProductLifecycle(t *testing.T) {
	e := newTestServer(t, false)

	created := createProduct(t, e, "SN-1")
	if created["success"] != true {
		t.Fatalf("created = %v", created)
	}
	modes := created["modes"].(map[string]any)
	if modes["ledger"] != "degraded" || modes["content"] != "degraded" || modes["token"] != "signed" {
		t.Fatalf("modes = %v", modes)
	}

	code, list := do(t, e, http.MethodGet, "/api/products", "")
	if code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	products := list["products"].([]any)
	if len(products) != 1 || products[0].(map[string]any)["ipfs_cid"] != created["ipfs_cid"] {
		t.Fatalf("products = %v", products)
	}

	recordID := int64(created["nft_token_id"].(float64))
	token := created["verification_token"].(string)

	tests := []struct {
		name       string
		body       string
		wantStatus string
	}{
		{"genuine", `{"token_id":` + jsonInt(recordID) + `,"verification_token":"` + token + `"}`, "genuine"},
		{"string id", `{"token_id":"` + jsonInt(recordID) + `","verification_token":"` + token + `"}`, "genuine"},
		{"wrong token", `{"token_id":` + jsonInt(recordID) + `,"verification_token":"abc"}`, "invalid"},
		{"unknown id", `{"token_id":1000001,"verification_token":"` + token + `"}`, "invalid"},
		{"garbage id", `{"token_id":"qr-123","verification_token":"` + token + `"}`, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := do(t, e, http.MethodPost, "/api/verify", tt.body)
			if code != http.StatusOK {
				t.Fatalf("status code %d", code)
			}
			if out["status"] != tt.wantStatus {
				t.Fatalf("verdict = %v", out)
			}
			if (tt.wantStatus == "genuine") != (out["authentic"] == true) {
				t.Fatalf("authentic mismatch: %v", out)
			}
		})
	}

	if code, _ := do(t, e, http.MethodPost, "/api/verify", `{"token_id":`); code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", code)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestTrackingEvents(t *testing.T) {
	e := newTestServer(t, false)
	created := createProduct(t, e, "SN-2")
	productID := created["product_id"].(string)

	code, out := do(t, e, http.MethodPost, "/api/tracking_events",
		`{"product_id":"`+productID+`","action":"shipped","actor":"d1","role":"Distributor","location":"Hub"}`)
	if code != http.StatusOK {
		t.Fatalf("record: %d %v", code, out)
	}
	if out["message"] != "Tracking event 'shipped' recorded successfully" || out["new_cid"] == "" {
		t.Fatalf("record = %v", out)
	}

	code, out = do(t, e, http.MethodPost, "/api/tracking_events", `{"product_id":"missing","action":"shipped"}`)
	if code != http.StatusNotFound {
		t.Fatalf("unknown product: %d %v", code, out)
	}
	code, _ = do(t, e, http.MethodPost, "/api/tracking_events", `{"product_id":"`+productID+`"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("missing action: %d", code)
	}

	code, out = do(t, e, http.MethodGet, "/api/tracking_events/"+productID, "")
	if code != http.StatusOK {
		t.Fatalf("history: %d", code)
	}
	events := out["events"].([]any)
	if len(events) != 2 {
		t.Fatalf("events = %v", events)
	}
	first, second := events[0].(map[string]any), events[1].(map[string]any)
	if first["action"] != "manufactured" || second["previous_cid"] != created["ipfs_cid"] {
		t.Fatalf("events = %v", events)
	}

	code, out = do(t, e, http.MethodGet, "/api/tracking_events", "")
	if code != http.StatusOK || len(out["events"].([]any)) != 2 {
		t.Fatalf("recent: %d %v", code, out)
	}
	if code, _ = do(t, e, http.MethodGet, "/api/tracking_events?limit=0", ""); code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", code)
	}

	code, out = do(t, e, http.MethodGet, "/api/tracking_events/"+productID+"/forks", "")
	if code != http.StatusOK || len(out["forks"].([]any)) != 0 {
		t.Fatalf("forks: %d %v", code, out)
	}
	if code, _ = do(t, e, http.MethodGet, "/api/tracking_events/missing", ""); code != http.StatusNotFound {
		t.Fatalf("unknown history: %d", code)
	}
}

func TestInvoicesAndFunding(t *testing.T) {
	e := newTestServer(t, false)

	code, out := do(t, e, http.MethodPost, "/api/invoices_create",
		`{"amount":80,"buyer":"Acme","due_date":"not a date","description":"urgent","risk_score":1}`)
	if code != http.StatusOK {
		t.Fatalf("create invoice: %d %v", code, out)
	}
	if score := out["risk_score"].(float64); score == 1 || score < 0 || score > 100 {
		t.Fatalf("risk score = %v", score)
	}

	code, out = do(t, e, http.MethodGet, "/api/get_invoices", "")
	if code != http.StatusOK || len(out["invoices"].([]any)) != 1 {
		t.Fatalf("list invoices: %d %v", code, out)
	}

	code, out = do(t, e, http.MethodGet, "/api/invoices_funded", "")
	if code != http.StatusOK || out["available_balance"] != float64(10) || out["status"] != "idle" {
		t.Fatalf("zero state: %d %v", code, out)
	}

	code, _ = do(t, e, http.MethodPost, "/api/invoices_funded",
		`{"total_invested":12.5,"active_investments":2,"returns":1.5,"available_balance":3,"status":"active"}`)
	if code != http.StatusOK {
		t.Fatalf("save funding: %d", code)
	}
	code, out = do(t, e, http.MethodGet, "/api/invoices_funded", "")
	if code != http.StatusOK || out["total_invested"] != 12.5 || out["status"] != "active" {
		t.Fatalf("funding: %d %v", code, out)
	}
}

func TestStatsAndHealth(t *testing.T) {
	e := newTestServer(t, false)
	createProduct(t, e, "SN-3")

	for _, path := range []string{"/api/distributor_stats", "/api/retailer_stats", "/health", "/"} {
		if code, _ := do(t, e, http.MethodGet, path, ""); code != http.StatusOK {
			t.Errorf("%s: %d", path, code)
		}
	}
	_, out := do(t, e, http.MethodGet, "/api/distributor_stats", "")
	if _, ok := out["avg_transit_time"].(string); !ok {
		t.Fatalf("distributor stats = %v", out)
	}
}

func TestWriteRoutesRequireAuth(t *testing.T) {
	e := newTestServer(t, true)

	body := `{"name":"Widget","serial_number":"SN-4"}`
	if code, _ := do(t, e, http.MethodPost, "/api/products", body); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ := do(t, e, http.MethodPost, "/api/products", body, "Authorization", "Token abc"); code != http.StatusUnauthorized {
		t.Fatalf("malformed header: %d", code)
	}

	code, out := do(t, e, http.MethodPost, "/api/register", `{"name":"Ann","email":"ann@example.com","password":"pw"}`)
	if code != http.StatusOK {
		t.Fatalf("register: %d %v", code, out)
	}
	if code, _ := do(t, e, http.MethodPost, "/api/register", `{"name":"Ann","email":"ann@example.com","password":"pw"}`); code != http.StatusBadRequest {
		t.Fatalf("duplicate register: %d", code)
	}
	if code, _ := do(t, e, http.MethodPost, "/api/login", `{"email":"ann@example.com","password":"nope"}`); code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", code)
	}

	code, out = do(t, e, http.MethodPost, "/api/login", `{"email":"ann@example.com","password":"pw"}`)
	if code != http.StatusOK {
		t.Fatalf("login: %d %v", code, out)
	}
	bearer := "Bearer " + out["access_token"].(string)
	createProduct(t, e, "SN-4", "Authorization", bearer)

	// reads stay public
	if code, _ := do(t, e, http.MethodGet, "/api/products", ""); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
}
