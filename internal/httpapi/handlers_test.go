package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ubmqi/backend/internal/domain"
	"ubmqi/backend/internal/service"
	"ubmqi/backend/internal/store/memory"
)

// newTestAPI builds a full API with the seeded in-memory store, a real
// AuthManager and a real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(domain.LoginRequest{
		Email:    "admin@ubmqi.id",
		Password: "admin123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Role != domain.RoleAdmin || resp.AccessToken == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(domain.LoginRequest{
		Email:    "admin@ubmqi.id",
		Password: "definitely-wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	for _, path := range []string{"/api/v1/members", "/api/v1/products", "/api/v1/dashboard", "/api/v1/shu"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestListProductsWithToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.ProductListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(resp.Products) == 0 {
		t.Fatalf("expected seeded products")
	}
}

// createMember provisions a member through the API and returns it.
func createMember(t *testing.T, api *API, token string, csrf string, req domain.MemberCreateRequest) domain.Member {
	t.Helper()

	payload, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, httpReq)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.MemberResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	return resp.Member
}

func TestMemberLifecycleAndRoleGating(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	member := createMember(t, api, token, csrf, domain.MemberCreateRequest{
		Name:     "Siti",
		Email:    "siti@ubmqi.id",
		Password: "rahasia1",
		Role:     domain.RoleAnggota,
	})
	if member.ID == "" || member.Role != domain.RoleAnggota {
		t.Fatalf("unexpected member: %+v", member)
	}

	// The new member can log in and read their SHU status.
	payload, _ := json.Marshal(domain.LoginRequest{Email: "siti@ubmqi.id", Password: "rahasia1"})
	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(loginRec, loginReq)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("member login: expected 200, got %d (body: %s)", loginRec.Code, loginRec.Body.String())
	}
	var loginResp domain.LoginResponse
	if err := json.NewDecoder(loginRec.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode member login: %v", err)
	}

	shuReq := httptest.NewRequest(http.MethodGet, "/api/v1/shu", nil)
	shuReq.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	shuRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(shuRec, shuReq)
	if shuRec.Code != http.StatusOK {
		t.Fatalf("member shu: expected 200, got %d", shuRec.Code)
	}

	// Admin-only routes stay closed to the member role.
	reportReq := httptest.NewRequest(http.MethodGet, "/api/v1/reports/financial", nil)
	reportReq.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	reportRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(reportRec, reportReq)
	if reportRec.Code != http.StatusForbidden {
		t.Fatalf("member report: expected 403, got %d", reportRec.Code)
	}
}

func TestGetUnknownMemberReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/mbr-nope", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSaleAndReceivableFlow(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	member := createMember(t, api, token, csrf, domain.MemberCreateRequest{
		Name:     "Rudi",
		Email:    "rudi@ubmqi.id",
		Password: "rahasia1",
		Role:     domain.RoleAnggota,
	})

	salePayload, _ := json.Marshal(domain.SaleRequest{
		MemberID:      member.ID,
		PaymentStatus: domain.SaleStatusPiutang,
		Lines:         []domain.CartLine{{ProductID: "prd-001", Qty: 1}},
	})
	saleReq := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(salePayload))
	saleReq.Header.Set("Content-Type", "application/json")
	saleReq.Header.Set("Authorization", "Bearer "+token)
	saleReq.Header.Set("X-CSRF-Token", csrf)
	saleRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(saleRec, saleReq)
	if saleRec.Code != http.StatusCreated {
		t.Fatalf("record sale: expected 201, got %d (body: %s)", saleRec.Code, saleRec.Body.String())
	}
	var saleResp domain.SaleResponse
	if err := json.NewDecoder(saleRec.Body).Decode(&saleResp); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if saleResp.Allocated {
		t.Fatalf("receivable must not allocate on creation")
	}

	payPath := "/api/v1/sales/" + saleResp.Sale.ID + "/pay"
	payReq := httptest.NewRequest(http.MethodPost, payPath, nil)
	payReq.Header.Set("Authorization", "Bearer "+token)
	payReq.Header.Set("X-CSRF-Token", csrf)
	payRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(payRec, payReq)
	if payRec.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d (body: %s)", payRec.Code, payRec.Body.String())
	}

	// Paying twice is a conflict.
	againReq := httptest.NewRequest(http.MethodPost, payPath, nil)
	againReq.Header.Set("Authorization", "Bearer "+token)
	againReq.Header.Set("X-CSRF-Token", csrf)
	againRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(againRec, againReq)
	if againRec.Code != http.StatusConflict {
		t.Fatalf("second pay: expected 409, got %d", againRec.Code)
	}
}

func TestWithdrawOverdrawReturns422(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	member := createMember(t, api, token, csrf, domain.MemberCreateRequest{
		Name:     "Wati",
		Email:    "wati@ubmqi.id",
		Password: "rahasia1",
		Role:     domain.RoleAnggota,
	})

	payload, _ := json.Marshal(domain.WithdrawSHURequest{MemberID: member.ID, Amount: 5000})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shu/withdraw", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overdraw, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kas", bytes.NewReader([]byte(`{"type":"KREDIT","description":"x","amount":100,"bogus":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
