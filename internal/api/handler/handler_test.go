package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/internal/dto"
	"fieldops/internal/service"
	"fieldops/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ExchangeService ──

type mockExchangeService struct {
	result    *dto.ExchangeResponse
	list      []dto.ExchangeResponse
	total     int64
	err       error
	lastID    string
	lastActor string
	lastOpen  *dto.ExchangeListRequest
	lastResp  *dto.RespondExchangeRequest
}

func (m *mockExchangeService) Create(_ context.Context, actorID string, _ *dto.CreateExchangeRequest) (*dto.ExchangeResponse, error) {
	m.lastActor = actorID
	return m.result, m.err
}
func (m *mockExchangeService) Respond(_ context.Context, id, actorID string, req *dto.RespondExchangeRequest) (*dto.ExchangeResponse, error) {
	m.lastID, m.lastActor, m.lastResp = id, actorID, req
	return m.result, m.err
}
func (m *mockExchangeService) Cancel(_ context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	m.lastID, m.lastActor = id, actorID
	return m.result, m.err
}
func (m *mockExchangeService) Approve(_ context.Context, id, actorID string, _ *dto.ApproveExchangeRequest) (*dto.ExchangeResponse, error) {
	m.lastID, m.lastActor = id, actorID
	return m.result, m.err
}
func (m *mockExchangeService) Apply(_ context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	m.lastID, m.lastActor = id, actorID
	return m.result, m.err
}
func (m *mockExchangeService) Get(_ context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	m.lastID, m.lastActor = id, actorID
	return m.result, m.err
}
func (m *mockExchangeService) ListMine(_ context.Context, actorID string, _ *dto.PaginationRequest) ([]dto.ExchangeResponse, int64, error) {
	m.lastActor = actorID
	return m.list, m.total, m.err
}
func (m *mockExchangeService) ListOpen(_ context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	m.lastActor, m.lastOpen = actorID, req
	return m.list, m.total, m.err
}
func (m *mockExchangeService) ListPendingApproval(_ context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	m.lastActor, m.lastOpen = actorID, req
	return m.list, m.total, m.err
}

// ── Mock TokenRevoker ──

type mockRevoker struct {
	jti string
	ttl time.Duration
	err error
}

func (m *mockRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.jti, m.ttl = jti, ttl
	return m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	testUserID     = "8b0f7c1e-3d52-4a4e-9a57-2f0d1c6b9e01"
	testShiftID    = "2c9b3f44-1a7e-4b8c-8f0a-6d5e4c3b2a10"
	testExchangeID = "5e6f7a8b-9c0d-4e1f-a2b3-c4d5e6f7a8b9"
)

func setAuth(c *gin.Context) {
	c.Set("user_id", testUserID)
	c.Set("role", "guard")
	c.Set("site_id", "site-a")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

// newExchangeRouter 注册与生产一致的路径，跳过 JWT 中间件直接注入身份
func newExchangeRouter(mock *mockExchangeService) *gin.Engine {
	h := NewExchangeHandler(mock, zap.NewNop())
	r := gin.New()
	r.Use(setAuth)
	g := r.Group("/shift-exchanges")
	g.POST("", h.CreateExchange)
	g.GET("/mine", h.ListMine)
	g.GET("/open", h.ListOpen)
	g.GET("/pending-approval", h.ListPendingApproval)
	g.GET("/:id", h.GetExchange)
	g.POST("/:id/respond", h.RespondExchange)
	g.POST("/:id/cancel", h.CancelExchange)
	g.POST("/:id/approve", h.ApproveExchange)
	g.POST("/:id/apply", h.ApplyExchange)
	return r
}

func doRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// ExchangeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExchangeHandler_Create_Success(t *testing.T) {
	mock := &mockExchangeService{result: &dto.ExchangeResponse{ID: testExchangeID, Status: "PENDING"}}
	r := newExchangeRouter(mock)

	w := doRequest(r, "POST", "/shift-exchanges", jsonBody(map[string]string{"from_shift_id": testShiftID}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.lastActor != testUserID {
		t.Errorf("expected actor %s, got %s", testUserID, mock.lastActor)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["status"] != "PENDING" {
		t.Errorf("expected status PENDING, got %v", data["status"])
	}
}

func TestExchangeHandler_Create_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"非 JSON", "not-json"},
		{"缺少换出班次", `{}`},
		{"班次 ID 非 UUID", `{"from_shift_id":"abc"}`},
		{"接班人 ID 非 UUID", fmt.Sprintf(`{"from_shift_id":%q,"to_user_id":"u2"}`, testShiftID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockExchangeService{}
			r := newExchangeRouter(mock)

			w := doRequest(r, "POST", "/shift-exchanges", strings.NewReader(tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != 10001 {
				t.Errorf("expected code 10001, got %d", resp.Code)
			}
			if mock.lastActor != "" {
				t.Error("service should not be called on invalid input")
			}
		})
	}
}

func TestExchangeHandler_Respond_RequiresAcceptField(t *testing.T) {
	mock := &mockExchangeService{}
	r := newExchangeRouter(mock)

	w := doRequest(r, "POST", "/shift-exchanges/"+testExchangeID+"/respond", jsonBody(map[string]string{"message": "好"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	// accept=false 是合法的显式答复
	mock.result = &dto.ExchangeResponse{ID: testExchangeID, Status: "REJECTED"}
	w = doRequest(r, "POST", "/shift-exchanges/"+testExchangeID+"/respond", jsonBody(map[string]bool{"accept": false}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastID != testExchangeID {
		t.Errorf("expected id %s, got %s", testExchangeID, mock.lastID)
	}
	if mock.lastResp == nil || mock.lastResp.Accept == nil || *mock.lastResp.Accept {
		t.Error("expected accept=false to reach the service")
	}
}

func TestExchangeHandler_Actions_PassIDAndActor(t *testing.T) {
	paths := []struct {
		method string
		path   string
		body   io.Reader
	}{
		{"GET", "/shift-exchanges/" + testExchangeID, nil},
		{"POST", "/shift-exchanges/" + testExchangeID + "/cancel", nil},
		{"POST", "/shift-exchanges/" + testExchangeID + "/approve", jsonBody(map[string]bool{"approve": true})},
		{"POST", "/shift-exchanges/" + testExchangeID + "/apply", nil},
	}

	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			mock := &mockExchangeService{result: &dto.ExchangeResponse{ID: testExchangeID}}
			r := newExchangeRouter(mock)

			w := doRequest(r, p.method, p.path, p.body)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			if mock.lastID != testExchangeID || mock.lastActor != testUserID {
				t.Errorf("unexpected id/actor: %s/%s", mock.lastID, mock.lastActor)
			}
		})
	}
}

func TestExchangeHandler_ListOpen_Pagination(t *testing.T) {
	mock := &mockExchangeService{
		list:  []dto.ExchangeResponse{{ID: "a"}, {ID: "b"}},
		total: 45,
	}
	r := newExchangeRouter(mock)

	siteID := "0d7e1f2a-3b4c-4d5e-8f6a-7b8c9d0e1f2a"
	w := doRequest(r, "GET", "/shift-exchanges/open?page=2&page_size=20&site_id="+siteID, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastOpen == nil || mock.lastOpen.SiteID != siteID {
		t.Errorf("expected site_id %s to be bound", siteID)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Page != 2 || body.Data.Pagination.Total != 45 || body.Data.Pagination.TotalPages != 3 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
}

func TestExchangeHandler_ListOpen_InvalidSite(t *testing.T) {
	r := newExchangeRouter(&mockExchangeService{})

	w := doRequest(r, "GET", "/shift-exchanges/open?site_id=not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExchangeHandler_ListSiteQueryAliases(t *testing.T) {
	siteID := "0d7e1f2a-3b4c-4d5e-8f6a-7b8c9d0e1f2a"
	otherSite := "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantSite   string
	}{
		{"OpenCamelCase", "/shift-exchanges/open?siteId=" + siteID, 200, siteID},
		{"PendingCamelCase", "/shift-exchanges/pending-approval?siteId=" + siteID, 200, siteID},
		{"BothAgree", "/shift-exchanges/open?site_id=" + siteID + "&siteId=" + siteID, 200, siteID},
		{"BothDisagree", "/shift-exchanges/open?site_id=" + siteID + "&siteId=" + otherSite, 400, ""},
		{"CamelCaseInvalid", "/shift-exchanges/pending-approval?siteId=not-a-uuid", 400, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockExchangeService{}
			w := doRequest(newExchangeRouter(mock), "GET", tt.path, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				if resp := parseResponse(w); resp.Code != 10001 {
					t.Errorf("expected code 10001, got %d", resp.Code)
				}
				if mock.lastOpen != nil {
					t.Error("service must not be called on invalid query")
				}
				return
			}
			if mock.lastOpen == nil || mock.lastOpen.SiteID != tt.wantSite {
				t.Errorf("expected site %s to reach the service, got %+v", tt.wantSite, mock.lastOpen)
			}
		})
	}
}

func TestExchangeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"InvalidInput", service.ErrExchangeInvalidInput, 400, 14001},
		{"SameShift", service.ErrExchangeSameShift, 400, 14003},
		{"NotFound", service.ErrExchangeNotFound, 404, 14101},
		{"Forbidden", service.ErrExchangeForbidden, 403, 14201},
		{"SelfApproval", service.ErrExchangeSelfApproval, 403, 14204},
		{"InvalidTransition", service.ErrExchangeInvalidTransition, 409, 14301},
		{"AlreadyResponded", service.ErrExchangeAlreadyResponded, 409, 14302},
		{"ScheduleChanged", service.ErrExchangeScheduleChanged, 409, 14303},
		{"ShiftBusy", service.ErrExchangeShiftBusy, 409, 14305},
		{"Wrapped", fmt.Errorf("apply: %w", service.ErrExchangeVersionConflict), 409, 14306},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockExchangeService{err: tt.err}
			r := newExchangeRouter(mock)

			w := doRequest(r, "POST", "/shift-exchanges/"+testExchangeID+"/apply", nil)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestExchangeHandler_ConflictMessages(t *testing.T) {
	// 客户端依据 message 区分“已被他人答复”与“排班已变化”
	for err, want := range map[error]string{
		service.ErrExchangeAlreadyResponded: "already responded",
		service.ErrExchangeScheduleChanged:  "schedule changed",
	} {
		r := newExchangeRouter(&mockExchangeService{err: err})
		w := doRequest(r, "POST", "/shift-exchanges/"+testExchangeID+"/apply", nil)
		if resp := parseResponse(w); resp.Message != want {
			t.Errorf("expected message %q, got %q", want, resp.Message)
		}
	}
}

func TestExchangeHandler_Unauthenticated(t *testing.T) {
	h := NewExchangeHandler(&mockExchangeService{}, zap.NewNop())
	r := gin.New()
	r.GET("/shift-exchanges/mine", h.ListMine)

	w := doRequest(r, "GET", "/shift-exchanges/mine", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Logout_BlacklistsToken(t *testing.T) {
	revoker := &mockRevoker{}
	h := NewAuthHandler(revoker, zap.NewNop())

	r := gin.New()
	r.POST("/auth/logout", setAuth, h.Logout)
	w := doRequest(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if revoker.jti != "test-jti" {
		t.Errorf("expected jti test-jti, got %q", revoker.jti)
	}
	if revoker.ttl <= 0 || revoker.ttl > 15*time.Minute {
		t.Errorf("unexpected blacklist ttl %v", revoker.ttl)
	}
}

func TestAuthHandler_Logout_RevokerFailure(t *testing.T) {
	h := NewAuthHandler(&mockRevoker{err: errors.New("redis down")}, zap.NewNop())

	r := gin.New()
	r.POST("/auth/logout", setAuth, h.Logout)
	w := doRequest(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_WithoutRedis(t *testing.T) {
	h := NewAuthHandler(nil, zap.NewNop())

	r := gin.New()
	r.POST("/auth/logout", setAuth, h.Logout)
	w := doRequest(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
