package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/api/handler"
	"fieldops/internal/dto"
	"fieldops/internal/service"
	"fieldops/pkg/jwt"
	"fieldops/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubExchangeService 所有操作返回同一个错误，记录是否被调用
type stubExchangeService struct {
	err    error
	called []string
}

func (s *stubExchangeService) Create(context.Context, string, *dto.CreateExchangeRequest) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Create")
	return nil, s.err
}
func (s *stubExchangeService) Respond(context.Context, string, string, *dto.RespondExchangeRequest) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Respond")
	return nil, s.err
}
func (s *stubExchangeService) Cancel(context.Context, string, string) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Cancel")
	return nil, s.err
}
func (s *stubExchangeService) Approve(context.Context, string, string, *dto.ApproveExchangeRequest) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Approve")
	return nil, s.err
}
func (s *stubExchangeService) Apply(context.Context, string, string) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Apply")
	return nil, s.err
}
func (s *stubExchangeService) Get(context.Context, string, string) (*dto.ExchangeResponse, error) {
	s.called = append(s.called, "Get")
	return nil, s.err
}
func (s *stubExchangeService) ListMine(context.Context, string, *dto.PaginationRequest) ([]dto.ExchangeResponse, int64, error) {
	s.called = append(s.called, "ListMine")
	return nil, 0, s.err
}
func (s *stubExchangeService) ListOpen(context.Context, string, *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	s.called = append(s.called, "ListOpen")
	return nil, 0, s.err
}
func (s *stubExchangeService) ListPendingApproval(context.Context, string, *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	s.called = append(s.called, "ListPendingApproval")
	return nil, 0, s.err
}

var _ service.ExchangeService = (*stubExchangeService)(nil)

func newTestEngine(t *testing.T, svc service.ExchangeService) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{}
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "router-test-secret-0123456789",
		Issuer:         "fieldops",
		AccessTokenTTL: 15 * time.Minute,
	})
	logger := zap.NewNop()
	h := &handler.Handler{
		Auth:     handler.NewAuthHandler(nil, logger),
		Exchange: handler.NewExchangeHandler(svc, logger),
	}
	return Setup(cfg, h, jwtMgr, nil, logger), jwtMgr
}

func serve(t *testing.T, r *gin.Engine, token, method, path, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应体不是 JSON: %v (%s)", err, w.Body.String())
	}
	return w.Code, resp
}

const routerExchangeID = "6f1c2a5e-8b1d-4c1e-9a7f-0d3b5e2c4a10"

// 队员对无需审批的申请调用 approve，应由业务层给出冲突而非被角色拦截
func TestSetup_ApproveByGuardReachesService(t *testing.T) {
	stub := &stubExchangeService{err: service.ErrExchangeApprovalNotRequired}
	r, jwtMgr := newTestEngine(t, stub)
	token, err := jwtMgr.GenerateAccessToken("a7e0c9d2-3f4b-4d6a-8c1e-2b5f7a9d0e31", "guard", "")
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}

	status, resp := serve(t, r, token, http.MethodPost,
		"/api/v1/shift-exchanges/"+routerExchangeID+"/approve", `{"approve":true}`)

	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if resp.Code != 14304 {
		t.Errorf("expected code 14304, got %d", resp.Code)
	}
	if len(stub.called) != 1 || stub.called[0] != "Approve" {
		t.Errorf("expected Approve to be called once, got %v", stub.called)
	}
}

// 待审批列表的权限以用户目录为准，Token 中的角色不做拦截
func TestSetup_PendingApprovalAuthorizedByService(t *testing.T) {
	stub := &stubExchangeService{err: service.ErrExchangeForbidden}
	r, jwtMgr := newTestEngine(t, stub)
	token, err := jwtMgr.GenerateAccessToken("a7e0c9d2-3f4b-4d6a-8c1e-2b5f7a9d0e31", "guard", "")
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}

	status, resp := serve(t, r, token, http.MethodGet, "/api/v1/shift-exchanges/pending-approval", "")

	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if resp.Code != 14201 {
		t.Errorf("expected code 14201, got %d", resp.Code)
	}
	if len(stub.called) != 1 || stub.called[0] != "ListPendingApproval" {
		t.Errorf("expected ListPendingApproval to be called once, got %v", stub.called)
	}
}

func TestSetup_RequiresToken(t *testing.T) {
	stub := &stubExchangeService{}
	r, _ := newTestEngine(t, stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/shift-exchanges/mine", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if len(stub.called) != 0 {
		t.Errorf("service must not be called without a token, got %v", stub.called)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
}
