package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/internal/dto"
	"fieldops/internal/service"
	pkgerrors "fieldops/pkg/errors"
	"fieldops/pkg/response"
)

// ExchangeHandler 换班模块 HTTP 处理器
type ExchangeHandler struct {
	exchangeSvc service.ExchangeService
	logger      *zap.Logger
}

// NewExchangeHandler 创建 ExchangeHandler
func NewExchangeHandler(exchangeSvc service.ExchangeService, logger *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchangeSvc: exchangeSvc, logger: logger}
}

// CreateExchange 发起换班申请
// POST /api/v1/shift-exchanges
func (h *ExchangeHandler) CreateExchange(c *gin.Context) {
	var req dto.CreateExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 我发起或作为对方参与的换班申请
// GET /api/v1/shift-exchanges/mine
func (h *ExchangeHandler) ListMine(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.exchangeSvc.ListMine(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListOpen 站点开放市场（待认领）
// GET /api/v1/shift-exchanges/open?site_id=（或 siteId=）
func (h *ExchangeHandler) ListOpen(c *gin.Context) {
	var req dto.ExchangeListRequest
	if !bindExchangeListQuery(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.exchangeSvc.ListOpen(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListPendingApproval 待主管审批
// GET /api/v1/shift-exchanges/pending-approval?site_id=（或 siteId=）
func (h *ExchangeHandler) ListPendingApproval(c *gin.Context) {
	var req dto.ExchangeListRequest
	if !bindExchangeListQuery(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.exchangeSvc.ListPendingApproval(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetExchange 换班申请详情
// GET /api/v1/shift-exchanges/:id
func (h *ExchangeHandler) GetExchange(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Get(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OK(c, result)
}

// RespondExchange 对方答复
// POST /api/v1/shift-exchanges/:id/respond
func (h *ExchangeHandler) RespondExchange(c *gin.Context) {
	var req dto.RespondExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Respond(c.Request.Context(), c.Param("id"), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OK(c, result)
}

// CancelExchange 发起人撤回
// POST /api/v1/shift-exchanges/:id/cancel
func (h *ExchangeHandler) CancelExchange(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Cancel(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OK(c, result)
}

// ApproveExchange 主管审批
// POST /api/v1/shift-exchanges/:id/approve
func (h *ExchangeHandler) ApproveExchange(c *gin.Context) {
	var req dto.ApproveExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Approve(c.Request.Context(), c.Param("id"), callerID, &req)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OK(c, result)
}

// ApplyExchange 换班落地（幂等）
// POST /api/v1/shift-exchanges/:id/apply
func (h *ExchangeHandler) ApplyExchange(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.exchangeSvc.Apply(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleExchangeError(c, err)
		return
	}

	response.OK(c, result)
}

func bindExchangeListQuery(c *gin.Context, req *dto.ExchangeListRequest) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	if !req.ResolveSite() {
		response.BadRequest(c, 10001, "site_id 与 siteId 不一致")
		return false
	}
	return true
}

func (h *ExchangeHandler) handleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

// handleExchangeError 按错误分类映射 HTTP 状态码，业务码透传
func (h *ExchangeHandler) handleExchangeError(c *gin.Context, err error) {
	appErr, ok := pkgerrors.As(err)
	if !ok {
		h.logger.Error("换班请求处理失败",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		response.InternalError(c)
		return
	}

	switch appErr.Kind {
	case pkgerrors.KindValidation:
		response.BadRequest(c, appErr.Code, appErr.Message)
	case pkgerrors.KindAuthorization:
		response.Forbidden(c, appErr.Code, appErr.Message)
	case pkgerrors.KindNotFound:
		response.NotFound(c, appErr.Code, appErr.Message)
	case pkgerrors.KindConflict:
		response.Conflict(c, appErr.Code, appErr.Message)
	default:
		response.InternalError(c)
	}
}
