package dto

// ── 换班模块请求 ──

// CreateExchangeRequest 发起换班申请
//
// 仅给 FromShiftID：开放市场转让；给 ToUserID：定向转让；
// 给 ToShiftID：双向互换（未给 ToUserID 时以该班次当前持有人为对方）。
type CreateExchangeRequest struct {
	FromShiftID string  `json:"from_shift_id" binding:"required,uuid"`
	ToShiftID   *string `json:"to_shift_id"   binding:"omitempty,uuid"`
	ToUserID    *string `json:"to_user_id"    binding:"omitempty,uuid"`
	Message     *string `json:"message"       binding:"omitempty,max=500"`
}

// RespondExchangeRequest 对方（或开放市场候选人）答复
type RespondExchangeRequest struct {
	Accept  *bool   `json:"accept"  binding:"required"`
	Message *string `json:"message" binding:"omitempty,max=500"`
}

// ApproveExchangeRequest 主管审批
type ApproveExchangeRequest struct {
	Approve *bool   `json:"approve" binding:"required"`
	Notes   *string `json:"notes"   binding:"omitempty,max=500"`
}

// ExchangeListRequest 换班列表查询参数
// 站点参数兼容 site_id 与 siteId 两种写法
type ExchangeListRequest struct {
	PaginationRequest
	SiteID    string `form:"site_id" binding:"omitempty,uuid"`
	SiteIDAlt string `form:"siteId"  binding:"omitempty,uuid"`
}

// ResolveSite 合并两种写法到 SiteID；两者同时给出且不一致时返回 false
func (r *ExchangeListRequest) ResolveSite() bool {
	if r.SiteIDAlt == "" {
		return true
	}
	if r.SiteID == "" {
		r.SiteID = r.SiteIDAlt
		return true
	}
	return r.SiteID == r.SiteIDAlt
}

// ── 换班模块响应 ──

// ShiftBrief 班次简要信息
type ShiftBrief struct {
	ID       string `json:"id"`
	SiteID   string `json:"site_id"`
	MemberID string `json:"member_id"`
	Post     string `json:"post"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// ExchangeResponse 换班申请详情
type ExchangeResponse struct {
	ID               string      `json:"id"`
	SiteID           string      `json:"site_id"`
	FromUserID       string      `json:"from_user_id"`
	ToUserID         *string     `json:"to_user_id"`
	FromShiftID      string      `json:"from_shift_id"`
	ToShiftID        *string     `json:"to_shift_id"`
	Status           string      `json:"status"`
	RequestMessage   string      `json:"request_message,omitempty"`
	ResponseMessage  string      `json:"response_message,omitempty"`
	RequiresApproval bool        `json:"requires_approval"`
	ApprovedByUserID *string     `json:"approved_by_user_id,omitempty"`
	ApprovedAt       *string     `json:"approved_at,omitempty"`
	ApprovalNotes    string      `json:"approval_notes,omitempty"`
	RequestedAt      string      `json:"requested_at"`
	RespondedAt      *string     `json:"responded_at,omitempty"`
	AppliedAt        *string     `json:"applied_at,omitempty"`
	Version          int         `json:"version"`
	FromShift        *ShiftBrief `json:"from_shift,omitempty"`
	ToShift          *ShiftBrief `json:"to_shift,omitempty"`
}
