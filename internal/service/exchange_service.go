package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/config"
	"fieldops/internal/dto"
	"fieldops/internal/model"
	"fieldops/internal/repository"
	pkgerrors "fieldops/pkg/errors"
)

// ── 换班模块业务错误 ──

var (
	ErrExchangeInvalidInput         = pkgerrors.NewValidation(14001, "请求参数非法")
	ErrExchangeShiftNotFound        = pkgerrors.NewValidation(14002, "班次不存在")
	ErrExchangeSameShift            = pkgerrors.NewValidation(14003, "换出班次与换入班次不能相同")
	ErrExchangeShiftSiteMismatch    = pkgerrors.NewValidation(14004, "两个班次不属于同一站点")
	ErrExchangeTargetHolderMismatch = pkgerrors.NewValidation(14005, "指定接班人不是换入班次的当前持有人")
	ErrExchangeTargetUserInvalid    = pkgerrors.NewValidation(14006, "接班人不存在、已停用或不在同一站点")
	ErrExchangeSiteRequired         = pkgerrors.NewValidation(14007, "请指定站点")

	ErrExchangeNotFound = pkgerrors.NewNotFound(14101, "换班申请不存在")

	ErrExchangeForbidden      = pkgerrors.NewAuthorization(14201, "无权执行该换班操作")
	ErrExchangeNotShiftHolder = pkgerrors.NewAuthorization(14202, "只能为本人当前持有的班次发起换班")
	ErrExchangeActorInactive  = pkgerrors.NewAuthorization(14203, "操作人不存在或已停用")
	ErrExchangeSelfApproval   = pkgerrors.NewAuthorization(14204, "不能审批本人参与的换班申请")

	ErrExchangeInvalidTransition   = pkgerrors.NewConflict(14301, "当前状态不允许该操作")
	ErrExchangeAlreadyResponded    = pkgerrors.NewConflict(14302, "already responded")
	ErrExchangeScheduleChanged     = pkgerrors.NewConflict(14303, "schedule changed")
	ErrExchangeApprovalNotRequired = pkgerrors.NewConflict(14304, "该申请无需主管审批")
	ErrExchangeShiftBusy           = pkgerrors.NewConflict(14305, "该班次已有进行中的换班申请")
	ErrExchangeVersionConflict     = pkgerrors.NewConflict(14306, "换班申请已被其他操作修改，请刷新后重试")
)

// notifyTimeout 提交后通知的最长耗时，与请求上下文的取消解耦
const notifyTimeout = 5 * time.Second

// ShiftScheduleGateway 换班引擎对排班表的最小依赖：读持有人、比较并交换持有人。
// repository.ShiftRepository 满足该接口。
type ShiftScheduleGateway interface {
	GetHolder(ctx context.Context, shiftID string) (string, error)
	Reassign(ctx context.Context, shiftID, expectedHolder, newHolder string) error
}

// ExchangeService 换班与审批工作流接口
type ExchangeService interface {
	// 发起换班（开放市场 / 定向转让 / 双向互换）
	Create(ctx context.Context, actorID string, req *dto.CreateExchangeRequest) (*dto.ExchangeResponse, error)
	// 对方答复（开放市场下第一个接受者成为接班人）
	Respond(ctx context.Context, id, actorID string, req *dto.RespondExchangeRequest) (*dto.ExchangeResponse, error)
	// 发起人撤回（仅 PENDING）
	Cancel(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error)
	// 主管审批
	Approve(ctx context.Context, id, actorID string, req *dto.ApproveExchangeRequest) (*dto.ExchangeResponse, error)
	// 落地到排班表（幂等）
	Apply(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error)
	// 查询
	Get(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error)
	ListMine(ctx context.Context, actorID string, req *dto.PaginationRequest) ([]dto.ExchangeResponse, int64, error)
	ListOpen(ctx context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error)
	ListPendingApproval(ctx context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error)
}

type exchangeService struct {
	cfg      *config.ExchangeConfig
	repo     *repository.Repository
	notifier ExchangeNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewExchangeService 创建 ExchangeService 实例；notifier 可为 nil
func NewExchangeService(cfg *config.ExchangeConfig, repo *repository.Repository, notifier ExchangeNotifier, logger *zap.Logger) ExchangeService {
	return &exchangeService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *exchangeService) Create(ctx context.Context, actorID string, req *dto.CreateExchangeRequest) (*dto.ExchangeResponse, error) {
	if !isUUID(req.FromShiftID) || (req.ToShiftID != nil && !isUUID(*req.ToShiftID)) ||
		(req.ToUserID != nil && !isUUID(*req.ToUserID)) {
		return nil, ErrExchangeInvalidInput
	}
	if req.ToShiftID != nil && *req.ToShiftID == req.FromShiftID {
		return nil, ErrExchangeSameShift
	}

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	// 1. 换出班次归属校验（仅在创建时校验一次）
	fromShift, err := s.repo.Shift.GetByID(ctx, req.FromShiftID)
	if err != nil {
		return nil, s.mapShiftErr(err, "查询换出班次失败")
	}
	if err := authorizeCreate(actor, fromShift.MemberID); err != nil {
		return nil, err
	}

	// 2. 同一班次只允许一条进行中的申请（并发时由部分唯一索引兜底）
	if _, err := s.repo.ExchangeRequest.FindActiveByShift(ctx, fromShift.ShiftID); err == nil {
		return nil, ErrExchangeShiftBusy
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进行中换班申请失败", zap.Error(err))
		return nil, err
	}

	// 3. 解析对方：双向互换时以换入班次当前持有人为准
	toUserID := req.ToUserID
	var toShift *model.Shift
	if req.ToShiftID != nil {
		toShift, err = s.repo.Shift.GetByID(ctx, *req.ToShiftID)
		if err != nil {
			return nil, s.mapShiftErr(err, "查询换入班次失败")
		}
		if toShift.SiteID != fromShift.SiteID {
			return nil, ErrExchangeShiftSiteMismatch
		}
		if toUserID != nil && *toUserID != toShift.MemberID {
			return nil, ErrExchangeTargetHolderMismatch
		}
		holder := toShift.MemberID
		toUserID = &holder
	}
	if toUserID != nil {
		if err := s.validateTargetUser(ctx, *toUserID, actor.UserID, fromShift.SiteID); err != nil {
			return nil, err
		}
	}

	// 4. 审批策略在创建时固化
	site, err := s.repo.Site.GetByID(ctx, fromShift.SiteID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询站点失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	exchange := &model.ExchangeRequest{
		SiteID:           fromShift.SiteID,
		FromUserID:       actor.UserID,
		ToUserID:         toUserID,
		FromShiftID:      fromShift.ShiftID,
		ToShiftID:        req.ToShiftID,
		Status:           model.ExchangeStatusPending,
		RequestMessage:   derefString(req.Message),
		RequiresApproval: site.ExchangeApprovalPolicy(s.cfg.DefaultRequiresApproval),
		RequestedAt:      now,
		UpdatedBy:        &actor.UserID,
	}
	if err := s.repo.ExchangeRequest.Create(ctx, exchange); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrExchangeShiftBusy
		}
		s.logger.Error("创建换班申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("换班申请已创建",
		zap.String("exchange_request_id", exchange.ExchangeRequestID),
		zap.String("from_shift_id", exchange.FromShiftID),
		zap.Bool("open_market", exchange.IsOpenMarket()),
		zap.Bool("requires_approval", exchange.RequiresApproval),
	)
	s.notify(ctx, exchange, ExchangeEventCreated, actor.UserID)

	exchange.FromShift = fromShift
	exchange.ToShift = toShift
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

// validateTargetUser 接班人必须是同站点在职人员且不是发起人本人
func (s *exchangeService) validateTargetUser(ctx context.Context, userID, actorID, siteID string) error {
	if userID == actorID {
		return ErrExchangeTargetUserInvalid
	}
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExchangeTargetUserInvalid
		}
		s.logger.Error("查询接班人失败", zap.Error(err))
		return err
	}
	if !user.IsActive || user.CompanyWide() || *user.SiteID != siteID {
		return ErrExchangeTargetUserInvalid
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Respond / Cancel / Approve：乐观锁迁移
// ════════════════════════════════════════════════════════════

func (s *exchangeService) Respond(ctx context.Context, id, actorID string, req *dto.RespondExchangeRequest) (*dto.ExchangeResponse, error) {
	if req.Accept == nil {
		return nil, ErrExchangeInvalidInput
	}
	action := ExchangeActionDecline
	if *req.Accept {
		action = ExchangeActionAccept
	}

	exchange, err := s.transition(ctx, id, actorID, action, func(r *model.ExchangeRequest, actor *model.User, now time.Time) {
		// 开放市场：第一个接受者永久绑定为接班人
		if action == ExchangeActionAccept && r.IsOpenMarket() {
			r.ToUserID = &actor.UserID
		}
		r.ResponseMessage = derefString(req.Message)
		r.RespondedAt = &now
	})
	if err != nil {
		return nil, err
	}
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

func (s *exchangeService) Cancel(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	exchange, err := s.transition(ctx, id, actorID, ExchangeActionCancel, nil)
	if err != nil {
		return nil, err
	}
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

func (s *exchangeService) Approve(ctx context.Context, id, actorID string, req *dto.ApproveExchangeRequest) (*dto.ExchangeResponse, error) {
	if req.Approve == nil {
		return nil, ErrExchangeInvalidInput
	}
	action := ExchangeActionDeny
	if *req.Approve {
		action = ExchangeActionApprove
	}

	exchange, err := s.transition(ctx, id, actorID, action, func(r *model.ExchangeRequest, actor *model.User, now time.Time) {
		r.ApprovedByUserID = &actor.UserID
		r.ApprovedAt = &now
		r.ApprovalNotes = derefString(req.Notes)
	})
	if err != nil {
		return nil, err
	}
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

// transition 读取 → 状态校验 → 权限 → 状态机 → 版本校验写入 → 提交后通知。
// 状态非法优先于权限判定，已被他人抢先处理的请求一律返回冲突。
func (s *exchangeService) transition(
	ctx context.Context,
	id, actorID string,
	action ExchangeAction,
	mutate func(r *model.ExchangeRequest, actor *model.User, now time.Time),
) (*model.ExchangeRequest, error) {
	if !isUUID(id) {
		return nil, ErrExchangeNotFound
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	exchange, err := s.repo.ExchangeRequest.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapExchangeErr(err, "查询换班申请失败")
	}

	isApproval := action == ExchangeActionApprove || action == ExchangeActionDeny
	if isApproval && !exchange.RequiresApproval {
		return nil, ErrExchangeApprovalNotRequired
	}
	if !transitionDefined(exchange.Status, action) {
		return nil, ErrExchangeInvalidTransition
	}

	relation, err := authorizeExchange(action, exchange, actor)
	if err != nil {
		return nil, err
	}
	next, err := nextExchangeStatus(exchange.Status, action, relation, exchange.RequiresApproval)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if mutate != nil {
		mutate(exchange, actor, now)
	}
	exchange.Status = next
	exchange.UpdatedBy = &actor.UserID

	if err := s.repo.ExchangeRequest.Update(ctx, exchange); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			if action == ExchangeActionAccept || action == ExchangeActionDecline {
				return nil, ErrExchangeAlreadyResponded
			}
			return nil, ErrExchangeVersionConflict
		}
		s.logger.Error("更新换班申请失败",
			zap.String("exchange_request_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("换班申请状态变更",
		zap.String("exchange_request_id", id),
		zap.String("action", string(action)),
		zap.String("status", string(next)),
		zap.String("actor_id", actor.UserID),
	)
	s.notify(ctx, exchange, exchangeEventFor(action, next), actor.UserID)
	return exchange, nil
}

// ════════════════════════════════════════════════════════════
// Apply：单事务，行锁重读 → 排班 CAS → 审计日志 → 版本校验写入
// ════════════════════════════════════════════════════════════

func (s *exchangeService) Apply(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	if !isUUID(id) {
		return nil, ErrExchangeNotFound
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var applied bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		exchange, err := tx.ExchangeRequest.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// 已落地：重复提交按幂等成功处理，不再触碰排班表
		if exchange.Status == model.ExchangeStatusApplied || exchange.AppliedAt != nil {
			_, err := authorizeExchange(ExchangeActionApply, exchange, actor)
			return err
		}
		if !transitionDefined(exchange.Status, ExchangeActionApply) {
			return ErrExchangeInvalidTransition
		}
		relation, err := authorizeExchange(ExchangeActionApply, exchange, actor)
		if err != nil {
			return err
		}
		next, err := nextExchangeStatus(exchange.Status, ExchangeActionApply, relation, exchange.RequiresApproval)
		if err != nil {
			return err
		}

		var gateway ShiftScheduleGateway = tx.Shift
		toUserID := *exchange.ToUserID
		if err := gateway.Reassign(ctx, exchange.FromShiftID, exchange.FromUserID, toUserID); err != nil {
			return err
		}
		if exchange.IsTwoWaySwap() {
			if err := gateway.Reassign(ctx, *exchange.ToShiftID, toUserID, exchange.FromUserID); err != nil {
				return err
			}
		}

		if err := writeExchangeChangeLogs(ctx, tx, exchange, actor.UserID); err != nil {
			return err
		}

		now := s.now()
		exchange.Status = next
		exchange.AppliedAt = &now
		exchange.UpdatedBy = &actor.UserID
		if err := tx.ExchangeRequest.Update(ctx, exchange); err != nil {
			return err
		}
		applied = true
		return nil
	})

	if err != nil {
		// 并发 apply 中落败的一方：若对方已落地则返回同一结果
		if errors.Is(err, pkgerrors.ErrOptimisticLock) || errors.Is(err, pkgerrors.ErrShiftHolderChanged) {
			current, getErr := s.repo.ExchangeRequest.GetByID(ctx, id)
			if getErr == nil && current.Status == model.ExchangeStatusApplied && current.IsParty(actor.UserID) {
				resp := toExchangeResponse(current)
				return &resp, nil
			}
			if errors.Is(err, pkgerrors.ErrShiftHolderChanged) {
				s.logger.Warn("排班已被外部修改，换班申请保持 ACCEPTED",
					zap.String("exchange_request_id", id),
				)
				return nil, ErrExchangeScheduleChanged
			}
			return nil, ErrExchangeVersionConflict
		}
		return nil, s.mapExchangeErr(err, "换班落地失败")
	}

	exchange, err := s.repo.ExchangeRequest.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapExchangeErr(err, "查询换班申请失败")
	}
	if applied {
		s.logger.Info("换班已落地",
			zap.String("exchange_request_id", id),
			zap.String("actor_id", actor.UserID),
			zap.Bool("two_way", exchange.IsTwoWaySwap()),
		)
		s.notify(ctx, exchange, ExchangeEventApplied, actor.UserID)
	}
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

// writeExchangeChangeLogs 为每个被改派的班次写一条审计日志
func writeExchangeChangeLogs(ctx context.Context, tx *repository.Repository, exchange *model.ExchangeRequest, operatorID string) error {
	toUserID := *exchange.ToUserID
	logs := []model.ShiftChangeLog{{
		ShiftID:           exchange.FromShiftID,
		OriginalMemberID:  exchange.FromUserID,
		NewMemberID:       toUserID,
		ChangeType:        model.ShiftChangeExchange,
		ExchangeRequestID: &exchange.ExchangeRequestID,
		OperatorID:        operatorID,
	}}
	if exchange.IsTwoWaySwap() {
		logs = append(logs, model.ShiftChangeLog{
			ShiftID:           *exchange.ToShiftID,
			OriginalMemberID:  toUserID,
			NewMemberID:       exchange.FromUserID,
			ChangeType:        model.ShiftChangeExchange,
			ExchangeRequestID: &exchange.ExchangeRequestID,
			OperatorID:        operatorID,
		})
	}
	for i := range logs {
		if err := tx.ShiftChangeLog.Create(ctx, &logs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *exchangeService) Get(ctx context.Context, id, actorID string) (*dto.ExchangeResponse, error) {
	if !isUUID(id) {
		return nil, ErrExchangeNotFound
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	exchange, err := s.repo.ExchangeRequest.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapExchangeErr(err, "查询换班申请失败")
	}
	if !canViewExchange(exchange, actor) {
		return nil, ErrExchangeForbidden
	}
	resp := toExchangeResponse(exchange)
	return &resp, nil
}

func (s *exchangeService) ListMine(ctx context.Context, actorID string, req *dto.PaginationRequest) ([]dto.ExchangeResponse, int64, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.ExchangeListFilter{ParticipantID: actor.UserID}, req)
}

func (s *exchangeService) ListOpen(ctx context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}

	siteID := req.SiteID
	if siteID == "" {
		if actor.CompanyWide() {
			return nil, 0, ErrExchangeSiteRequired
		}
		siteID = *actor.SiteID
	}
	if !actor.InSite(siteID) {
		return nil, 0, ErrExchangeForbidden
	}

	filter := repository.ExchangeListFilter{
		SiteID:   siteID,
		Statuses: []model.ExchangeStatus{model.ExchangeStatusPending},
		OpenOnly: true,
	}
	return s.list(ctx, filter, &req.PaginationRequest)
}

func (s *exchangeService) ListPendingApproval(ctx context.Context, actorID string, req *dto.ExchangeListRequest) ([]dto.ExchangeResponse, int64, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !actor.Role.IsSupervisory() {
		return nil, 0, ErrExchangeForbidden
	}

	// 全公司范围主管不指定站点时查看全部站点
	siteID := req.SiteID
	if siteID == "" && !actor.CompanyWide() {
		siteID = *actor.SiteID
	}
	if siteID != "" && !actor.InSite(siteID) {
		return nil, 0, ErrExchangeForbidden
	}

	filter := repository.ExchangeListFilter{
		SiteID:   siteID,
		Statuses: []model.ExchangeStatus{model.ExchangeStatusPendingApproval},
	}
	return s.list(ctx, filter, &req.PaginationRequest)
}

func (s *exchangeService) list(ctx context.Context, filter repository.ExchangeListFilter, page *dto.PaginationRequest) ([]dto.ExchangeResponse, int64, error) {
	offset, limit := page.Window()
	rows, total, err := s.repo.ExchangeRequest.List(ctx, filter, offset, limit)
	if err != nil {
		s.logger.Error("查询换班申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.ExchangeResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toExchangeResponse(&rows[i]))
	}
	return list, total, nil
}

// ════════════════════════════════════════════════════════════
// 内部工具
// ════════════════════════════════════════════════════════════

// loadActor 以用户目录为准解析操作人（角色与站点不信任令牌中的副本）
func (s *exchangeService) loadActor(ctx context.Context, actorID string) (*model.User, error) {
	if !isUUID(actorID) {
		return nil, ErrExchangeActorInactive
	}
	actor, err := s.repo.User.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExchangeActorInactive
		}
		s.logger.Error("查询操作人失败", zap.Error(err))
		return nil, err
	}
	if !actor.IsActive {
		return nil, ErrExchangeActorInactive
	}
	return actor, nil
}

func (s *exchangeService) notify(ctx context.Context, exchange *model.ExchangeRequest, eventType ExchangeEventType, actorID string) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	event := ExchangeEvent{Type: eventType, ActorID: actorID, OccurredAt: s.now()}
	if err := s.notifier.NotifyExchange(nctx, exchange, event); err != nil {
		s.logger.Warn("换班通知发送失败",
			zap.String("exchange_request_id", exchange.ExchangeRequestID),
			zap.String("event", string(eventType)),
			zap.Error(err),
		)
	}
}

func (s *exchangeService) mapExchangeErr(err error, msg string) error {
	if _, ok := pkgerrors.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrExchangeNotFound
	}
	s.logger.Error(msg, zap.Error(err))
	return err
}

func (s *exchangeService) mapShiftErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrExchangeShiftNotFound
	}
	s.logger.Error(msg, zap.Error(err))
	return err
}

func toExchangeResponse(r *model.ExchangeRequest) dto.ExchangeResponse {
	resp := dto.ExchangeResponse{
		ID:               r.ExchangeRequestID,
		SiteID:           r.SiteID,
		FromUserID:       r.FromUserID,
		ToUserID:         r.ToUserID,
		FromShiftID:      r.FromShiftID,
		ToShiftID:        r.ToShiftID,
		Status:           string(r.Status),
		RequestMessage:   r.RequestMessage,
		ResponseMessage:  r.ResponseMessage,
		RequiresApproval: r.RequiresApproval,
		ApprovedByUserID: r.ApprovedByUserID,
		ApprovedAt:       formatTimePtr(r.ApprovedAt),
		ApprovalNotes:    r.ApprovalNotes,
		RequestedAt:      r.RequestedAt.UTC().Format(time.RFC3339),
		RespondedAt:      formatTimePtr(r.RespondedAt),
		AppliedAt:        formatTimePtr(r.AppliedAt),
		Version:          r.Version,
	}
	if r.FromShift != nil {
		resp.FromShift = toShiftBrief(r.FromShift)
	}
	if r.ToShift != nil {
		resp.ToShift = toShiftBrief(r.ToShift)
	}
	return resp
}

func toShiftBrief(sh *model.Shift) *dto.ShiftBrief {
	return &dto.ShiftBrief{
		ID:       sh.ShiftID,
		SiteID:   sh.SiteID,
		MemberID: sh.MemberID,
		Post:     sh.Post,
		StartsAt: sh.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:   sh.EndsAt.UTC().Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
