package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/model"
	"fieldops/internal/repository"
)

// ExchangeEventType 换班事件类型
type ExchangeEventType string

const (
	ExchangeEventCreated          ExchangeEventType = "created"
	ExchangeEventAccepted         ExchangeEventType = "accepted"
	ExchangeEventAwaitingApproval ExchangeEventType = "awaiting_approval"
	ExchangeEventDeclined         ExchangeEventType = "declined"
	ExchangeEventCancelled        ExchangeEventType = "cancelled"
	ExchangeEventApproved         ExchangeEventType = "approved"
	ExchangeEventDenied           ExchangeEventType = "denied"
	ExchangeEventApplied          ExchangeEventType = "applied"
	ExchangeEventExpired          ExchangeEventType = "expired"
)

// ExchangeEvent 一次成功迁移后的事件
type ExchangeEvent struct {
	Type       ExchangeEventType
	ActorID    string
	OccurredAt time.Time
}

// exchangeEventFor 由动作与迁移结果推导事件类型
func exchangeEventFor(action ExchangeAction, next model.ExchangeStatus) ExchangeEventType {
	switch action {
	case ExchangeActionAccept:
		if next == model.ExchangeStatusPendingApproval {
			return ExchangeEventAwaitingApproval
		}
		return ExchangeEventAccepted
	case ExchangeActionDecline:
		return ExchangeEventDeclined
	case ExchangeActionCancel:
		return ExchangeEventCancelled
	case ExchangeActionApprove:
		return ExchangeEventApproved
	case ExchangeActionDeny:
		return ExchangeEventDenied
	case ExchangeActionApply:
		return ExchangeEventApplied
	default:
		return ExchangeEventExpired
	}
}

// ExchangeNotifier 通知出口：尽力而为，返回的错误只记录不回滚
type ExchangeNotifier interface {
	NotifyExchange(ctx context.Context, exchange *model.ExchangeRequest, event ExchangeEvent) error
}

// EventPublisher 事件广播（Redis 发布订阅）
type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type exchangeNotifier struct {
	repo          *repository.Repository
	publisher     EventPublisher
	channelPrefix string
	logger        *zap.Logger
}

// NewExchangeNotifier 创建站内通知 + 事件广播的通知出口；publisher 可为 nil
func NewExchangeNotifier(repo *repository.Repository, publisher EventPublisher, channelPrefix string, logger *zap.Logger) ExchangeNotifier {
	return &exchangeNotifier{
		repo:          repo,
		publisher:     publisher,
		channelPrefix: channelPrefix,
		logger:        logger,
	}
}

// exchangeEventPayload 广播到 <prefix>:<site_id> 的消息体
type exchangeEventPayload struct {
	Event       ExchangeEventType    `json:"event"`
	RequestID   string               `json:"request_id"`
	SiteID      string               `json:"site_id"`
	Status      model.ExchangeStatus `json:"status"`
	ActorID     string               `json:"actor_id"`
	FromUserID  string               `json:"from_user_id"`
	ToUserID    *string              `json:"to_user_id,omitempty"`
	FromShiftID string               `json:"from_shift_id"`
	ToShiftID   *string              `json:"to_shift_id,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func (n *exchangeNotifier) NotifyExchange(ctx context.Context, exchange *model.ExchangeRequest, event ExchangeEvent) error {
	recipients, err := n.recipients(ctx, exchange, event)
	if err != nil {
		return fmt.Errorf("解析通知接收人: %w", err)
	}

	if len(recipients) > 0 {
		optOuts, err := n.repo.Notification.ExchangeOptOuts(ctx, recipients)
		if err != nil {
			return fmt.Errorf("查询通知偏好: %w", err)
		}

		title, content := exchangeNotificationText(event.Type)
		relatedType := model.NotificationTypeExchange
		notifications := make([]model.Notification, 0, len(recipients))
		for _, userID := range recipients {
			if optOuts[userID] {
				continue
			}
			notifications = append(notifications, model.Notification{
				UserID:      userID,
				Type:        model.NotificationTypeExchange,
				Title:       title,
				Content:     content,
				RelatedType: &relatedType,
				RelatedID:   &exchange.ExchangeRequestID,
			})
		}
		if err := n.repo.Notification.BatchCreate(ctx, notifications); err != nil {
			return fmt.Errorf("写入站内通知: %w", err)
		}
	}

	n.publish(ctx, exchange, event)
	return nil
}

// recipients 事件接收人（排除操作人本人，去重）
func (n *exchangeNotifier) recipients(ctx context.Context, exchange *model.ExchangeRequest, event ExchangeEvent) ([]string, error) {
	var candidates []string
	counterparty := ""
	if !exchange.IsOpenMarket() {
		counterparty = *exchange.ToUserID
	}

	switch event.Type {
	case ExchangeEventCreated, ExchangeEventCancelled:
		// 开放市场创建不逐个通知，由站点频道广播
		candidates = append(candidates, counterparty)
	case ExchangeEventAccepted, ExchangeEventDeclined:
		candidates = append(candidates, exchange.FromUserID)
	case ExchangeEventAwaitingApproval:
		candidates = append(candidates, exchange.FromUserID)
		supervisors, err := n.repo.User.ListSupervisorsBySite(ctx, exchange.SiteID)
		if err != nil {
			return nil, err
		}
		for _, sup := range supervisors {
			candidates = append(candidates, sup.UserID)
		}
	default:
		candidates = append(candidates, exchange.FromUserID, counterparty)
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id == "" || id == event.ActorID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// publish 广播失败只记录
func (n *exchangeNotifier) publish(ctx context.Context, exchange *model.ExchangeRequest, event ExchangeEvent) {
	if n.publisher == nil {
		return
	}
	payload, err := json.Marshal(exchangeEventPayload{
		Event:       event.Type,
		RequestID:   exchange.ExchangeRequestID,
		SiteID:      exchange.SiteID,
		Status:      exchange.Status,
		ActorID:     event.ActorID,
		FromUserID:  exchange.FromUserID,
		ToUserID:    exchange.ToUserID,
		FromShiftID: exchange.FromShiftID,
		ToShiftID:   exchange.ToShiftID,
		OccurredAt:  event.OccurredAt,
	})
	if err != nil {
		n.logger.Warn("序列化换班事件失败", zap.Error(err))
		return
	}

	channel := n.channelPrefix + ":" + exchange.SiteID
	if err := n.publisher.Publish(ctx, channel, payload); err != nil {
		n.logger.Warn("广播换班事件失败",
			zap.String("channel", channel),
			zap.String("exchange_request_id", exchange.ExchangeRequestID),
			zap.Error(err),
		)
	}
}

func exchangeNotificationText(t ExchangeEventType) (title, content string) {
	switch t {
	case ExchangeEventCreated:
		return "收到换班申请", "有同事向你发起了换班申请，请及时处理"
	case ExchangeEventAccepted:
		return "换班申请已被接受", "对方已接受你的换班申请，可以执行换班"
	case ExchangeEventAwaitingApproval:
		return "换班申请待审批", "换班申请已被接受，等待主管审批"
	case ExchangeEventDeclined:
		return "换班申请被拒绝", "对方拒绝了你的换班申请"
	case ExchangeEventCancelled:
		return "换班申请已撤回", "发起人撤回了换班申请"
	case ExchangeEventApproved:
		return "换班申请已通过审批", "主管已批准换班申请，可以执行换班"
	case ExchangeEventDenied:
		return "换班申请未通过审批", "主管驳回了换班申请"
	case ExchangeEventApplied:
		return "换班已生效", "排班表已按换班申请更新"
	default:
		return "换班申请已过期", "换班申请长时间未处理，已自动关闭"
	}
}
