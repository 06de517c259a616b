package service

import (
	"fieldops/internal/model"
)

// ExchangeAction 换班工作流动作（封闭枚举）
type ExchangeAction string

const (
	ExchangeActionAccept  ExchangeAction = "respond_accept"
	ExchangeActionDecline ExchangeAction = "respond_decline"
	ExchangeActionCancel  ExchangeAction = "cancel"
	ExchangeActionApprove ExchangeAction = "approve"
	ExchangeActionDeny    ExchangeAction = "deny"
	ExchangeActionApply   ExchangeAction = "apply"
	ExchangeActionExpire  ExchangeAction = "expire"
)

// ExchangeActor 操作人与申请的关系
type ExchangeActor string

const (
	ExchangeActorRequester    ExchangeActor = "requester"    // from_user
	ExchangeActorCounterparty ExchangeActor = "counterparty" // 已绑定的 to_user
	ExchangeActorCandidate    ExchangeActor = "candidate"    // 开放市场中的同站点队员
	ExchangeActorSupervisor   ExchangeActor = "supervisor"
	ExchangeActorSystem       ExchangeActor = "system" // 定时任务
)

type transitionKey struct {
	from   model.ExchangeStatus
	action ExchangeAction
}

type transitionRule struct {
	actors []ExchangeActor
	// to 为空时由 requiresApproval 决定（仅 accept）
	to model.ExchangeStatus
}

// exchangeTransitions 完整迁移表；未列出的 (状态, 动作) 组合一律冲突
var exchangeTransitions = map[transitionKey]transitionRule{
	{model.ExchangeStatusPending, ExchangeActionAccept}: {
		actors: []ExchangeActor{ExchangeActorCounterparty, ExchangeActorCandidate},
	},
	{model.ExchangeStatusPending, ExchangeActionDecline}: {
		actors: []ExchangeActor{ExchangeActorCounterparty},
		to:     model.ExchangeStatusRejected,
	},
	{model.ExchangeStatusPending, ExchangeActionCancel}: {
		actors: []ExchangeActor{ExchangeActorRequester},
		to:     model.ExchangeStatusCancelled,
	},
	{model.ExchangeStatusPendingApproval, ExchangeActionApprove}: {
		actors: []ExchangeActor{ExchangeActorSupervisor},
		to:     model.ExchangeStatusAccepted,
	},
	{model.ExchangeStatusPendingApproval, ExchangeActionDeny}: {
		actors: []ExchangeActor{ExchangeActorSupervisor},
		to:     model.ExchangeStatusRejectedBySupervisor,
	},
	{model.ExchangeStatusAccepted, ExchangeActionApply}: {
		actors: []ExchangeActor{ExchangeActorRequester, ExchangeActorCounterparty},
		to:     model.ExchangeStatusApplied,
	},
	{model.ExchangeStatusPending, ExchangeActionExpire}: {
		actors: []ExchangeActor{ExchangeActorSystem},
		to:     model.ExchangeStatusCancelled,
	},
	{model.ExchangeStatusPendingApproval, ExchangeActionExpire}: {
		actors: []ExchangeActor{ExchangeActorSystem},
		to:     model.ExchangeStatusCancelled,
	},
}

// nextExchangeStatus 纯函数：根据当前状态、动作、操作人关系与审批策略计算下一状态。
// 组合不在迁移表中返回 ErrExchangeInvalidTransition；
// 组合存在但操作人关系不符返回 ErrExchangeForbidden。
func nextExchangeStatus(current model.ExchangeStatus, action ExchangeAction, actor ExchangeActor, requiresApproval bool) (model.ExchangeStatus, error) {
	rule, ok := exchangeTransitions[transitionKey{from: current, action: action}]
	if !ok {
		return "", ErrExchangeInvalidTransition
	}
	if !actorAllowed(rule.actors, actor) {
		return "", ErrExchangeForbidden
	}

	if action == ExchangeActionAccept {
		if requiresApproval {
			return model.ExchangeStatusPendingApproval, nil
		}
		return model.ExchangeStatusAccepted, nil
	}
	return rule.to, nil
}

// transitionDefined (状态, 动作) 组合是否存在于迁移表
func transitionDefined(current model.ExchangeStatus, action ExchangeAction) bool {
	_, ok := exchangeTransitions[transitionKey{from: current, action: action}]
	return ok
}

func actorAllowed(allowed []ExchangeActor, actor ExchangeActor) bool {
	for _, a := range allowed {
		if a == actor {
			return true
		}
	}
	return false
}
