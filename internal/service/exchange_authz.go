package service

import (
	"fieldops/internal/model"
)

// ── 换班权限闸门 ──
// 每次迁移前先判定操作人与申请的关系，再交给状态机。

// authorizeExchange 判定 actor 对 req 执行 action 时的身份
func authorizeExchange(action ExchangeAction, req *model.ExchangeRequest, actor *model.User) (ExchangeActor, error) {
	if actor == nil || !actor.IsActive {
		return "", ErrExchangeActorInactive
	}

	switch action {
	case ExchangeActionAccept:
		if !req.IsOpenMarket() {
			if *req.ToUserID == actor.UserID {
				return ExchangeActorCounterparty, nil
			}
			return "", ErrExchangeForbidden
		}
		if isSiteCandidate(req, actor) {
			return ExchangeActorCandidate, nil
		}
		return "", ErrExchangeForbidden

	case ExchangeActionDecline:
		// 开放市场没有指定对方，无人可拒绝
		if !req.IsOpenMarket() && *req.ToUserID == actor.UserID {
			return ExchangeActorCounterparty, nil
		}
		return "", ErrExchangeForbidden

	case ExchangeActionCancel:
		if req.FromUserID == actor.UserID {
			return ExchangeActorRequester, nil
		}
		return "", ErrExchangeForbidden

	case ExchangeActionApprove, ExchangeActionDeny:
		if !actor.Role.IsSupervisory() || !actor.InSite(req.SiteID) {
			return "", ErrExchangeForbidden
		}
		if req.IsParty(actor.UserID) {
			return "", ErrExchangeSelfApproval
		}
		return ExchangeActorSupervisor, nil

	case ExchangeActionApply:
		if req.FromUserID == actor.UserID {
			return ExchangeActorRequester, nil
		}
		if !req.IsOpenMarket() && *req.ToUserID == actor.UserID {
			return ExchangeActorCounterparty, nil
		}
		return "", ErrExchangeForbidden
	}

	// expire 只能由系统发起
	return "", ErrExchangeForbidden
}

// authorizeCreate 发起人必须是在职队员且当前持有该班次
func authorizeCreate(actor *model.User, fromShiftHolder string) error {
	if actor == nil || !actor.IsActive {
		return ErrExchangeActorInactive
	}
	if fromShiftHolder != actor.UserID {
		return ErrExchangeNotShiftHolder
	}
	return nil
}

// canViewExchange 单条读取：当事人、同站点队员（仅开放申请）、范围内主管
func canViewExchange(req *model.ExchangeRequest, actor *model.User) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	if req.IsParty(actor.UserID) {
		return true
	}
	if actor.Role.IsSupervisory() && actor.InSite(req.SiteID) {
		return true
	}
	return req.IsOpenMarket() && isSiteCandidate(req, actor)
}

// isSiteCandidate 开放市场候选人：驻同一站点且不是发起人
func isSiteCandidate(req *model.ExchangeRequest, actor *model.User) bool {
	if actor.CompanyWide() || *actor.SiteID != req.SiteID {
		return false
	}
	return actor.UserID != req.FromUserID
}
