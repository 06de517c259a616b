package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
)

var (
	allExchangeStatuses = []model.ExchangeStatus{
		model.ExchangeStatusPending,
		model.ExchangeStatusAccepted,
		model.ExchangeStatusRejected,
		model.ExchangeStatusPendingApproval,
		model.ExchangeStatusRejectedBySupervisor,
		model.ExchangeStatusCancelled,
		model.ExchangeStatusApplied,
	}
	allExchangeActions = []ExchangeAction{
		ExchangeActionAccept,
		ExchangeActionDecline,
		ExchangeActionCancel,
		ExchangeActionApprove,
		ExchangeActionDeny,
		ExchangeActionApply,
		ExchangeActionExpire,
	}
)

func TestNextExchangeStatus_LegalTransitions(t *testing.T) {
	tests := []struct {
		name             string
		from             model.ExchangeStatus
		action           ExchangeAction
		actor            ExchangeActor
		requiresApproval bool
		want             model.ExchangeStatus
	}{
		{"对方接受-无需审批", model.ExchangeStatusPending, ExchangeActionAccept, ExchangeActorCounterparty, false, model.ExchangeStatusAccepted},
		{"对方接受-需审批", model.ExchangeStatusPending, ExchangeActionAccept, ExchangeActorCounterparty, true, model.ExchangeStatusPendingApproval},
		{"候选人认领-无需审批", model.ExchangeStatusPending, ExchangeActionAccept, ExchangeActorCandidate, false, model.ExchangeStatusAccepted},
		{"候选人认领-需审批", model.ExchangeStatusPending, ExchangeActionAccept, ExchangeActorCandidate, true, model.ExchangeStatusPendingApproval},
		{"对方拒绝", model.ExchangeStatusPending, ExchangeActionDecline, ExchangeActorCounterparty, false, model.ExchangeStatusRejected},
		{"发起人撤回", model.ExchangeStatusPending, ExchangeActionCancel, ExchangeActorRequester, false, model.ExchangeStatusCancelled},
		{"主管批准", model.ExchangeStatusPendingApproval, ExchangeActionApprove, ExchangeActorSupervisor, true, model.ExchangeStatusAccepted},
		{"主管驳回", model.ExchangeStatusPendingApproval, ExchangeActionDeny, ExchangeActorSupervisor, true, model.ExchangeStatusRejectedBySupervisor},
		{"发起人落地", model.ExchangeStatusAccepted, ExchangeActionApply, ExchangeActorRequester, false, model.ExchangeStatusApplied},
		{"接班人落地", model.ExchangeStatusAccepted, ExchangeActionApply, ExchangeActorCounterparty, true, model.ExchangeStatusApplied},
		{"待答复过期", model.ExchangeStatusPending, ExchangeActionExpire, ExchangeActorSystem, false, model.ExchangeStatusCancelled},
		{"待审批过期", model.ExchangeStatusPendingApproval, ExchangeActionExpire, ExchangeActorSystem, true, model.ExchangeStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextExchangeStatus(tt.from, tt.action, tt.actor, tt.requiresApproval)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextExchangeStatus_WrongActor(t *testing.T) {
	tests := []struct {
		from   model.ExchangeStatus
		action ExchangeAction
		actor  ExchangeActor
	}{
		{model.ExchangeStatusPending, ExchangeActionCancel, ExchangeActorCounterparty},
		{model.ExchangeStatusPending, ExchangeActionDecline, ExchangeActorCandidate},
		{model.ExchangeStatusPending, ExchangeActionAccept, ExchangeActorRequester},
		{model.ExchangeStatusPendingApproval, ExchangeActionApprove, ExchangeActorCounterparty},
		{model.ExchangeStatusAccepted, ExchangeActionApply, ExchangeActorSupervisor},
		{model.ExchangeStatusPending, ExchangeActionExpire, ExchangeActorRequester},
	}

	for _, tt := range tests {
		_, err := nextExchangeStatus(tt.from, tt.action, tt.actor, true)
		assert.ErrorIs(t, err, ErrExchangeForbidden, "%s/%s/%s", tt.from, tt.action, tt.actor)
	}
}

// 迁移表之外的全部组合都必须是冲突，且终态没有任何出口
func TestNextExchangeStatus_EverythingElseConflicts(t *testing.T) {
	legal := map[transitionKey]bool{
		{model.ExchangeStatusPending, ExchangeActionAccept}:          true,
		{model.ExchangeStatusPending, ExchangeActionDecline}:         true,
		{model.ExchangeStatusPending, ExchangeActionCancel}:          true,
		{model.ExchangeStatusPending, ExchangeActionExpire}:          true,
		{model.ExchangeStatusPendingApproval, ExchangeActionApprove}: true,
		{model.ExchangeStatusPendingApproval, ExchangeActionDeny}:    true,
		{model.ExchangeStatusPendingApproval, ExchangeActionExpire}:  true,
		{model.ExchangeStatusAccepted, ExchangeActionApply}:          true,
	}

	for _, from := range allExchangeStatuses {
		for _, action := range allExchangeActions {
			key := transitionKey{from: from, action: action}
			assert.Equal(t, legal[key], transitionDefined(from, action), "%s/%s", from, action)
			if from.IsTerminal() {
				assert.False(t, legal[key], "终态 %s 不应有出口", from)
			}
			if legal[key] {
				continue
			}
			for _, approval := range []bool{true, false} {
				_, err := nextExchangeStatus(from, action, ExchangeActorRequester, approval)
				assert.ErrorIs(t, err, ErrExchangeInvalidTransition, "%s/%s", from, action)
			}
		}
	}
}

// 无需审批的申请永远到不了 PENDING_APPROVAL / REJECTED_BY_SUPERVISOR
func TestNextExchangeStatus_NoApprovalStatesWhenNotRequired(t *testing.T) {
	actors := []ExchangeActor{
		ExchangeActorRequester, ExchangeActorCounterparty, ExchangeActorCandidate,
		ExchangeActorSupervisor, ExchangeActorSystem,
	}

	reachable := map[model.ExchangeStatus]bool{model.ExchangeStatusPending: true}
	frontier := []model.ExchangeStatus{model.ExchangeStatusPending}
	for len(frontier) > 0 {
		from := frontier[0]
		frontier = frontier[1:]
		for _, action := range allExchangeActions {
			for _, actor := range actors {
				next, err := nextExchangeStatus(from, action, actor, false)
				if err != nil || reachable[next] {
					continue
				}
				reachable[next] = true
				frontier = append(frontier, next)
			}
		}
	}

	assert.False(t, reachable[model.ExchangeStatusPendingApproval])
	assert.False(t, reachable[model.ExchangeStatusRejectedBySupervisor])
	assert.True(t, reachable[model.ExchangeStatusApplied])
}
