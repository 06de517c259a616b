package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fieldops/config"
	"fieldops/internal/model"
	"fieldops/internal/repository"
	"fieldops/internal/testutil"
)

func TestExchangeExpirer_RunOnce(t *testing.T) {
	f := newExchangeFixture(t, true)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	insert := func(status model.ExchangeStatus, age time.Duration) *model.ExchangeRequest {
		row := f.insertWithStatus(status, true)
		require.NoError(t, f.db.Model(&model.ExchangeRequest{}).
			Where("exchange_request_id = ?", row.ExchangeRequestID).
			Update("requested_at", now.Add(-age)).Error)
		return row
	}
	stalePending := insert(model.ExchangeStatusPending, 80*time.Hour)
	staleApproval := insert(model.ExchangeStatusPendingApproval, 100*time.Hour)
	freshPending := insert(model.ExchangeStatusPending, time.Hour)
	staleAccepted := insert(model.ExchangeStatusAccepted, 200*time.Hour)

	notifier := NewExchangeNotifier(f.repo, f.publisher, testChannelPrefix, zap.NewNop())
	expirer := NewExchangeExpirer(&config.ExpiryConfig{PendingTTL: 72 * time.Hour, BatchSize: 10}, f.repo, notifier, zap.NewNop())

	n, err := expirer.RunOnce(f.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, model.ExchangeStatusCancelled, f.load(stalePending.ExchangeRequestID).Status)
	assert.Equal(t, model.ExchangeStatusCancelled, f.load(staleApproval.ExchangeRequestID).Status)
	assert.Equal(t, model.ExchangeStatusPending, f.load(freshPending.ExchangeRequestID).Status)
	assert.Equal(t, model.ExchangeStatusAccepted, f.load(staleAccepted.ExchangeRequestID).Status)

	expired := f.load(stalePending.ExchangeRequestID)
	assert.Equal(t, 2, expired.Version)
	assert.Nil(t, expired.ApprovedByUserID)
	assert.Empty(t, expired.ApprovalNotes)

	// 已关闭的申请不会被重复处理
	n, err = expirer.RunOnce(f.ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	inbox, total, err := f.repo.Notification.ListByUser(f.ctx, f.u1.UserID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, inbox, 2)
}

func TestExchangeExpirer_FreesShiftForResubmission(t *testing.T) {
	f := newExchangeFixture(t, false)
	now := time.Now().UTC()

	first := f.create(f.u1, directTo(f.u2, f.s1))
	expirer := NewExchangeExpirer(&config.ExpiryConfig{PendingTTL: time.Minute}, f.repo, nil, zap.NewNop())

	n, err := expirer.RunOnce(f.ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// 过期后的申请不可再被答复
	_, err = f.respond(first.ID, f.u2, true)
	assert.ErrorIs(t, err, ErrExchangeInvalidTransition)

	second := f.create(f.u1, directTo(f.u3, f.s1))
	assert.Equal(t, string(model.ExchangeStatusPending), second.Status)
}

func TestExchangeExpirer_StartStop(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)

	t.Run("未开启", func(t *testing.T) {
		e := NewExchangeExpirer(&config.ExpiryConfig{Enabled: false}, repo, nil, zap.NewNop())
		require.NoError(t, e.Start())
		e.Stop()
	})

	t.Run("非法表达式", func(t *testing.T) {
		e := NewExchangeExpirer(&config.ExpiryConfig{Enabled: true, Schedule: "every now and then", PendingTTL: time.Hour}, repo, nil, zap.NewNop())
		assert.Error(t, e.Start())
	})

	t.Run("正常启动与停止", func(t *testing.T) {
		e := NewExchangeExpirer(&config.ExpiryConfig{Enabled: true, Schedule: "@every 1h", PendingTTL: time.Hour}, repo, nil, zap.NewNop())
		require.NoError(t, e.Start())
		require.NoError(t, e.Start(), "重复启动无副作用")
		e.Stop()
		e.Stop()
	})
}

func TestExchangeExpirer_RespectsContext(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	e := NewExchangeExpirer(&config.ExpiryConfig{PendingTTL: time.Hour}, repo, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.RunOnce(ctx, time.Now())
	assert.Error(t, err)
}

func TestExchangeExpirer_SkipsNonExpirableStatusWithWarning(t *testing.T) {
	f := newExchangeFixture(t, false)
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewExchangeExpirer(&config.ExpiryConfig{PendingTTL: time.Hour}, f.repo, nil, zap.New(core))

	row := f.insertWithStatus(model.ExchangeStatusAccepted, false)
	expired, err := e.expireOne(f.ctx, row, time.Now())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, model.ExchangeStatusAccepted, f.load(row.ExchangeRequestID).Status)

	entries := logs.FilterField(zap.String("exchange_request_id", row.ExchangeRequestID)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, string(model.ExchangeStatusAccepted), entries[0].ContextMap()["status"])
}
