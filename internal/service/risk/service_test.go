package risk

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, repo.RiskRepo) {
	riskRepo := repo.NewMemoryRiskRepo()
	return NewService(riskRepo, slog.Default()), riskRepo
}

func TestService_SettingsDefaults(t *testing.T) {
	svc, _ := newTestService()
	settings, err := svc.Settings(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, settings.MaxPositionSizePercent.Equal(decimal.NewFromInt(25)))
	assert.True(t, settings.DailyLossLimit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, settings.DailyLossUsed.IsZero())
}

func TestService_CheckPositionSize(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	total := decimal.NewFromInt(10000)

	// 3000 of 10000 is 30%, over the 25% default.
	err := svc.CheckPositionSize(ctx, "u1", decimal.NewFromInt(3000), total)
	assert.ErrorIs(t, err, ErrRiskLimitExceeded)

	// 2000 of 10000 is 20%, allowed.
	err = svc.CheckPositionSize(ctx, "u1", decimal.NewFromInt(2000), total)
	assert.NoError(t, err)

	// Empty portfolio is never gated.
	err = svc.CheckPositionSize(ctx, "u1", decimal.NewFromInt(3000), decimal.Zero)
	assert.NoError(t, err)
}

func TestService_DailyLossLimit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.CheckDailyLoss(ctx, "u1"))

	// Profits never count against the limit.
	require.NoError(t, svc.RecordLoss(ctx, "u1", decimal.NewFromInt(500)))
	require.NoError(t, svc.RecordLoss(ctx, "u1", decimal.NewFromInt(-600)))
	require.NoError(t, svc.CheckDailyLoss(ctx, "u1"))

	require.NoError(t, svc.RecordLoss(ctx, "u1", decimal.NewFromInt(-400)))
	err := svc.CheckDailyLoss(ctx, "u1")
	assert.ErrorIs(t, err, ErrRiskLimitExceeded)
}

func TestService_DailyLossLazyReset(t *testing.T) {
	svc, riskRepo := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RecordLoss(ctx, "u1", decimal.NewFromInt(-1500)))
	require.ErrorIs(t, svc.CheckDailyLoss(ctx, "u1"), ErrRiskLimitExceeded)

	// Age the last reset to yesterday, the next check rolls the counter.
	settings, err := riskRepo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	settings.LastResetDate = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, riskRepo.Save(ctx, settings))

	require.NoError(t, svc.CheckDailyLoss(ctx, "u1"))
	settings, err = riskRepo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, settings.DailyLossUsed.IsZero())
}

func TestService_UpdateSettings(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	settings, err := svc.UpdateSettings(ctx, "u1", decimal.NewFromInt(50), decimal.NewFromInt(2500))
	require.NoError(t, err)
	assert.True(t, settings.MaxPositionSizePercent.Equal(decimal.NewFromInt(50)))
	assert.True(t, settings.DailyLossLimit.Equal(decimal.NewFromInt(2500)))

	// Zero means keep the current value.
	settings, err = svc.UpdateSettings(ctx, "u1", decimal.Zero, decimal.NewFromInt(3000))
	require.NoError(t, err)
	assert.True(t, settings.MaxPositionSizePercent.Equal(decimal.NewFromInt(50)))

	_, err = svc.UpdateSettings(ctx, "u1", decimal.NewFromInt(150), decimal.Zero)
	assert.Error(t, err)
}

func TestService_ResetTask(t *testing.T) {
	svc, riskRepo := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RecordLoss(ctx, "u1", decimal.NewFromInt(-300)))

	task := NewResetTask(svc)
	assert.Equal(t, "risk-daily-reset", task.Name())
	require.NoError(t, task.Run(ctx))

	settings, err := riskRepo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.True(t, settings.DailyLossUsed.IsZero())
}
