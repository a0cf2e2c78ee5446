package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/pkg/errs"
	"github.com/shopspring/decimal"
)

var ErrRiskLimitExceeded = errs.New("RISK_LIMIT_EXCEEDED", "risk limit exceeded")

var (
	defaultMaxPositionSizePercent = decimal.NewFromInt(25)
	defaultDailyLossLimit         = decimal.NewFromInt(1000)
)

// Service gates order placement. Settings are created lazily per user
// with defaults and the daily loss counter rolls over at UTC midnight.
type Service struct {
	riskRepo repo.RiskRepo
	logger   *slog.Logger
}

func NewService(riskRepo repo.RiskRepo, logger *slog.Logger) *Service {
	return &Service{
		riskRepo: riskRepo,
		logger:   logger,
	}
}

func (s *Service) Settings(ctx context.Context, userId string) (*entity.RiskSettings, error) {
	settings, err := s.riskRepo.FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}
	settings = &entity.RiskSettings{
		UserId:                 userId,
		MaxPositionSizePercent: defaultMaxPositionSizePercent,
		DailyLossLimit:         defaultDailyLossLimit,
		DailyLossUsed:          decimal.Zero,
		LastResetDate:          time.Now().UTC(),
		UpdatedAt:              time.Now(),
	}
	if err = s.riskRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userId string, maxPositionSizePercent, dailyLossLimit decimal.Decimal) (*entity.RiskSettings, error) {
	settings, err := s.Settings(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !maxPositionSizePercent.IsZero() {
		if maxPositionSizePercent.IsNegative() || maxPositionSizePercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: max position size must be in (0, 100]", ErrRiskLimitExceeded)
		}
		settings.MaxPositionSizePercent = maxPositionSizePercent
	}
	if !dailyLossLimit.IsZero() {
		if dailyLossLimit.IsNegative() {
			return nil, fmt.Errorf("%w: daily loss limit must be positive", ErrRiskLimitExceeded)
		}
		settings.DailyLossLimit = dailyLossLimit
	}
	settings.UpdatedAt = time.Now()
	if err = s.riskRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// CheckPositionSize rejects orders whose notional exceeds the user's
// configured share of total portfolio value. Users with no valued
// portfolio are not gated, so the first deposit-then-buy flow works.
func (s *Service) CheckPositionSize(ctx context.Context, userId string, notional, totalPortfolioValue decimal.Decimal) error {
	if !totalPortfolioValue.IsPositive() {
		return nil
	}
	settings, err := s.Settings(ctx, userId)
	if err != nil {
		return err
	}
	pct := notional.Div(totalPortfolioValue).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(settings.MaxPositionSizePercent) {
		return fmt.Errorf("%w: position is %s%% of portfolio, limit %s%%",
			ErrRiskLimitExceeded, pct.Round(2), settings.MaxPositionSizePercent)
	}
	return nil
}

// CheckDailyLoss blocks new orders once the day's realized losses reach
// the limit. The counter resets lazily when the UTC day changes.
func (s *Service) CheckDailyLoss(ctx context.Context, userId string) error {
	settings, err := s.Settings(ctx, userId)
	if err != nil {
		return err
	}
	if s.maybeReset(ctx, settings) {
		return nil
	}
	if settings.DailyLossUsed.GreaterThanOrEqual(settings.DailyLossLimit) {
		return fmt.Errorf("%w: daily loss %s reached limit %s",
			ErrRiskLimitExceeded, settings.DailyLossUsed, settings.DailyLossLimit)
	}
	return nil
}

// RecordLoss accumulates realized losses against the daily limit.
// Profits are ignored.
func (s *Service) RecordLoss(ctx context.Context, userId string, pnl decimal.Decimal) error {
	if !pnl.IsNegative() {
		return nil
	}
	settings, err := s.Settings(ctx, userId)
	if err != nil {
		return err
	}
	s.maybeReset(ctx, settings)
	settings.DailyLossUsed = settings.DailyLossUsed.Add(pnl.Abs())
	settings.UpdatedAt = time.Now()
	return s.riskRepo.Save(ctx, settings)
}

func (s *Service) maybeReset(ctx context.Context, settings *entity.RiskSettings) bool {
	now := time.Now().UTC()
	last := settings.LastResetDate.UTC()
	if now.Year() == last.Year() && now.YearDay() == last.YearDay() {
		return false
	}
	settings.DailyLossUsed = decimal.Zero
	settings.LastResetDate = now
	settings.UpdatedAt = time.Now()
	if err := s.riskRepo.Save(ctx, settings); err != nil {
		s.logger.Error("reset daily loss counter", slog.String("userId", settings.UserId), slog.Any("err", err))
	}
	return true
}

// ResetDailyCounters zeroes every user's daily loss counter. Run once a
// day as a scheduled sweep; the lazy per-user reset covers users the
// sweep misses.
func (s *Service) ResetDailyCounters(ctx context.Context) error {
	return s.riskRepo.ResetAll(ctx, time.Now().UTC())
}

type ResetTask struct {
	svc *Service
}

func NewResetTask(svc *Service) *ResetTask {
	return &ResetTask{svc: svc}
}

func (t *ResetTask) Name() string {
	return "risk-daily-reset"
}

func (t *ResetTask) Run(ctx context.Context) error {
	return t.svc.ResetDailyCounters(ctx)
}
