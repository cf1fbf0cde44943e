package services

import (
	"context"
	"errors"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
)

type UsageLedgerInterface interface {
	CheckAndConsume(ctx context.Context, identity models.Identity) (models.Allowance, error)
}

// UsageLedger meters uploads: guests get a lifetime allowance, users a daily
// one that resets on the first upload of each UTC day.
//
// The check and the write are separate store calls, so concurrent requests of
// one identity may overshoot the limit slightly. With limits.strict both the
// day reset and the increment are conditional writes and the race closes.
type UsageLedger struct {
	store   store.LedgerStoreInterface
	limits  structures.LimitsConfig
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	now     func() time.Time
}

func NewUsageLedger(ledgerStore store.LedgerStoreInterface, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) UsageLedgerInterface {
	return &UsageLedger{
		store:   ledgerStore,
		limits:  conf.Limits,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// CheckAndConsume records one upload for identity or fails with
// *models.LimitExceededError. Store failures come back as
// *models.InfrastructureError and must block the upload.
func (l *UsageLedger) CheckAndConsume(ctx context.Context, identity models.Identity) (models.Allowance, error) {
	var (
		allowance models.Allowance
		err       error
	)
	if identity.IsUser() {
		allowance, err = l.consumeUser(ctx, identity.Key)
	} else {
		allowance, err = l.consumeGuest(ctx, identity.Key)
	}

	var limitErr *models.LimitExceededError
	switch {
	case err == nil:
		l.metrics.IncUploadDecision(identity.Kind.String(), true)
	case errors.As(err, &limitErr):
		l.metrics.IncUploadDecision(identity.Kind.String(), false)
		l.logger.Infof(providers.TypeApp, "Upload denied for %s %s: %d/%d", identity.Kind, identity.Key, limitErr.Used, limitErr.Limit)
	default:
		l.logger.Errorf(providers.TypeApp, "Usage ledger unavailable for %s %s: %s", identity.Kind, identity.Key, err)
	}
	return allowance, err
}

func (l *UsageLedger) consumeGuest(ctx context.Context, address string) (models.Allowance, error) {
	limit := l.limits.GuestLifetime

	count := 0
	usage, err := l.store.GetGuestUsage(ctx, address)
	switch {
	case err == nil:
		count = usage.Count
	case errors.Is(err, models.ErrNotFound):
	default:
		return models.Allowance{}, models.NewInfrastructureError("read guest usage", err)
	}

	if count >= limit {
		return models.Allowance{}, &models.LimitExceededError{Kind: models.IdentityGuest, Used: count, Limit: limit}
	}

	used, err := l.store.IncrementGuestUsage(ctx, address, l.ceiling(limit))
	if errors.Is(err, models.ErrConditionFailed) {
		return models.Allowance{}, &models.LimitExceededError{Kind: models.IdentityGuest, Used: limit, Limit: limit}
	}
	if err != nil {
		return models.Allowance{}, models.NewInfrastructureError("increment guest usage", err)
	}
	return models.NewAllowance(used, limit), nil
}

func (l *UsageLedger) consumeUser(ctx context.Context, userID string) (models.Allowance, error) {
	limit := l.limits.UserDaily
	today := l.now().UTC().Format(models.DateLayout)

	usage, err := l.store.GetUserUsage(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Allowance{}, models.NewInfrastructureError("read user usage", err)
	}

	// First upload ever or first of the day: always allowed.
	if usage == nil || usage.LastUploadDate != today {
		err = l.store.ResetUserUsage(ctx, userID, today, l.limits.Strict)
		if err == nil {
			return models.NewAllowance(1, limit), nil
		}
		// A concurrent request already started today; count against it.
		if !errors.Is(err, models.ErrConditionFailed) {
			return models.Allowance{}, models.NewInfrastructureError("reset user usage", err)
		}
	} else if usage.DailyCount >= limit {
		return models.Allowance{}, &models.LimitExceededError{Kind: models.IdentityUser, Used: usage.DailyCount, Limit: limit}
	}

	used, err := l.store.IncrementUserUsage(ctx, userID, today, l.ceiling(limit))
	if errors.Is(err, models.ErrConditionFailed) {
		return models.Allowance{}, &models.LimitExceededError{Kind: models.IdentityUser, Used: limit, Limit: limit}
	}
	if err != nil {
		return models.Allowance{}, models.NewInfrastructureError("increment user usage", err)
	}
	return models.NewAllowance(used, limit), nil
}

func (l *UsageLedger) ceiling(limit int) int {
	if l.limits.Strict {
		return limit
	}
	return 0
}
