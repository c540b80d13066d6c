// Package ledger implements daily-usage accounting for password checks. It
// owns the quota window arithmetic and the serialization of the
// count-then-record sequence; whether the quota is exceeded is decided by the
// orchestrator from the numbers the ledger reports.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"passcheck/internal/checker/models"
	"passcheck/internal/checker/ports"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

type Ledger struct {
	store  ports.CheckStore
	logger *slog.Logger
	now    func() time.Time

	// Per-subscription locks serialize count-then-record for stores that
	// cannot do the admission atomically themselves.
	mu    sync.Mutex
	locks map[id.SubscriptionID]*sync.Mutex
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source, letting tests cross UTC day
// boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(store ports.CheckStore, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("check store is required")
	}

	l := &Ledger{
		store: store,
		now:   time.Now,
		locks: make(map[id.SubscriptionID]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Window returns the UTC calendar day [midnight, midnight+24h) containing t.
func Window(t time.Time) (from, to time.Time) {
	t = t.UTC()
	from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}

// CountToday returns the number of checks the subscription has recorded in
// the current UTC day.
func (l *Ledger) CountToday(ctx context.Context, subscriptionID id.SubscriptionID) (int, error) {
	from, to := Window(l.now())
	count, err := l.store.CountInWindow(ctx, subscriptionID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	return count, nil
}

// Record persists a check with the current UTC timestamp, without any quota
// admission. Use ClaimSlot on the quota-gated path.
func (l *Ledger) Record(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID, score int, level models.Level) (*models.PasswordCheck, error) {
	check := l.newCheck(userID, subscriptionID, score, level)
	if err := l.store.Insert(ctx, check); err != nil {
		return nil, fmt.Errorf("record check: %w", err)
	}
	return check, nil
}

// ClaimSlot atomically claims one slot of the subscription's daily quota:
// count, decide, record as a single serialized step. On success it returns
// the persisted record and the window count including it. When the window is
// full it returns sentinel.ErrLimitReached and persists nothing.
//
// Stores implementing ports.ConditionalRecorder run the admission themselves
// (a transaction holding a per-subscription advisory lock); for the rest the
// ledger serializes with a per-subscription mutex. Either way two concurrent
// claims for the last slot admit exactly one.
func (l *Ledger) ClaimSlot(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID, limit, score int, level models.Level) (*models.PasswordCheck, int, error) {
	from, to := Window(l.now())
	check := l.newCheck(userID, subscriptionID, score, level)

	if cr, ok := l.store.(ports.ConditionalRecorder); ok {
		inserted, used, err := cr.InsertIfUnderLimit(ctx, check, limit, from, to)
		if err != nil {
			return nil, 0, fmt.Errorf("claim slot: %w", err)
		}
		if !inserted {
			return nil, used, sentinel.ErrLimitReached
		}
		return check, used, nil
	}

	lock := l.lockFor(subscriptionID)
	lock.Lock()
	defer lock.Unlock()

	count, err := l.store.CountInWindow(ctx, subscriptionID, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("claim slot: %w", err)
	}
	if count >= limit {
		return nil, count, sentinel.ErrLimitReached
	}
	if err := l.store.Insert(ctx, check); err != nil {
		return nil, 0, fmt.Errorf("claim slot: %w", err)
	}

	if l.logger != nil {
		l.logger.DebugContext(ctx, "check recorded",
			"subscription_id", subscriptionID,
			"used", count+1,
			"limit", limit,
		)
	}
	return check, count + 1, nil
}

func (l *Ledger) newCheck(userID id.UserID, subscriptionID id.SubscriptionID, score int, level models.Level) *models.PasswordCheck {
	subID := subscriptionID
	return &models.PasswordCheck{
		ID:             id.NewCheckID(),
		UserID:         userID,
		SubscriptionID: &subID,
		Score:          score,
		Level:          level,
		CreatedAt:      l.now().UTC(),
	}
}

func (l *Ledger) lockFor(subscriptionID id.SubscriptionID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[subscriptionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[subscriptionID] = lock
	}
	return lock
}
