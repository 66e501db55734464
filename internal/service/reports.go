package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/repository"
)

// ReportCache stores serialised reports. A miss is (nil, false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const defaultReportDays = 30

// ReportService computes sales summaries, optionally through a cache.
type ReportService struct {
	store *repository.Store
	cache ReportCache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewReportService builds the service. cache may be nil.
func NewReportService(store *repository.Store, cache ReportCache, ttl time.Duration, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{store: store, cache: cache, ttl: ttl, log: log.Named("reports"), now: time.Now}
}

// Sales summarises orders created in [from, to). Zero bounds default to the
// last 30 whole days (UTC), which keeps the cache key stable within a day.
func (s *ReportService) Sales(ctx context.Context, actor auth.Principal, from, to time.Time) (*repository.SalesSummary, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if to.IsZero() {
		to = s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultReportDays)
	}
	if !from.Before(to) {
		return nil, Validation("from must be before to")
	}
	from, to = from.UTC(), to.UTC()
	key := fmt.Sprintf("railbite:report:sales:%d:%d", from.Unix(), to.Unix())

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("report cache get", zap.Error(err), zap.String("key", key))
		case ok:
			var out repository.SalesSummary
			if err := json.Unmarshal(raw, &out); err == nil {
				return &out, nil
			}
			s.log.Warn("report cache entry is corrupt", zap.String("key", key))
		}
	}

	out, err := s.store.Orders.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.log.Warn("report cache set", zap.Error(err), zap.String("key", key))
			}
		}
	}
	return out, nil
}
