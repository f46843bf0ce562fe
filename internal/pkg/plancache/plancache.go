// Package plancache keeps resolved plans in Redis. Every company has a
// version counter that is part of each key; bumping it orphans all cached
// plans of the company at once and the TTL cleans them up.
package plancache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "schedule:plan:"

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis returns a schedule.PlanCache backed by rdb.
func NewRedis(rdb *redis.Client, ttl time.Duration) schedule.PlanCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCache{rdb: rdb, ttl: ttl}
}

func versionKey(companyID string) string {
	return keyPrefix + companyID + ":version"
}

func planKey(companyID string, version int64, employeeID string, date time.Time) string {
	return fmt.Sprintf("%s%s:v%d:%s:%s", keyPrefix, companyID, version, employeeID, schedule.FormatDate(date))
}

func (c *redisCache) version(ctx context.Context, companyID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *redisCache) Get(ctx context.Context, companyID, employeeID string, date time.Time) (schedule.PlanResponse, int64, bool) {
	v, err := c.version(ctx, companyID)
	if err != nil {
		slog.Warn("plan cache unavailable", "company_id", companyID, "error", err)
		return schedule.PlanResponse{}, -1, false
	}

	raw, err := c.rdb.Get(ctx, planKey(companyID, v, employeeID, date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("plan cache read failed", "company_id", companyID, "employee_id", employeeID, "error", err)
		}
		return schedule.PlanResponse{}, v, false
	}

	var plan schedule.PlanResponse
	if err := json.Unmarshal(raw, &plan); err != nil {
		slog.Warn("plan cache entry corrupt", "company_id", companyID, "employee_id", employeeID, "error", err)
		return schedule.PlanResponse{}, v, false
	}
	return plan, v, true
}

// Set writes under the version returned by the Get that missed. If the
// company was invalidated meanwhile the entry lands under a retired version
// and is never read.
func (c *redisCache) Set(ctx context.Context, companyID, employeeID string, date time.Time, v int64, plan schedule.PlanResponse) {
	if v < 0 {
		return
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, planKey(companyID, v, employeeID, date), raw, c.ttl).Err(); err != nil {
		slog.Warn("plan cache write failed", "company_id", companyID, "employee_id", employeeID, "error", err)
	}
}

func (c *redisCache) Invalidate(ctx context.Context, companyID string) {
	if err := c.rdb.Incr(ctx, versionKey(companyID)).Err(); err != nil {
		slog.Error("plan cache invalidation failed", "company_id", companyID, "error", err)
	}
}

type noopCache struct{}

// NewNoop returns a cache that stores nothing, used when Redis is not
// configured.
func NewNoop() schedule.PlanCache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string, string, time.Time) (schedule.PlanResponse, int64, bool) {
	return schedule.PlanResponse{}, -1, false
}

func (noopCache) Set(context.Context, string, string, time.Time, int64, schedule.PlanResponse) {}

func (noopCache) Invalidate(context.Context, string) {}
