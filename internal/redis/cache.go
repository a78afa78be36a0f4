package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medibook/appointment-scheduling/internal/scheduling"
)

// SlotCache keeps the computed open-slot list per service in Redis for a
// short TTL. Slot listing is the hottest read and is recomputed from windows
// plus bookings on every request otherwise. Booking mutations invalidate the
// affected service; the TTL bounds staleness if an invalidation is missed.
// Every cache error degrades to a miss.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSlotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SlotCache {
	return &SlotCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

type cachedSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type cachedPractitioner struct {
	PractitionerID int64        `json:"practitioner_id"`
	Practitioner   string       `json:"practitioner"`
	Slots          []cachedSlot `json:"slots"`
}

func slotKey(serviceID int64) string {
	return fmt.Sprintf("slots:service:%d", serviceID)
}

func (c *SlotCache) Get(ctx context.Context, serviceID int64) ([]scheduling.PractitionerSlots, bool) {
	raw, err := c.client.Get(ctx, slotKey(serviceID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("slot cache read failed", zap.Int64("service_id", serviceID), zap.Error(err))
		}
		return nil, false
	}

	var entries []cachedPractitioner
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("slot cache decode failed", zap.Int64("service_id", serviceID), zap.Error(err))
		return nil, false
	}

	result := make([]scheduling.PractitionerSlots, 0, len(entries))
	for _, e := range entries {
		ps := scheduling.PractitionerSlots{
			PractitionerID: e.PractitionerID,
			Practitioner:   e.Practitioner,
			Slots:          make([]scheduling.Slot, 0, len(e.Slots)),
		}
		for _, s := range e.Slots {
			date, err := time.Parse("2006-01-02", s.Date)
			if err != nil {
				return nil, false
			}
			tod, err := scheduling.ParseTimeOfDay(s.Time)
			if err != nil {
				return nil, false
			}
			ps.Slots = append(ps.Slots, scheduling.Slot{Date: date, Time: tod})
		}
		result = append(result, ps)
	}
	return result, true
}

func (c *SlotCache) Set(ctx context.Context, serviceID int64, slots []scheduling.PractitionerSlots) {
	entries := make([]cachedPractitioner, 0, len(slots))
	for _, ps := range slots {
		e := cachedPractitioner{
			PractitionerID: ps.PractitionerID,
			Practitioner:   ps.Practitioner,
			Slots:          make([]cachedSlot, 0, len(ps.Slots)),
		}
		for _, s := range ps.Slots {
			e.Slots = append(e.Slots, cachedSlot{
				Date: s.Date.Format("2006-01-02"),
				Time: s.Time.String(),
			})
		}
		entries = append(entries, e)
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("slot cache encode failed", zap.Int64("service_id", serviceID), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, slotKey(serviceID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("slot cache write failed", zap.Int64("service_id", serviceID), zap.Error(err))
	}
}

func (c *SlotCache) Invalidate(ctx context.Context, serviceID int64) {
	if err := c.client.Del(ctx, slotKey(serviceID)).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", zap.Int64("service_id", serviceID), zap.Error(err))
	}
}
