// Package redisdedup remembers processed webhook event ids in Redis so
// duplicate deliveries are acknowledged without being reapplied.
package redisdedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "webhook:event:"

// Deduper tracks first deliveries with SETNX + TTL.
type Deduper struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a Deduper. ttl bounds how long event ids are remembered.
func New(client redis.UniversalClient, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// FirstDelivery returns true when eventID has not been seen within the TTL.
func (d *Deduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	first, err := d.client.SetNX(ctx, keyPrefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup event %s: %w", eventID, err)
	}
	return first, nil
}
