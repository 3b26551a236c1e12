package clock

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog/log"
)

// Clock supplies the time stake operations are stamped with.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock only moves when told to. Used by tests to simulate the cooldown.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type queryFunc func(host string) (time.Duration, error)

// NTPClock is the system clock corrected by the offset last measured against
// an NTP server.
type NTPClock struct {
	server string
	query  queryFunc

	mu     sync.RWMutex
	offset time.Duration
}

func NewNTPClock(server string) *NTPClock {
	return &NTPClock{
		server: server,
		query: func(host string) (time.Duration, error) {
			resp, err := ntp.Query(host)
			if err != nil {
				return 0, err
			}
			return resp.ClockOffset, nil
		},
	}
}

func (c *NTPClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().Add(c.offset)
}

func (c *NTPClock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Sync measures the offset once. On failure the previous offset is kept.
func (c *NTPClock) Sync(ctx context.Context) error {
	offset, err := c.query(c.server)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("server", c.server).Msg("failed to query NTP server")
		return err
	}

	c.mu.Lock()
	c.offset = offset
	c.mu.Unlock()

	log.Ctx(ctx).Debug().Dur("offset", offset).Str("server", c.server).Msg("clock offset updated")
	return nil
}
