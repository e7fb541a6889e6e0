package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

type rateKey struct {
	room domain.RoomID
	user domain.UserID
}

// RoomRateLimiter is a sliding-window counter per user per room.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[rateKey][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[rateKey][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(room domain.RoomID, uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := rateKey{room: room, user: uid}
	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[key]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}

	rl.history[key] = append(fresh, now)
	return true
}

func (rl *RoomRateLimiter) Forget(room domain.RoomID, uid domain.UserID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, rateKey{room: room, user: uid})
}
