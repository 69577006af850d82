package autoscale

import (
	"sync"
	"time"
)

// ActionLog tracks when each (resource, action) pair last scaled so
// that a burst of alerts cannot trigger rapid repeated scaling. It is
// safe for concurrent use.
type ActionLog struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewActionLog creates an ActionLog with the given cooldown period.
func NewActionLog(cooldown time.Duration) *ActionLog {
	return &ActionLog{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// CanScale reports whether the cooldown for the pair has elapsed. A pair
// that has never scaled is always allowed.
func (l *ActionLog) CanScale(resource string, action Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[l.key(resource, action)]
	if !ok {
		return true
	}
	return l.now().Sub(last) >= l.cooldown
}

// Record stores the current time as the pair's last scaling action.
func (l *ActionLog) Record(resource string, action Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[l.key(resource, action)] = l.now()
}

func (l *ActionLog) key(resource string, action Action) string {
	return resource + ":" + string(action)
}
