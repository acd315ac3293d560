package service

import (
	"strconv"
	"sync"
	"time"
)

var (
	idMu     sync.Mutex
	lastTime int64
)

// newGoalID returns a unique, monotonically orderable id derived from the
// current time in milliseconds. Two calls in the same millisecond bump the
// counter so ordering never repeats.
func newGoalID() string {
	idMu.Lock()
	defer idMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastTime {
		now = lastTime + 1
	}
	lastTime = now
	return strconv.FormatInt(now, 10)
}
