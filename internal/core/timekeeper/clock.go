package timekeeper

import (
	"sync"
	"time"
)

// Clock drives Engine.Tick. Stop must be idempotent and safe to call from
// inside the callback.
type Clock interface {
	Start(fn func())
	Stop()
	Running() bool
}

type tickerClock struct {
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewTickerClock returns a Clock that calls fn every interval on its own
// goroutine.
func NewTickerClock(interval time.Duration) Clock {
	if interval <= 0 {
		interval = time.Second
	}
	return &tickerClock{interval: interval}
}

func (clock *tickerClock) Start(fn func()) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if clock.stopCh != nil {
		return
	}
	stopCh := make(chan struct{})
	clock.stopCh = stopCh
	go clock.run(stopCh, fn)
}

func (clock *tickerClock) Stop() {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if clock.stopCh == nil {
		return
	}
	close(clock.stopCh)
	clock.stopCh = nil
}

func (clock *tickerClock) Running() bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.stopCh != nil
}

func (clock *tickerClock) run(stopCh <-chan struct{}, fn func()) {
	ticker := time.NewTicker(clock.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// A Stop racing with the tick wins.
			select {
			case <-stopCh:
				return
			default:
			}
			fn()
		}
	}
}
