package timekeeper

import "sync"

// writeBehind runs persistence jobs on one background goroutine. Jobs are
// keyed: a newer job replaces a pending one with the same key, so a burst
// of duration edits costs a single write.
type writeBehind struct {
	mu      sync.Mutex
	cond    *sync.Cond
	order   []string
	pending map[string]func()
	busy    bool
	closed  bool
	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

func newWriteBehind() *writeBehind {
	writer := &writeBehind{
		pending: make(map[string]func()),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	writer.cond = sync.NewCond(&writer.mu)
	go writer.run()
	return writer
}

// Submit queues job under key. After Close, jobs run on the caller.
func (writer *writeBehind) Submit(key string, job func()) {
	writer.mu.Lock()
	if writer.closed {
		writer.mu.Unlock()
		job()
		return
	}
	if _, queued := writer.pending[key]; !queued {
		writer.order = append(writer.order, key)
	}
	writer.pending[key] = job
	writer.mu.Unlock()

	select {
	case writer.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every job submitted so far has run.
func (writer *writeBehind) Flush() {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	for len(writer.order) > 0 || writer.busy {
		writer.cond.Wait()
	}
}

// Close runs what is still queued and stops the worker.
func (writer *writeBehind) Close() {
	writer.mu.Lock()
	if writer.closed {
		writer.mu.Unlock()
		return
	}
	writer.closed = true
	writer.mu.Unlock()

	close(writer.quit)
	<-writer.stopped
}

func (writer *writeBehind) run() {
	defer close(writer.stopped)
	for {
		select {
		case <-writer.wake:
			writer.drain()
		case <-writer.quit:
			writer.drain()
			return
		}
	}
}

func (writer *writeBehind) drain() {
	for {
		writer.mu.Lock()
		if len(writer.order) == 0 {
			writer.busy = false
			writer.cond.Broadcast()
			writer.mu.Unlock()
			return
		}
		key := writer.order[0]
		writer.order = writer.order[1:]
		job := writer.pending[key]
		delete(writer.pending, key)
		writer.busy = true
		writer.mu.Unlock()

		job()
	}
}
