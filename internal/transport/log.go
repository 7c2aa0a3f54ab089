// internal/transport/log.go
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ic-control/internal/model"
)

type queued struct {
	direction model.Direction
	data      string
}

type waiter struct {
	match func(string) bool
	ch    chan string
}

// logBuffer batches inbound items and flushes them on a timer
type logBuffer struct {
	// notifyMu serializes Flush so batches reach subscribers in append order
	notifyMu    sync.Mutex
	mu          sync.Mutex
	entries     []model.LogEntry
	queue       []queued
	timer       *time.Timer
	interval    time.Duration
	max         int
	flush       func()
	subscribers []func([]model.LogEntry)
	waiters     map[uint64]*waiter
	nextWaiter  uint64
	now         func() time.Time
}

func (b *logBuffer) init(interval time.Duration, max int, flush func()) {
	b.interval = interval
	b.max = max
	b.flush = flush
	b.waiters = make(map[uint64]*waiter)
	b.now = time.Now
}

// Subscribe registers fn to receive every flushed batch in append order
func (t *Transport) Subscribe(fn func([]model.LogEntry)) {
	t.log.mu.Lock()
	t.log.subscribers = append(t.log.subscribers, fn)
	t.log.mu.Unlock()
}

// Ingest queues one log item. Non-forced items are dropped when their
// direction is disabled. A flush is scheduled if none is pending.
func (t *Transport) Ingest(data string, direction model.Direction, forced bool) {
	if direction == model.DirectionRX {
		t.log.deliver(data)
	}

	if !forced {
		t.mu.Lock()
		enabled := t.rxEnabled
		if direction == model.DirectionTX {
			enabled = t.txEnabled
		}
		t.mu.Unlock()
		if !enabled {
			return
		}
	}

	b := &t.log
	b.mu.Lock()
	b.queue = append(b.queue, queued{direction: direction, data: data})
	if b.timer == nil {
		b.timer = time.AfterFunc(b.interval, b.flush)
	}
	b.mu.Unlock()
}

// Flush appends all queued items with one shared timestamp, trims the log to
// its cap and notifies subscribers. It is safe to call at any time.
func (t *Transport) Flush() {
	port := t.port()

	b := &t.log
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return
	}

	stamp := b.now()
	batch := make([]model.LogEntry, len(b.queue))
	for i, q := range b.queue {
		batch[i] = model.LogEntry{
			ID:        uuid.New(),
			Timestamp: stamp,
			Direction: q.direction,
			Port:      port,
			Data:      q.data,
		}
	}
	b.queue = b.queue[:0]

	b.entries = append(b.entries, batch...)
	if excess := len(b.entries) - b.max; excess > 0 {
		b.entries = b.entries[excess:]
		if cap(b.entries) > 2*b.max {
			b.entries = append(make([]model.LogEntry, 0, b.max), b.entries...)
		}
	}
	subscribers := b.subscribers
	b.mu.Unlock()

	for _, fn := range subscribers {
		fn(batch)
	}
}

// Entries returns a copy of the log in order
func (t *Transport) Entries() []model.LogEntry {
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	return append([]model.LogEntry(nil), t.log.entries...)
}

// Len returns the number of flushed log entries
func (t *Transport) Len() int {
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	return len(t.log.entries)
}

// ClearLog drops every flushed and queued entry
func (t *Transport) ClearLog() {
	b := &t.log
	b.mu.Lock()
	b.entries = nil
	b.queue = b.queue[:0]
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
}

// Response is a pending wait for an inbound chunk
type Response struct {
	buf *logBuffer
	id  uint64
	ch  chan string
}

// Expect registers interest in the next RX chunk accepted by match. Register
// before sending the request so a fast reply is not missed.
func (t *Transport) Expect(match func(string) bool) *Response {
	b := &t.log
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextWaiter++
	w := &waiter{match: match, ch: make(chan string, 1)}
	b.waiters[b.nextWaiter] = w
	return &Response{buf: b, id: b.nextWaiter, ch: w.ch}
}

// Wait blocks until a matching chunk arrives or ctx is done
func (r *Response) Wait(ctx context.Context) (string, error) {
	defer r.Cancel()
	select {
	case data := <-r.ch:
		return data, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrResponseTimeout
		}
		return "", ctx.Err()
	}
}

// Cancel drops the wait
func (r *Response) Cancel() {
	r.buf.mu.Lock()
	delete(r.buf.waiters, r.id)
	r.buf.mu.Unlock()
}

func (b *logBuffer) deliver(data string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, w := range b.waiters {
		if w.match == nil || w.match(data) {
			w.ch <- data
			delete(b.waiters, id)
		}
	}
}
