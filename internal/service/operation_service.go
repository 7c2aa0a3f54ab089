// internal/service/operation_service.go
package service

import (
	"context"
	"sync"
	"time"

	"ic-control/internal/model"
)

// outcomeTracker holds the pending/succeeded feedback of each operation.
// Each run bumps a generation so a stale reset timer never clears a newer run.
type outcomeTracker struct {
	mu         sync.Mutex
	outcomes   map[model.Operation]model.SendOutcome
	gens       map[model.Operation]uint64
	pendingMin time.Duration
	display    time.Duration
	notify     func(model.Operation, model.SendOutcome)
}

func newOutcomeTracker(pendingMin, display time.Duration, notify func(model.Operation, model.SendOutcome)) *outcomeTracker {
	return &outcomeTracker{
		outcomes:   make(map[model.Operation]model.SendOutcome),
		gens:       make(map[model.Operation]uint64),
		pendingMin: pendingMin,
		display:    display,
		notify:     notify,
	}
}

// track runs fn with op shown as pending for at least pendingMin
func (ot *outcomeTracker) track(ctx context.Context, op model.Operation, fn func(context.Context) error) error {
	gen := ot.begin(op)
	start := time.Now()

	err := fn(ctx)

	if rem := ot.pendingMin - time.Since(start); rem > 0 {
		timer := time.NewTimer(rem)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	ot.finish(op, gen, err)
	return err
}

func (ot *outcomeTracker) begin(op model.Operation) uint64 {
	ot.mu.Lock()
	ot.gens[op]++
	gen := ot.gens[op]
	outcome := model.SendOutcome{Pending: true}
	outcome = ot.set(op, outcome)
	ot.mu.Unlock()

	ot.emit(op, outcome)
	return gen
}

func (ot *outcomeTracker) finish(op model.Operation, gen uint64, err error) {
	ot.mu.Lock()
	if ot.gens[op] != gen {
		ot.mu.Unlock()
		return
	}
	outcome := model.SendOutcome{Succeeded: err == nil}
	if err != nil {
		outcome.LastError = err.Error()
	}
	outcome = ot.set(op, outcome)
	ot.mu.Unlock()

	ot.emit(op, outcome)

	if err == nil {
		time.AfterFunc(ot.display, func() { ot.reset(op, gen) })
	}
}

func (ot *outcomeTracker) reset(op model.Operation, gen uint64) {
	ot.mu.Lock()
	if ot.gens[op] != gen || !ot.outcomes[op].Succeeded {
		ot.mu.Unlock()
		return
	}
	outcome := model.SendOutcome{}
	outcome = ot.set(op, outcome)
	ot.mu.Unlock()

	ot.emit(op, outcome)
}

func (ot *outcomeTracker) set(op model.Operation, outcome model.SendOutcome) model.SendOutcome {
	now := time.Now()
	outcome.UpdatedAt = &now
	ot.outcomes[op] = outcome
	return outcome
}

func (ot *outcomeTracker) emit(op model.Operation, outcome model.SendOutcome) {
	if ot.notify != nil {
		ot.notify(op, outcome)
	}
}

// get returns the current outcome of op
func (ot *outcomeTracker) get(op model.Operation) model.SendOutcome {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	return ot.outcomes[op]
}

// all returns every operation's outcome, idle ones included
func (ot *outcomeTracker) all() map[model.Operation]model.SendOutcome {
	ot.mu.Lock()
	defer ot.mu.Unlock()

	out := make(map[model.Operation]model.SendOutcome, len(model.Operations))
	for _, op := range model.Operations {
		out[op] = ot.outcomes[op]
	}
	return out
}
