package app

import (
	"context"

	"quote_spider/internal/models"
)

// Future is the eventual outcome of one run. It resolves exactly once.
type Future struct {
	id   string
	done chan struct{}

	// written once before done is closed
	state   models.RunState
	records []models.Record
	err     error
}

func newFuture(id string) *Future {
	return &Future{
		id:    id,
		done:  make(chan struct{}),
		state: models.RunStateRunning,
	}
}

func (f *Future) ID() string {
	return f.id
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) State() models.RunState {
	select {
	case <-f.done:
		return f.state
	default:
		return models.RunStateRunning
	}
}

// Wait blocks until the run terminates or ctx is done. ctx bounds only the
// wait; it does not cancel the run.
func (f *Future) Wait(ctx context.Context) ([]models.Record, error) {
	select {
	case <-f.done:
		return f.records, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking, or ErrRunPending.
func (f *Future) Result() ([]models.Record, error) {
	select {
	case <-f.done:
		return f.records, f.err
	default:
		return nil, ErrRunPending
	}
}

func (f *Future) complete(records []models.Record) {
	f.state = models.RunStateCompleted
	f.records = records
	close(f.done)
}

func (f *Future) fail(err error) {
	f.state = models.RunStateFailed
	f.err = err
	close(f.done)
}
