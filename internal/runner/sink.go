package runner

import (
	"context"

	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/pkg/model"
)

// batchSink buffers trace events and writes them to the store in batches.
// The first store error is kept and later events are only counted.
type batchSink struct {
	ctx   context.Context
	store store.Store
	runID string
	buf   []model.Event
	count int
	err   error
}

func newBatchSink(ctx context.Context, st store.Store, runID string) *batchSink {
	return &batchSink{
		ctx:   ctx,
		store: st,
		runID: runID,
		buf:   make([]model.Event, 0, BatchSize),
	}
}

func (b *batchSink) Emit(ev model.Event) {
	b.count++
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, ev)
	if len(b.buf) >= BatchSize {
		b.flush()
	}
}

func (b *batchSink) flush() error {
	if b.err == nil && len(b.buf) > 0 {
		b.err = b.store.AppendEvents(b.ctx, b.runID, b.buf)
		b.buf = b.buf[:0]
	}
	return b.err
}
