package api

import (
	"sync"

	"github.com/google/uuid"

	"stakingcore/core/types"
)

// submissionQueue buffers gated operations accepted by the
// governance-submission endpoint until the block loop's next ProcessBlock
// call includes them in ops (spec.md §5: state is mutated only between
// begin_block and end_block, so an HTTP handler may never apply an
// operation directly against the live snapshot).
type submissionQueue struct {
	mu      sync.Mutex
	pending []queuedOp
}

type queuedOp struct {
	id string
	op types.Operation
}

func newSubmissionQueue() *submissionQueue {
	return &submissionQueue{}
}

func (q *submissionQueue) enqueue(op types.Operation) string {
	id := uuid.NewString()
	q.mu.Lock()
	q.pending = append(q.pending, queuedOp{id: id, op: op})
	q.mu.Unlock()
	return id
}

// Drain returns and clears every operation queued since the last call, in
// submission order. The caller (the block loop) is responsible for passing
// these into Driver.ProcessBlock alongside any ledger-submitted ops.
func (q *submissionQueue) Drain() []types.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := make([]types.Operation, len(q.pending))
	for i, p := range q.pending {
		out[i] = p.op
	}
	q.pending = nil
	return out
}
