package api

import (
	"context"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"stakingcore/core/events"
	"stakingcore/core/types"
)

// wireEvent is the feed's envelope: a uuid-tagged wrapper around one
// component event or validator-diff entry (SPEC_FULL.md §A.7).
type wireEvent struct {
	ID     string          `json:"id"`
	Height uint64          `json:"height"`
	Kind   string          `json:"kind"`
	Event  *types.Event    `json:"event,omitempty"`
	Diff   *validatorDiffV `json:"validator_diff,omitempty"`
}

type validatorDiffV struct {
	TdPubKey string `json:"td_pubkey"`
	NewPower uint64 `json:"new_power"`
}

// eventWithWire is satisfied by every concrete events.Event the core emits
// (see core/events/*.go), each carrying its own ad hoc Event() conversion to
// the JSON-safe wire shape.
type eventWithWire interface {
	Event() *types.Event
}

// notifyHub fans block-commit notifications out to websocket subscribers.
// Advisory only, per SPEC_FULL.md §A.7: no subscriber state feeds back into
// consensus.
type notifyHub struct {
	mu          sync.Mutex
	subscribers map[chan wireEvent]struct{}
}

func newNotifyHub() *notifyHub {
	return &notifyHub{subscribers: make(map[chan wireEvent]struct{})}
}

func (h *notifyHub) subscribe() chan wireEvent {
	ch := make(chan wireEvent, 64)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *notifyHub) unsubscribe(ch chan wireEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
	close(ch)
}

// publish fans out every domain event plus validator diff entry produced by
// one ProcessBlock call. Slow subscribers are dropped rather than blocking
// the publisher; this stream is advisory and never blocks block production.
func (h *notifyHub) publish(height uint64, evs []events.Event, diff []types.ValidatorUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subscribers) == 0 {
		return
	}
	for _, ev := range evs {
		wc, ok := ev.(eventWithWire)
		if !ok {
			continue
		}
		h.broadcastLocked(wireEvent{ID: uuid.NewString(), Height: height, Kind: ev.EventType(), Event: wc.Event()})
	}
	for _, d := range diff {
		h.broadcastLocked(wireEvent{
			ID:     uuid.NewString(),
			Height: height,
			Kind:   "validator_diff",
			Diff:   &validatorDiffV{TdPubKey: hex.EncodeToString(d.TdPubKey.Digest[:]), NewPower: d.NewPower},
		})
	}
}

func (h *notifyHub) broadcastLocked(w wireEvent) {
	for ch := range h.subscribers {
		select {
		case ch <- w:
		default:
			// subscriber too slow to keep up; drop rather than block.
		}
	}
}

func (s *Server) handleNotifyStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ch := s.notify.subscribe()
	defer s.notify.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
