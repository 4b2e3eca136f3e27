package progress

import (
	"sync"

	"papercast/internal/jobs"
)

const defaultBuffer = 16

// Hub fans job snapshots out to per-job subscribers. Publishing never blocks:
// when a subscriber's buffer is full the oldest queued snapshot is discarded
// to make room, so a slow reader sees a thinned but still ordered sequence
// and always receives the terminal snapshot.
type Hub struct {
	mu     sync.Mutex
	buffer int
	states map[string]*jobState
}

type jobState struct {
	latest   jobs.Snapshot
	terminal bool
	subs     map[*subscriber]struct{}
}

type subscriber struct {
	ch     chan jobs.Snapshot
	closed bool
}

// NewHub constructs a hub whose subscriber channels buffer the given number
// of snapshots.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{buffer: buffer, states: make(map[string]*jobState)}
}

// Publish records the snapshot as the job's latest state and delivers it to
// every subscriber. A terminal snapshot additionally closes all subscriber
// channels after delivery.
func (h *Hub) Publish(snap jobs.Snapshot) {
	if h == nil {
		return
	}
	snap = snap.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[snap.ID]
	if !ok {
		state = &jobState{subs: make(map[*subscriber]struct{})}
		h.states[snap.ID] = state
	}
	if state.terminal {
		return
	}
	state.latest = snap
	state.terminal = snap.Status.IsTerminal()

	for sub := range state.subs {
		sub.send(snap)
		if state.terminal {
			sub.close()
		}
	}
	if state.terminal {
		state.subs = make(map[*subscriber]struct{})
	}
}

// Peek returns the most recent snapshot published for the job.
func (h *Hub) Peek(jobID string) (jobs.Snapshot, bool) {
	if h == nil {
		return jobs.Snapshot{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.states[jobID]
	if !ok || state.latest.ID == "" {
		return jobs.Snapshot{}, false
	}
	return state.latest.Clone(), true
}

// Subscribe registers a listener for a job's snapshots. The job's current
// snapshot is delivered first; if the job already finished, the channel
// yields the terminal snapshot and is closed immediately. The cancel
// function must be called when the listener stops reading. The final return
// reports whether the hub knows the job at all.
func (h *Hub) Subscribe(jobID string) (<-chan jobs.Snapshot, func(), bool) {
	if h == nil {
		return nil, func() {}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[jobID]
	if !ok {
		return nil, func() {}, false
	}

	sub := &subscriber{ch: make(chan jobs.Snapshot, h.buffer)}
	sub.send(state.latest)
	if state.terminal {
		sub.close()
		return sub.ch, func() {}, true
	}

	state.subs[sub] = struct{}{}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if current, exists := h.states[jobID]; exists {
			delete(current.subs, sub)
		}
		sub.close()
	}
	return sub.ch, cancel, true
}

// send enqueues a snapshot without blocking, evicting the oldest queued
// snapshot when the buffer is full.
func (s *subscriber) send(snap jobs.Snapshot) {
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *subscriber) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
