package scheduler

import (
	"slices"

	"github.com/me/rrsched/pkg/model"
)

// LevelSnapshot lists the PIDs queued at one priority level, head first.
type LevelSnapshot struct {
	Priority int   `json:"priority"`
	PIDs     []int `json:"pids"`
}

// Snapshot is an immutable copy of scheduler state for observers.
type Snapshot struct {
	Quantum      int                     `json:"quantum"`
	Clock        int                     `json:"clock"`
	LastSeq      int                     `json:"last_seq"`
	CurrentLevel *int                    `json:"current_level,omitempty"`
	Levels       []LevelSnapshot         `json:"levels"`
	Completed    []model.CompletionEntry `json:"completed"`
	Pending      int                     `json:"pending"`
	Total        int                     `json:"total"`
}

// Drained reports whether processes were added and all of them completed.
func (sn Snapshot) Drained() bool {
	return sn.Total > 0 && sn.Pending == 0
}

// Snapshot returns a copy of the current state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked must be called with s.mu held.
func (s *Scheduler) snapshotLocked() Snapshot {
	sn := Snapshot{
		Quantum:   s.quantum,
		Clock:     s.clock,
		LastSeq:   len(s.trace),
		Levels:    make([]LevelSnapshot, 0, len(s.levels)),
		Completed: s.completedEntries(),
		Pending:   s.pendingLocked(),
		Total:     len(s.procs),
	}
	if s.draining {
		lvl := s.current
		sn.CurrentLevel = &lvl
	}
	for lvl, q := range s.levels {
		handles := q.Handles()
		pids := make([]int, len(handles))
		for i, h := range handles {
			pids[i] = s.procs[h].PID
		}
		sn.Levels = append(sn.Levels, LevelSnapshot{Priority: lvl, PIDs: pids})
	}
	slices.SortFunc(sn.Levels, func(a, b LevelSnapshot) int { return a.Priority - b.Priority })
	return sn
}

// snapshotIfWatched builds a snapshot only when someone is subscribed.
// Must be called with s.mu held.
func (s *Scheduler) snapshotIfWatched() *Snapshot {
	s.subMu.Lock()
	watched := len(s.subs) > 0
	s.subMu.Unlock()
	if !watched {
		return nil
	}
	sn := s.snapshotLocked()
	return &sn
}

// Subscribe registers an observer. The channel first receives the current
// state, then a snapshot after every AddProcess and Step. A slow observer
// never blocks the scheduler: when its buffer is full the oldest pending
// snapshot is dropped. cancel unregisters and closes the channel.
func (s *Scheduler) Subscribe(buffer int) (updates <-chan Snapshot, cancel func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	ch <- s.snapshotLocked()
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()
	s.mu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Scheduler) publish(sn Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- sn:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- sn:
		default:
		}
	}
}
