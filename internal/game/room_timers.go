// internal/game/room_timers.go
package game

import (
	"math/rand"
	"sync"
	"time"
)

// rng backs the room machinery's random picks (auto-submit, auto-select,
// judging shuffle). Guarded because timers for different rooms fire on
// arbitrary goroutines.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

func shuffleSubmissions(subs []*Submission) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng.Shuffle(len(subs), func(i, j int) {
		subs[i], subs[j] = subs[j], subs[i]
	})
}

// scheduleTimer arms the room's single pending phase timer, atomically
// superseding any previous one: the epoch bump makes a stale callback a
// no-op even if it was already racing for the lock. fire runs with the
// lock held. When ticks is set, a per-second time_remaining countdown is
// broadcast until the deadline or the epoch moves on.
//
// Lock must be held.
func (r *Room) scheduleTimer(d time.Duration, ticks bool, fire func()) {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
	}
	r.timerEpoch++
	epoch := r.timerEpoch
	r.deadline = time.Now().Add(d)

	r.phaseTimer = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		defer func() {
			// a faulty transition fails this room's operation only
			if rec := recover(); rec != nil {
				r.log.WithField("panic", rec).Error("recovered panic in timer transition")
			}
		}()
		if r.timerEpoch != epoch {
			return // superseded by a later phase transition
		}
		fire()
	})

	if ticks {
		go r.tickLoop(epoch)
	}
}

// cancelTimer stops the pending timer and invalidates any in-flight
// callback for it. Lock must be held.
func (r *Room) cancelTimer() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	r.timerEpoch++
}

// tickLoop broadcasts whole-second countdown updates for the deadline
// belonging to epoch. It exits as soon as the epoch is superseded.
func (r *Room) tickLoop(epoch int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		r.mu.Lock()
		if r.timerEpoch != epoch {
			r.mu.Unlock()
			return
		}
		left := int(time.Until(r.deadline).Round(time.Second).Seconds())
		if left <= 0 {
			r.mu.Unlock()
			return
		}
		r.fireEvent(Event{
			Type:    EventTimeRemaining,
			Payload: map[string]interface{}{"seconds": left},
		})
		r.mu.Unlock()
	}
}
