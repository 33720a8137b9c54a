// internal/scheduler/registry.go
package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Registry arms one timer per job ID. Re-registering an ID replaces its
// pending timer, and a recurring job only re-arms after its callback
// returns, so two executions of the same ID can never overlap.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job

	// clock is a test seam for NextFire computations.
	clock func() time.Time
}

type job struct {
	id      string
	trigger Trigger
	fn      func()
	timer   *time.Timer
	next    time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		jobs:  make(map[string]*job),
		clock: time.Now,
	}
}

// Register arms jobID with trigger, replacing any pending registration under
// the same ID. It errors when the trigger has no future fire time.
func (r *Registry) Register(jobID string, trigger Trigger, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(jobID)

	next, ok := trigger.NextFire(r.clock())
	if !ok {
		return fmt.Errorf("job %s: trigger has no future fire time", jobID)
	}

	j := &job{id: jobID, trigger: trigger, fn: fn, next: next}
	j.timer = time.AfterFunc(time.Until(next), func() { r.fire(jobID) })
	r.jobs[jobID] = j
	return nil
}

// Deregister removes jobID. Removing an unknown or already-fired job is a
// silent no-op; double-deletes happen in normal operation.
func (r *Registry) Deregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(jobID)
}

func (r *Registry) removeLocked(jobID string) {
	if j, ok := r.jobs[jobID]; ok {
		j.timer.Stop()
		delete(r.jobs, jobID)
	}
}

// NextFire reports the pending fire time for jobID, if registered.
func (r *Registry) NextFire(jobID string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return time.Time{}, false
	}
	return j.next, true
}

// Registered reports whether jobID currently has a pending timer.
func (r *Registry) Registered(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[jobID]
	return ok
}

// Stop cancels every pending timer. Callbacks already running are not
// interrupted.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.jobs {
		r.removeLocked(id)
	}
}

func (r *Registry) fire(jobID string) {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok {
		// Deregistered between timer expiry and execution.
		r.mu.Unlock()
		return
	}
	if !j.trigger.Recurring() {
		delete(r.jobs, jobID)
	}
	fn := j.fn
	r.mu.Unlock()

	// Run outside the lock; Register/Deregister stay usable from callbacks.
	fn()

	if !j.trigger.Recurring() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, still := r.jobs[jobID]; !still || current != j {
		// Deregistered or replaced while the callback ran.
		return
	}
	next, ok := j.trigger.NextFire(r.clock())
	if !ok {
		log.Printf("[Scheduler] job %s: no further fire times, removing", jobID)
		delete(r.jobs, jobID)
		return
	}
	j.next = next
	j.timer = time.AfterFunc(time.Until(next), func() { r.fire(jobID) })
}
