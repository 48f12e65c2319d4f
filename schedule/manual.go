package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by Advance instead of the wall clock.
// Jobs run synchronously on the goroutine calling Advance, in due order.
// Tests use it to step the fade and the flash sequence deterministically.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	jobs   map[int]*manualJob
}

type manualJob struct {
	id       int
	due      time.Time
	interval time.Duration
	fn       func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start, jobs: make(map[int]*manualJob)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) Cancel {
	return m.add(interval, interval, fn)
}

func (m *Manual) After(delay time.Duration, fn func()) Cancel {
	return m.add(delay, 0, fn)
}

// Pending returns the number of scheduled jobs.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Advance moves the clock forward by d and runs every job falling due,
// including jobs scheduled by jobs within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		job := m.nextDue(target)
		if job == nil {
			break
		}
		job.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) add(delay, interval time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.jobs[id] = &manualJob{id: id, due: m.now.Add(delay), interval: interval, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// nextDue pops the earliest job due at or before target, advances the
// clock to its due time and reschedules it if it is periodic.
func (m *Manual) nextDue(target time.Time) *manualJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*manualJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if !job.due.After(target) {
			due = append(due, job)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})

	job := due[0]
	m.now = job.due
	if job.interval > 0 {
		next := *job
		next.due = job.due.Add(job.interval)
		m.jobs[job.id] = &next
	} else {
		delete(m.jobs, job.id)
	}
	return job
}
