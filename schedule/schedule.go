package schedule

import (
	"sync"
	"time"
)

// Cancel stops a scheduled job. It is safe to call more than once.
type Cancel func()

// Scheduler runs jobs periodically or once after a delay.
type Scheduler interface {
	// Every calls fn every interval until cancelled.
	Every(interval time.Duration, fn func()) Cancel
	// After calls fn once after delay unless cancelled before.
	After(delay time.Duration, fn func()) Cancel
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// Clock is the wall clock implementation of Scheduler. All jobs are
// stopped by Stop; no job starts after Stop has returned.
type Clock struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
	stop    chan struct{}
	nextID  int
	pending map[int]*time.Timer
}

func NewClock() *Clock {
	return &Clock{
		stop:    make(chan struct{}),
		pending: make(map[int]*time.Timer),
	}
}

func (s *Clock) Now() time.Time {
	return time.Now()
}

func (s *Clock) Every(interval time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}

	done := make(chan struct{})
	var once sync.Once
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-done:
				return
			case <-ticker.C:
				// a stop may race with the tick, prefer the stop
				select {
				case <-s.stop:
					return
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

func (s *Clock) After(delay time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.wg.Add(1)
	s.pending[id] = time.AfterFunc(delay, func() {
		// whoever removes the job from pending owns the wg slot
		if !s.claim(id) {
			return
		}
		defer s.wg.Done()
		fn()
	})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if timer, ok := s.pending[id]; ok {
			timer.Stop()
			delete(s.pending, id)
			s.wg.Done()
		}
	}
}

// Stop cancels every job and waits for running jobs to return. Stop
// must not be called from inside a job.
func (s *Clock) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
		s.wg.Done()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Clock) claim(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok || s.stopped {
		return false
	}
	delete(s.pending, id)
	return true
}
