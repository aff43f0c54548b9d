package session

import (
	"sync"
	"time"
)

// Cancel releases a tick handle. It is safe to call more than once and never blocks.
type Cancel func()

// Scheduler hands out periodic tick handles
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

// TickerScheduler runs each handle on its own time.Ticker goroutine
type TickerScheduler struct{}

// Every calls fn every interval until the returned Cancel is called
func (TickerScheduler) Every(interval time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A cancel racing with the tick wins
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler fires ticks only when Advance is called. Useful for tests and
// for callers that drive the clock themselves.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	handles map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{handles: make(map[int]func())}
}

func (s *ManualScheduler) Every(_ time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handles[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.handles, id)
		s.mu.Unlock()
	}
}

// Advance fires every live handle n times, one round per tick
func (s *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		fns := make([]func(), 0, len(s.handles))
		for _, fn := range s.handles {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}

// Active returns the number of handles not yet cancelled
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
