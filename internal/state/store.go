package state

import (
	"errors"
	"sync"
	"time"
)

const maxNotices = 50

// Notice is one user-facing error report.
type Notice struct {
	Source string
	Err    error
	At     time.Time
}

// Snapshot represents the latest health data available to the UI.
type Snapshot struct {
	Notices             []Notice // oldest first
	LastPoll            time.Time
	LastPollError       error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Latest returns the most recent notice.
func (s Snapshot) Latest() (Notice, bool) {
	if len(s.Notices) == 0 {
		return Notice{}, false
	}
	return s.Notices[len(s.Notices)-1], true
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Report records a user-facing error. It satisfies the controllers'
// Reporter interfaces.
func (s *Store) Report(source string, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Notices = append(s.snapshot.Notices, Notice{Source: source, Err: err, At: s.clock()})
	if over := len(s.snapshot.Notices) - maxNotices; over > 0 {
		s.snapshot.Notices = append([]Notice(nil), s.snapshot.Notices[over:]...)
	}
}

// DismissNotices clears the notice list.
func (s *Store) DismissNotices() {
	s.mu.Lock()
	s.snapshot.Notices = nil
	s.mu.Unlock()
}

// RecordPoll tracks the outcome of one poll tick. When err is non-nil the
// failure counter grows, otherwise it resets.
func (s *Store) RecordPoll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastPoll = s.clock()
	if err != nil {
		s.snapshot.LastPollError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastPollError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if len(s.snapshot.Notices) > 0 {
		snap.Notices = append([]Notice(nil), s.snapshot.Notices...)
	}
	if s.snapshot.LastPollError != nil {
		snap.LastPollError = errors.Join(s.snapshot.LastPollError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
