// internal/domain/homework/state.go
package homework

import (
	"sort"
	"sync"
)

// PollState is the in-memory state carried between poll iterations.
// It is discarded at process exit.
type PollState struct {
	mu              sync.RWMutex
	watermark       int64
	lastSeen        map[string]Status
	failureReported bool
}

// NewPollState creates a state whose first request asks for updates from watermark.
func NewPollState(watermark int64) *PollState {
	return &PollState{
		watermark: watermark,
		lastSeen:  make(map[string]Status),
	}
}

// Watermark returns the "from" timestamp for the next request.
func (s *PollState) Watermark() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark
}

// Advance moves the watermark to the server-reported date.
func (s *PollState) Advance(currentDate int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = currentDate
}

// Changed reports whether status differs from the last one seen for the submission.
// A submission never seen before counts as changed.
func (s *PollState) Changed(sub Submission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last, ok := s.lastSeen[sub.Name]
	return !ok || last != sub.Status
}

// Remember records the submission's status as last seen.
func (s *PollState) Remember(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[sub.Name] = sub.Status
}

// MarkFailureReported sets the one-shot failure flag and returns true if it was not set,
// i.e. the caller should notify the operator.
func (s *PollState) MarkFailureReported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failureReported {
		return false
	}
	s.failureReported = true
	return true
}

// ResetFailure clears the one-shot flag after a successful iteration.
// It returns true if a failure streak has just ended.
func (s *PollState) ResetFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.failureReported
	s.failureReported = false
	return was
}

// Snapshot is a read-only copy of PollState.
type Snapshot struct {
	Watermark   int64
	Submissions []Submission // sorted by name
	Failing     bool
}

func (s *PollState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]Submission, 0, len(s.lastSeen))
	for name, status := range s.lastSeen {
		subs = append(subs, Submission{Name: name, Status: status})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })

	return Snapshot{
		Watermark:   s.watermark,
		Submissions: subs,
		Failing:     s.failureReported,
	}
}
