package mocks

import (
	"strings"
	"sync"

	"github.com/mcoot/bullsgame/internal/dependencies/random"
)

// MockRandom replays queued results, safe to share with room goroutines.
// With an empty queue Intn returns 0 and String repeats the first
// character of the alphabet, so unscripted rounds still get a well-formed
// secret.
type MockRandom struct {
	mu            sync.Mutex
	intResults    []int
	stringResults []string
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom with empty queues
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued int, or 0
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.intResults) == 0 {
		return 0
	}
	v := r.intResults[0]
	r.intResults = r.intResults[1:]
	return v
}

// String returns the next queued string, or the first alphabet character
// repeated length times
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stringResults) == 0 {
		if alphabet == "" {
			return ""
		}
		return strings.Repeat(alphabet[:1], length)
	}
	v := r.stringResults[0]
	r.stringResults = r.stringResults[1:]
	return v
}

// QueueIntn appends results for Intn
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intResults = append(r.intResults, values...)
}

// QueueString appends results for String
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}

// Reset drops everything queued
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intResults = nil
	r.stringResults = nil
}
