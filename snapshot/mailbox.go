package snapshot

import "sync"

// Mailbox is a single-slot, latest-wins handoff of ecosystem snapshots
// from a producer goroutine to the render loop.
type Mailbox struct {
	mu      sync.Mutex
	latest  *Ecosystem
	puts    uint64
	dropped uint64
}

// Put stores eco as the pending snapshot, replacing any unconsumed one.
func (m *Mailbox) Put(eco *Ecosystem) {
	m.mu.Lock()
	if m.latest != nil {
		m.dropped++
	}
	m.latest = eco
	m.puts++
	m.mu.Unlock()
}

// Take returns the pending snapshot and clears the slot.
// The second result is false when nothing arrived since the last Take.
func (m *Mailbox) Take() (*Ecosystem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eco := m.latest
	m.latest = nil
	return eco, eco != nil
}

// Counts returns how many snapshots were put and how many were overwritten
// before being taken.
func (m *Mailbox) Counts() (puts, dropped uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts, m.dropped
}
