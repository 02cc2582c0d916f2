package metrics

import "sync"

// Memory keeps every series in process. Used in tests and local runs.
type Memory struct {
	mu           sync.Mutex
	values       map[string]float64
	observations map[string][]float64
}

// NewMemory creates an empty in-memory sink
func NewMemory() *Memory {
	return &Memory{
		values:       make(map[string]float64),
		observations: make(map[string][]float64),
	}
}

func (m *Memory) Inc(name string, tags Tags) {
	m.Add(name, 1, tags)
}

func (m *Memory) Add(name string, value float64, tags Tags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[seriesKey(name, tags)] += value
}

func (m *Memory) Observe(name string, seconds float64, tags Tags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seriesKey(name, tags)
	m.observations[key] = append(m.observations[key], seconds)
}

// Value returns the accumulated counter for an exact name and tag set
func (m *Memory) Value(name string, tags Tags) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[seriesKey(name, tags)]
}

// Observations returns how many timings were recorded for a series
func (m *Memory) Observations(name string, tags Tags) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observations[seriesKey(name, tags)])
}
