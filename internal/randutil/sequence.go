package randutil

import "sync"

// Sequence is a Source that replays a fixed list of values, then keeps
// returning the last one. It exists so tests can script first-player rolls
// and Easy moves exactly.
type Sequence struct {
	mu     sync.Mutex
	values []uint32
	index  int
}

// NewSequence returns a Sequence over values. An empty Sequence always yields 0.
func NewSequence(values ...uint32) *Sequence {
	return &Sequence{values: values}
}

// Uint32 returns the next scripted value.
func (s *Sequence) Uint32() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0
	}
	if s.index >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.index]
	s.index++
	return v
}

// Drawn reports how many scripted values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}
