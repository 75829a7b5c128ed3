package game

// State is the single mutable game entity.
type State struct {
	PebblesCount      uint32     `json:"pebbles_count"`
	MaxPebblesPerTurn uint32     `json:"max_pebbles_per_turn"`
	PebblesRemaining  uint32     `json:"pebbles_remaining"`
	Difficulty        Difficulty `json:"difficulty"`
	FirstPlayer       Player     `json:"first_player"`
	Winner            *Player    `json:"winner"`
}

// newState builds a fresh game from cfg with the full pool and no winner.
func newState(cfg Config, first Player) State {
	return State{
		PebblesCount:      cfg.PebblesCount,
		MaxPebblesPerTurn: cfg.MaxPebblesPerTurn,
		PebblesRemaining:  cfg.PebblesCount,
		Difficulty:        cfg.Difficulty,
		FirstPlayer:       first,
	}
}

// Clone returns a deep copy; the winner pointer is not shared.
func (s State) Clone() State {
	if s.Winner != nil {
		w := *s.Winner
		s.Winner = &w
	}
	return s
}

// Concluded reports whether a winner has been decided.
func (s State) Concluded() bool {
	return s.Winner != nil
}

// Status returns InProgress or Concluded.
func (s State) Status() Status {
	if s.Concluded() {
		return Concluded
	}
	return InProgress
}

// remove takes n pebbles from the pool, saturating at zero.
func (s *State) remove(n uint32) {
	if n >= s.PebblesRemaining {
		s.PebblesRemaining = 0
		return
	}
	s.PebblesRemaining -= n
}

func (s *State) setWinner(p Player) {
	s.Winner = &p
}

// Store holds the one live game. It is empty until the first Replace.
//
// Store does no locking of its own: the Sequencer is its only writer and the
// layer above serializes operations.
type Store struct {
	state *State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Initialized reports whether a game has been stored.
func (st *Store) Initialized() bool {
	return st.state != nil
}

// Get returns the live state for in-place mutation.
func (st *Store) Get() (*State, error) {
	if st.state == nil {
		return nil, ErrNotInitialized
	}
	return st.state, nil
}

// Snapshot returns a copy of the live state.
func (st *Store) Snapshot() (State, error) {
	if st.state == nil {
		return State{}, ErrNotInitialized
	}
	return st.state.Clone(), nil
}

// Replace overwrites the slot with s. Used by Initialize and Restart only.
func (st *Store) Replace(s State) {
	c := s.Clone()
	if st.state == nil {
		st.state = &c
		return
	}
	*st.state = c
}
