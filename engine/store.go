package engine

// Store is the strategy-scoped key-value state that survives across bars.
// It is owned by the run, handed to the strategy through every BarContext,
// and kept strictly separate from the portfolio ledger.
type Store struct {
	values map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Get returns the value for key.
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key.
func (s *Store) Set(key string, v any) {
	s.values[key] = v
}

// Delete removes key.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *Store) Len() int { return len(s.values) }
