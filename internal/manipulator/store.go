package manipulator

import "sync"

// Store is the single mutable manipulation state for the process. The
// shell loop is the only writer; server connection goroutines read it
// through Next, so every access goes through the mutex and the config
// is only ever swapped as a whole value.
type Store struct {
	mu      sync.Mutex
	cfg     Config
	applied int
}

func NewStore() *Store {
	return &Store{cfg: DefaultConfig()}
}

// Replace swaps in a config built from defaults plus the update and
// restarts the clear_after countdown. It returns the adopted config.
func (s *Store) Replace(u Update) Config {
	cfg := FromUpdate(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.applied = 0
	return cfg
}

// Current returns the config as last replaced, without consuming a
// clear_after slot.
func (s *Store) Current() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Next returns the config to apply to one response and advances the
// clear_after countdown. Only manipulated responses count; once
// clear_after manipulations have been handed out the mode reverts to
// normal.
func (s *Store) Next() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	if cfg.Mode == ModeNormal {
		return cfg
	}
	s.applied++
	if cfg.ClearAfter > 0 && s.applied >= cfg.ClearAfter {
		s.cfg.Mode = ModeNormal
		s.applied = 0
	}
	return cfg
}
