package config

import "sync/atomic"

// Store holds the current configuration snapshot and supports atomic
// reload. Readers always see a complete snapshot; a failed reload leaves
// the previous snapshot in place.
type Store struct {
	path string
	cur  atomic.Pointer[Config]
}

// NewStore loads the initial configuration from path (empty path means
// defaults plus environment only).
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.cur.Store(cfg)
	return s, nil
}

// NewStaticStore wraps a fixed Config. Used by tests.
func NewStaticStore(cfg *Config) *Store {
	s := &Store{}
	s.cur.Store(cfg)
	return s
}

// Current returns the active configuration snapshot.
func (s *Store) Current() *Config {
	return s.cur.Load()
}

// Reload re-reads configuration from the original sources and swaps it in.
// Core moderation state is untouched.
func (s *Store) Reload() (*Config, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.cur.Store(cfg)
	return cfg, nil
}
