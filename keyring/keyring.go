// Package keyring provides the key-value persistence primitive the client
// stores its credentials in: browser local storage on web, encrypted secure
// storage on mobile, an in-memory map where no persistent medium exists.
package keyring

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Read when the key has never been written or has
// been deleted.
var ErrNotFound = errors.New("keyring: key not found")

// KV abstracts platform storage behind read/write/delete.
type KV interface {
	Read(key string) (string, error)
	Write(key, value string) error
	Delete(key string) error
}

// Memory is a volatile KV for tests and platforms without persistent storage.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Read(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *Memory) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
