// Package conversation provides the in-process conversation context store.
// Contexts do not survive restarts; persistence is deliberately out of scope.
package conversation

import (
	"sync"

	"github.com/kailas-cloud/knosis/internal/domain"
)

// Store registers conversations by id and serializes writers per conversation.
// The registry itself is guarded by a single mutex; mutation of an individual
// conversation requires holding the lock returned by Acquire for its id.
type Store struct {
	mu    sync.Mutex
	convs map[string]*domain.Conversation
	locks map[string]*sync.Mutex
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		convs: make(map[string]*domain.Conversation),
		locks: make(map[string]*sync.Mutex),
	}
}

// Put registers a conversation by its id, replacing any previous entry.
func (s *Store) Put(conv *domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID()] = conv
}

// Get returns the conversation for id, if registered.
func (s *Store) Get(id string) (*domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	return conv, ok
}

// Acquire locks the per-conversation mutex for id and returns the unlock
// function. Callers must hold the lock for the whole turn so concurrent chat
// calls on the same conversation cannot race on history appends.
func (s *Store) Acquire(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Delete removes a conversation and its lock from the registry.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
	delete(s.locks, id)
}

// Clear removes all conversations.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs = make(map[string]*domain.Conversation)
	s.locks = make(map[string]*sync.Mutex)
}

// Len returns the number of registered conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}
