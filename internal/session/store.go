// Package session holds per-chat conversation state for the recipe flow.
// State is ephemeral: it lives in process memory and is dropped on restart.
package session

import (
	"sync"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
)

// Store is a chat-keyed conversation state store. Updates merge into the
// existing session; Clear drops the entry entirely so the next Get starts a
// fresh idle flow with no leaked fields.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]domain.Session),
	}
}

// Get returns the stored session for the chat, or a fresh idle session when
// none exists.
func (s *Store) Get(chatID int64) domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}
	return domain.NewSession()
}

// SetStep updates only the conversation step.
func (s *Store) SetStep(chatID int64, step domain.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(chatID)
	sess.Step = step
	s.sessions[chatID] = sess
}

// SetCount updates only the requested recipe count.
func (s *Store) SetCount(chatID int64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(chatID)
	sess.RequestedCount = count
	s.sessions[chatID] = sess
}

// SetSelection stores the sampled recipe ids, in sampled order.
func (s *Store) SetSelection(chatID int64, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(chatID)
	sess.SelectedRecipeIDs = append([]string(nil), ids...)
	s.sessions[chatID] = sess
}

// Clear resets the chat to a fresh idle session.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}

// Count returns the number of active sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func (s *Store) getLocked(chatID int64) domain.Session {
	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}
	return domain.NewSession()
}
