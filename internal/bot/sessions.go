package bot

import (
	"sync"

	"gitlab.com/yelinaung/contract-bot/internal/conversation"
)

// chatSession serializes events for one chat.
type chatSession struct {
	mu      sync.Mutex
	session *conversation.Session
	dropped bool
}

// sessionStore keeps one dialogue per chat. Ended dialogues are dropped.
type sessionStore struct {
	mu    sync.Mutex
	chats map[int64]*chatSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{chats: make(map[int64]*chatSession)}
}

// acquire returns the chat's session locked. Callers must release it.
func (s *sessionStore) acquire(chatID int64) *chatSession {
	for {
		s.mu.Lock()
		cs, ok := s.chats[chatID]
		if !ok {
			cs = &chatSession{session: conversation.NewSession()}
			s.chats[chatID] = cs
		}
		s.mu.Unlock()

		cs.mu.Lock()
		if !cs.dropped {
			return cs
		}
		// Dropped while we waited; start over with a fresh entry.
		cs.mu.Unlock()
	}
}

// release unlocks cs and forgets it when its dialogue has ended.
func (s *sessionStore) release(chatID int64, cs *chatSession) {
	if cs.session.Done() {
		s.mu.Lock()
		if s.chats[chatID] == cs {
			delete(s.chats, chatID)
		}
		s.mu.Unlock()
		cs.dropped = true
	}
	cs.mu.Unlock()
}

func (s *sessionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}
