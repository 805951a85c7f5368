package bot

import "sync"

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingName
	stateAwaitingURL
	stateActivated
)

// session is the per-chat conversation state. Handlers read a snapshot and
// write the whole record back, so concurrent messages from one chat are
// last-write-wins rather than a data race.
type session struct {
	state       sessionState
	companyName string
	threadID    string
	assistantID string
}

// sessionStore keeps conversation state per chat id. In-memory only; a
// restart drops sessions and users re-enter via /start or a deep link.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]session)}
}

// get returns a snapshot of the chat's session. An unknown chat yields the
// zero session (stateIdle).
func (s *sessionStore) get(chatID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[chatID]
}

func (s *sessionStore) set(chatID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = sess
}

func (s *sessionStore) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
