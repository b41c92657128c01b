package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

type Step int

const (
	StepIdle Step = iota
	StepTarotQuestion
	StepTarotCardCount
	StepTarotDrawing
	StepOwnDeckLayout
	StepOwnDeckQuestion
	StepOwnDeckCards
	StepOwnDeckInterpreting
	StepDiaryContent
)

var stepNames = map[Step]string{
	StepIdle:                "idle",
	StepTarotQuestion:       "tarot_question",
	StepTarotCardCount:      "tarot_card_count",
	StepTarotDrawing:        "tarot_drawing",
	StepOwnDeckLayout:       "own_deck_layout",
	StepOwnDeckQuestion:     "own_deck_question",
	StepOwnDeckCards:        "own_deck_cards",
	StepOwnDeckInterpreting: "own_deck_interpreting",
	StepDiaryContent:        "diary_content",
}

func (step Step) String() string {
	if name, ok := stepNames[step]; ok {
		return name
	}
	return "unknown"
}

// Generating reports whether a generation call is in flight for the step.
func (step Step) Generating() bool {
	return step == StepTarotDrawing || step == StepOwnDeckInterpreting
}

type SessionKey struct {
	UserID int64
	ChatID int64
}

// Dialog is the scratch state of the active flow. Token identifies one
// started flow so late results of a replaced or canceled flow are dropped.
type Dialog struct {
	Step     Step
	Token    uuid.UUID
	Question string
	Spread   tarot.Spread
}

func (dialog Dialog) Active() bool {
	return dialog.Step != StepIdle
}

type Session struct {
	Dialog           Dialog
	LastTarotReading string
	LastDailyEnergy  string
}

const (
	DefaultSessionIdleTTL = 24 * time.Hour
	sessionPruneInterval  = 10 * time.Minute
)

type sessionEntry struct {
	session  Session
	lastSeen time.Time
}

// SessionStore keeps per-conversation state in memory only. Conversations
// untouched for longer than the idle TTL are dropped.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[SessionKey]*sessionEntry
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithTTL(DefaultSessionIdleTTL)
}

func NewSessionStoreWithTTL(idleTTL time.Duration) *SessionStore {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	return &SessionStore{
		sessions: make(map[SessionKey]*sessionEntry),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Get returns a copy; a conversation that never started yields a zero Session.
func (store *SessionStore) Get(key SessionKey) Session {
	store.mu.Lock()
	defer store.mu.Unlock()

	if session, ok := store.lookupLocked(key); ok {
		return *session
	}
	return Session{}
}

// Start replaces any active dialog with initial under a fresh token.
func (store *SessionStore) Start(key SessionKey, initial Dialog) Dialog {
	store.mu.Lock()
	defer store.mu.Unlock()

	session := store.sessionLocked(key)
	initial.Token = uuid.New()
	session.Dialog = initial
	return session.Dialog
}

// Advance applies mutate to the dialog if token still identifies it and the
// dialog is still at step from.
func (store *SessionStore) Advance(key SessionKey, token uuid.UUID, from Step, mutate func(*Dialog)) (Dialog, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.lookupLocked(key)
	if !ok || session.Dialog.Token != token || !session.Dialog.Active() || session.Dialog.Step != from {
		return Dialog{}, false
	}
	mutate(&session.Dialog)
	return session.Dialog, true
}

// Finish ends the dialog identified by token and applies result to the
// session. It reports false when the dialog was canceled or replaced.
func (store *SessionStore) Finish(key SessionKey, token uuid.UUID, result func(*Session)) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.lookupLocked(key)
	if !ok || session.Dialog.Token != token || !session.Dialog.Active() {
		return false
	}
	session.Dialog = Dialog{}
	if result != nil {
		result(session)
	}
	return true
}

// Cancel discards the active dialog and reports whether one existed.
func (store *SessionStore) Cancel(key SessionKey) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.lookupLocked(key)
	if !ok || !session.Dialog.Active() {
		return false
	}
	session.Dialog = Dialog{}
	return true
}

func (store *SessionStore) Update(key SessionKey, mutate func(*Session)) {
	store.mu.Lock()
	defer store.mu.Unlock()
	mutate(store.sessionLocked(key))
}

// Prune drops conversations idle for longer than the TTL and returns how
// many were removed.
func (store *SessionStore) Prune() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.pruneLocked(store.now())
}

func (store *SessionStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.sessions)
}

func (store *SessionStore) lookupLocked(key SessionKey) (*Session, bool) {
	now := store.now()
	store.maybePruneLocked(now)

	entry, ok := store.sessions[key]
	if !ok {
		return nil, false
	}
	entry.lastSeen = now
	return &entry.session, true
}

func (store *SessionStore) sessionLocked(key SessionKey) *Session {
	if session, ok := store.lookupLocked(key); ok {
		return session
	}
	entry := &sessionEntry{lastSeen: store.now()}
	store.sessions[key] = entry
	return &entry.session
}

func (store *SessionStore) maybePruneLocked(now time.Time) {
	if now.Sub(store.lastPrune) < sessionPruneInterval {
		return
	}
	store.pruneLocked(now)
}

func (store *SessionStore) pruneLocked(now time.Time) int {
	store.lastPrune = now
	removed := 0
	for key, entry := range store.sessions {
		if now.Sub(entry.lastSeen) > store.idleTTL {
			delete(store.sessions, key)
			removed++
		}
	}
	return removed
}
