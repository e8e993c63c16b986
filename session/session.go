package session

import (
	"sync"
	"time"

	"book_creator/delivery"
	"book_creator/generator"
)

// State is where the latest submission of one form stands.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitted  State = "submitted"
	StateExtracting State = "extracting"
	StateFormatting State = "formatting"
	StateGenerating State = "generating"
	StateRendering  State = "rendering"
	StateRendered   State = "rendered"
	StateFailed     State = "failed"
)

// Result is a successful run: what was asked, what came back and what was
// delivered.
type Result struct {
	Kind        delivery.Kind                `json:"kind"`
	Generation  *generator.GenerationRequest `json:"generation,omitempty"`
	Filename    string                       `json:"filename,omitempty"`
	Instruction string                       `json:"instruction,omitempty"`
	SourcePages int                          `json:"source_pages,omitempty"`
	Completion  generator.Completion         `json:"completion"`
	Pages       int                          `json:"pages"`
	FinishedAt  time.Time                    `json:"finished_at"`
}

// Slot tracks one form. Result is the last success and survives later
// failures; Err belongs to the latest submission only.
type Slot struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	err       error
}

// Err is the failure of the latest submission, if any.
func (s Slot) Err() error { return s.err }

// Session 持有一个用户的生成/编辑结果，不与其他 session 共享。
type Session struct {
	ID string

	// run serialises interactions within the session.
	run sync.Mutex

	mu         sync.RWMutex
	generation Slot
	edit       Slot
	lastSeen   time.Time
	// last generation request, kept for diagnostics even when it failed
	request *generator.GenerationRequest
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		generation: Slot{State: StateIdle, UpdatedAt: now},
		edit:       Slot{State: StateIdle, UpdatedAt: now},
		lastSeen:   now,
	}
}

// Snapshot is a copy of both slots.
type Snapshot struct {
	ID         string `json:"session_id"`
	Generation Slot   `json:"generation"`
	Edit       Slot   `json:"edit"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{ID: s.ID, Generation: s.generation, Edit: s.edit}
}

func (s *Session) slot(kind delivery.Kind) *Slot {
	if kind == delivery.KindEdited {
		return &s.edit
	}
	return &s.generation
}

func (s *Session) setState(kind delivery.Kind, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	sl.State = state
	sl.UpdatedAt = time.Now()
	if state == StateSubmitted {
		sl.Error = ""
		sl.err = nil
	}
}

func (s *Session) fail(kind delivery.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	sl.State = StateFailed
	sl.Error = err.Error()
	sl.err = err
	sl.UpdatedAt = time.Now()
}

func (s *Session) succeed(kind delivery.Kind, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	sl.State = StateRendered
	sl.Result = res
	sl.UpdatedAt = res.FinishedAt
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
