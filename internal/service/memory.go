package service

import (
	"time"

	"github.com/odclabs/kiosk/internal/domain"
)

// Memory is a bounded, ordered log of conversation turns. The window
// caps prompt size: once full, the oldest turns drop first.
//
// Each session keeps two independent Memory instances, one for grounded
// conversation and one for general chat, so switching topic category
// does not leak unrelated context into the next prompt.
type Memory struct {
	window int
	turns  []domain.Turn
}

// DefaultHistoryWindow bounds history to three exchanges.
const DefaultHistoryWindow = 6

func NewMemory(window int) *Memory {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Memory{window: window}
}

// Append records a turn, evicting the oldest when the window is full.
func (m *Memory) Append(turn domain.Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.window {
		m.turns = m.turns[len(m.turns)-m.window:]
	}
}

// AppendExchange records a question/answer pair as two turns.
func (m *Memory) AppendExchange(question, answer string) {
	now := time.Now().UTC()
	m.Append(domain.Turn{Role: domain.RoleUser, Content: question, Timestamp: now})
	m.Append(domain.Turn{Role: domain.RoleAssistant, Content: answer, Timestamp: now})
}

// History returns up to limit most recent turns in chronological order.
// limit <= 0 returns the whole window.
func (m *Memory) History(limit int) []domain.Turn {
	turns := m.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Last returns the most recent turn, if any.
func (m *Memory) Last() (domain.Turn, bool) {
	if len(m.turns) == 0 {
		return domain.Turn{}, false
	}
	return m.turns[len(m.turns)-1], true
}

// Clear drops all turns.
func (m *Memory) Clear() {
	m.turns = nil
}

// Len reports the number of retained turns.
func (m *Memory) Len() int {
	return len(m.turns)
}
