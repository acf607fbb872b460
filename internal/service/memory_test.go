package service

import (
	"fmt"
	"testing"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendAndHistoryOrder(t *testing.T) {
	m := NewMemory(10)
	m.AppendExchange("what is the fab lab?", "a digital fabrication workshop")

	turns := m.History(0)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestMemory_WindowDropsOldestFirst(t *testing.T) {
	m := NewMemory(4)
	for i := 0; i < 5; i++ {
		m.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := m.History(0)
	require.Len(t, turns, 4)
	assert.Equal(t, "q3", turns[0].Content)
	assert.Equal(t, "a4", turns[3].Content)
}

func TestMemory_HistoryLimit(t *testing.T) {
	m := NewMemory(10)
	m.AppendExchange("q1", "a1")
	m.AppendExchange("q2", "a2")

	turns := m.History(2)
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].Content)
	assert.Equal(t, "a2", turns[1].Content)
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory(10)
	m.AppendExchange("q", "a")
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.History(0))

	_, ok := m.Last()
	assert.False(t, ok)
}

func TestMemory_Last(t *testing.T) {
	m := NewMemory(10)
	m.AppendExchange("q", "a")

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, domain.RoleAssistant, last.Role)
	assert.Equal(t, "a", last.Content)
}

func TestMemory_HistoryIsACopy(t *testing.T) {
	m := NewMemory(10)
	m.AppendExchange("q", "a")

	turns := m.History(0)
	turns[0].Content = "mutated"

	assert.Equal(t, "q", m.History(0)[0].Content)
}
