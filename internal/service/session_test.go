package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odclabs/kiosk/internal/domain"
)

func newTestSessionManager(ttl time.Duration) *SessionManager {
	factory := func() *Pipeline {
		return NewPipeline(NewClassifier(&scriptedLLM{}), &stubRetriever{}, NewGenerator(&scriptedLLM{}), PipelineConfig{})
	}
	return NewSessionManager(factory, ttl)
}

func TestSessionManagerCreateAndGet(t *testing.T) {
	m := newTestSessionManager(time.Hour)
	lang, _ := domain.LanguageByCode("fr")

	s := m.Create(lang)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "fr", s.CurrentLanguage().Code)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestSessionManagerGetUnknown(t *testing.T) {
	m := newTestSessionManager(time.Hour)

	_, err := m.Get("no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManagerGetOrCreate(t *testing.T) {
	m := newTestSessionManager(time.Hour)
	en, _ := domain.LanguageByCode("en")

	s := m.GetOrCreate("", en)
	require.NotNil(t, s)

	same := m.GetOrCreate(s.ID, en)
	assert.Same(t, s, same)

	fresh := m.GetOrCreate("expired-id", en)
	assert.NotEqual(t, s.ID, fresh.ID)
	assert.Equal(t, 2, m.Len())
}

func TestSessionManagerEvictIdle(t *testing.T) {
	m := newTestSessionManager(10 * time.Minute)
	en, _ := domain.LanguageByCode("en")

	now := time.Now()
	m.now = func() time.Time { return now }

	stale := m.Create(en)
	now = now.Add(11 * time.Minute)
	active := m.Create(en)

	evicted := m.EvictIdle()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, m.Len())

	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestSessionSetLanguageKeepsHistory(t *testing.T) {
	m := newTestSessionManager(time.Hour)
	en, _ := domain.LanguageByCode("en")
	ar, _ := domain.LanguageByCode("ar")

	s := m.Create(en)
	s.Pipeline.generalMem.AppendExchange("hello", "hi there")

	s.SetLanguage(ar)
	assert.Equal(t, "ar", s.CurrentLanguage().Code)
	assert.Equal(t, 2, s.Pipeline.generalMem.Len())
}
