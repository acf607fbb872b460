package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned completions in order and records prompts.
// When errAfter is set, the first errAfter calls succeed and later
// calls return err.
type scriptedLLM struct {
	replies  []string
	err      error
	errAfter int
	prompts  []string
	calls    int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.calls++
	if s.err != nil && s.calls > s.errAfter {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("scriptedLLM: no replies left")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func turn(role domain.Role, content string) domain.Turn {
	return domain.Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

func TestClassify_DomainQuestion(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"RAG_RELEVANT"}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "What programs does the center offer?", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRAGRelevant, got)
}

func TestClassify_GeneralQuestion(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"GENERAL_KNOWLEDGE"}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "How do I learn to code?", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassGeneralKnowledge, got)
}

func TestClassify_IdempotentForSameInput(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"RAG_RELEVANT", "RAG_RELEVANT"}}
	c := NewClassifier(llm)

	first, err := c.Classify(context.Background(), "what courses are there?", nil)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), "what courses are there?", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, llm.prompts[0], llm.prompts[1])
}

func TestClassify_ParsesLabelOutOfChatter(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"The label is: rag_relevant, because it mentions the center."}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "is the makerspace open?", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRAGRelevant, got)
}

func TestClassify_UnparseableDefaultsToUnclear(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"I cannot decide that for you."}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "hmm what about the weather then", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassUnclear, got)
}

func TestClassify_FuzzyOverrideOnUnclear(t *testing.T) {
	// A transcription typo on "coding school" still lands close enough.
	llm := &scriptedLLM{replies: []string{"UNCLEAR"}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "when does the codding school start", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRAGRelevant, got)
}

func TestClassify_FuzzyOverrideOnlyWhenUnclear(t *testing.T) {
	// The model's confident GENERAL_KNOWLEDGE label is respected even
	// though the text resembles a domain keyword.
	llm := &scriptedLLM{replies: []string{"GENERAL_KNOWLEDGE"}}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "what does a community center usually do", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassGeneralKnowledge, got)
}

func TestClassify_FollowUpInheritsDomainContext(t *testing.T) {
	llm := &scriptedLLM{}
	c := NewClassifier(llm)

	history := []domain.Turn{
		turn(domain.RoleUser, "Tell me about the center"),
		turn(domain.RoleAssistant, "The Digital Center offers a coding school and a fab lab."),
	}

	got, err := c.Classify(context.Background(), "tell me more", history)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRAGRelevant, got)
	assert.Zero(t, llm.calls, "follow-ups resolve without a model call")
}

func TestClassify_FollowUpWithoutHistoryIsUnclear(t *testing.T) {
	llm := &scriptedLLM{}
	c := NewClassifier(llm)

	got, err := c.Classify(context.Background(), "tell me more", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassUnclear, got)
	assert.Zero(t, llm.calls)
}

func TestClassify_FollowUpAfterOffTopicAnswerIsUnclear(t *testing.T) {
	llm := &scriptedLLM{}
	c := NewClassifier(llm)

	history := []domain.Turn{
		turn(domain.RoleUser, "what is rain"),
		turn(domain.RoleAssistant, "Rain is water falling from clouds."),
	}

	got, err := c.Classify(context.Background(), "what else", history)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassUnclear, got)
}

func TestClassify_ModelErrorSurfaced(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream timeout")}
	c := NewClassifier(llm)

	_, err := c.Classify(context.Background(), "what workshops run this week?", nil)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeUpstream, derr.Code)
}

func TestClassify_EmptyQuestion(t *testing.T) {
	c := NewClassifier(&scriptedLLM{})

	_, err := c.Classify(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 1.0, partialRatio("the coding school schedule", "coding school"))
	assert.GreaterOrEqual(t, partialRatio("codding school", "coding school"), 0.8)
	assert.Less(t, partialRatio("completely unrelated text", "coding school"), 0.5)
	assert.Equal(t, 0.0, partialRatio("anything", ""))
}
