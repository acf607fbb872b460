package domain

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a session's conversation history.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Classification is the per-question decision of whether grounded
// retrieval is needed. It is ephemeral and never persisted.
type Classification string

const (
	// ClassRAGRelevant means the question is about the center and
	// should be answered from retrieved passages.
	ClassRAGRelevant Classification = "RAG_RELEVANT"
	// ClassGeneralKnowledge means the question is answerable without
	// domain grounding.
	ClassGeneralKnowledge Classification = "GENERAL_KNOWLEDGE"
	// ClassUnclear is the defensive default when intent cannot be
	// determined.
	ClassUnclear Classification = "UNCLEAR"
)

// ParseClassification maps raw model output to a Classification,
// defaulting to ClassUnclear for anything outside the label set.
func ParseClassification(s string) Classification {
	switch Classification(s) {
	case ClassRAGRelevant, ClassGeneralKnowledge, ClassUnclear:
		return Classification(s)
	default:
		return ClassUnclear
	}
}

// Response is what the pipeline returns to the caller for one question.
type Response struct {
	AnswerText string
	Sources    []string
	Language   string
}
