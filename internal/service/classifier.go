package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/odclabs/kiosk/internal/domain"
)

// DefaultDomainKeywords name the institution and its programs. Voice
// transcription mangles these often enough that exact matching is
// useless; they feed the fuzzy override instead.
var DefaultDomainKeywords = []string{
	"digital center",
	"the center",
	"coding school",
	"fab lab",
	"fablab",
	"centre",
	"école de codage",
	"المركز",
	"الرقمي",
}

// followUpPhrases are short continuations that carry no topic of their
// own; they inherit relevance from the previous assistant turn.
var followUpPhrases = []string{
	"tell me more",
	"what else",
	"more please",
	"and then",
	"go on",
	"continue",
	"dis m'en plus",
	"quoi d'autre",
	"encore",
	"زيد",
	"شنو من بعد",
	"كمل",
}

const (
	classifierTemperature = 0.0
	classifierMaxTokens   = 8

	// fuzzyOverrideThreshold gates the keyword override. It fires only
	// when the model alone came back UNCLEAR.
	fuzzyOverrideThreshold = 0.8
)

var labelPattern = regexp.MustCompile(`\b(RAG_RELEVANT|GENERAL_KNOWLEDGE|UNCLEAR)\b`)

// Classifier decides whether a question needs grounded retrieval. It is
// state-free; history arrives per call.
type Classifier struct {
	llm      CompletionClient
	keywords []string
}

func NewClassifier(llm CompletionClient) *Classifier {
	return NewClassifierWithKeywords(llm, DefaultDomainKeywords)
}

func NewClassifierWithKeywords(llm CompletionClient, keywords []string) *Classifier {
	return &Classifier{llm: llm, keywords: keywords}
}

// Classify labels a question as RAG_RELEVANT, GENERAL_KNOWLEDGE, or
// UNCLEAR. Failures of the model call surface to the caller; parse
// failures do not, they default to UNCLEAR.
func (c *Classifier) Classify(ctx context.Context, question string, history []domain.Turn) (domain.Classification, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ClassUnclear, domain.ErrEmptyQuestion
	}

	// Bare follow-ups have no topic of their own. Resolve them from
	// history before spending a model call.
	if isFollowUp(question) {
		if c.historyReferencesDomain(history) {
			return domain.ClassRAGRelevant, nil
		}
		return domain.ClassUnclear, nil
	}

	raw, err := c.llm.Complete(ctx, c.prompt(question, history), classifierTemperature, classifierMaxTokens)
	if err != nil {
		return domain.ClassUnclear, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "classification call failed", err)
	}

	label := parseLabel(raw)
	if label == domain.ClassUnclear {
		// Transcripts of center-related questions often arrive garbled;
		// a close keyword hit rescues them.
		if c.fuzzyDomainScore(question) >= fuzzyOverrideThreshold {
			return domain.ClassRAGRelevant, nil
		}
	}
	return label, nil
}

func (c *Classifier) prompt(question string, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString("You route questions for a community digital center's information kiosk.\n")
	b.WriteString("Reply with exactly one label and nothing else:\n")
	b.WriteString("- RAG_RELEVANT: the question is about the center, its programs, courses, workshops, events, opening hours, or staff.\n")
	b.WriteString("- GENERAL_KNOWLEDGE: the question can be answered without any information about the center.\n")
	b.WriteString("- UNCLEAR: the intent cannot be determined.\n\n")
	b.WriteString("Examples:\n")
	b.WriteString("Q: What programs does the center offer?\nLabel: RAG_RELEVANT\n")
	b.WriteString("Q: When is the next robotics workshop?\nLabel: RAG_RELEVANT\n")
	b.WriteString("Q: How do I learn to code?\nLabel: GENERAL_KNOWLEDGE\n")
	b.WriteString("Q: What is the capital of France?\nLabel: GENERAL_KNOWLEDGE\n")
	b.WriteString("Q: uh the thing yes\nLabel: UNCLEAR\n\n")

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Q: %s\nLabel:", question)
	return b.String()
}

// parseLabel extracts a label from freeform model output, defaulting to
// UNCLEAR. The raw text is logged for offline prompt tuning.
func parseLabel(raw string) domain.Classification {
	match := labelPattern.FindString(strings.ToUpper(raw))
	if match == "" {
		log.Printf("classifier: unparseable label output %q", strings.TrimSpace(raw))
		return domain.ClassUnclear
	}
	return domain.ParseClassification(match)
}

func isFollowUp(question string) bool {
	q := normalizeText(question)
	if len(strings.Fields(q)) > 4 {
		return false
	}
	for _, phrase := range followUpPhrases {
		if partialRatio(q, phrase) >= fuzzyOverrideThreshold {
			return true
		}
	}
	return false
}

// historyReferencesDomain reports whether the most recent assistant turn
// mentioned the institution.
func (c *Classifier) historyReferencesDomain(history []domain.Turn) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != domain.RoleAssistant {
			continue
		}
		return c.fuzzyDomainScore(history[i].Content) >= fuzzyOverrideThreshold
	}
	return false
}

func (c *Classifier) fuzzyDomainScore(text string) float64 {
	best := 0.0
	norm := normalizeText(text)
	for _, kw := range c.keywords {
		if score := partialRatio(norm, normalizeText(kw)); score > best {
			best = score
		}
	}
	return best
}
