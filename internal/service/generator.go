package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/odclabs/kiosk/internal/domain"
)

const (
	generatorTemperature = 0.3
	generatorMaxTokens   = 512

	groundedSentenceLimit = 8
	generalSentenceLimit  = 4
)

// GenerateInput carries everything one answer needs. Context is empty on
// the general-knowledge path.
type GenerateInput struct {
	Question string
	Context  []domain.ScoredPassage
	History  []domain.Turn
	Language domain.Language
}

// Generator produces a single coherent answer per question. The style
// contract (brevity, language fidelity, no facts beyond context) lives
// in the prompts; it is best-effort, not mechanically guaranteed.
type Generator struct {
	llm CompletionClient
}

func NewGenerator(llm CompletionClient) *Generator {
	return &Generator{llm: llm}
}

// GenerateGrounded answers from retrieved passages only. Returns the
// answer text and the de-duplicated source ids in rank order.
func (g *Generator) GenerateGrounded(ctx context.Context, in GenerateInput) (string, []string, error) {
	answer, err := g.llm.Complete(ctx, groundedPrompt(in), generatorTemperature, generatorMaxTokens)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "grounded generation failed", err)
	}
	return strings.TrimSpace(answer), sourceIDs(in.Context), nil
}

// GenerateGeneral answers without retrieval context. Sources are always
// empty on this path.
func (g *Generator) GenerateGeneral(ctx context.Context, in GenerateInput) (string, error) {
	answer, err := g.llm.Complete(ctx, generalPrompt(in), generatorTemperature, generatorMaxTokens)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "general generation failed", err)
	}
	return strings.TrimSpace(answer), nil
}

func groundedPrompt(in GenerateInput) string {
	var b strings.Builder
	b.WriteString("You are the information assistant of a community digital center, speaking aloud to a visitor at a kiosk.\n")
	fmt.Fprintf(&b, "%s\n", in.Language.Directive)
	fmt.Fprintf(&b, "Answer in at most %d short sentences. Plain speech only: no lists, no markup, no special characters.\n", groundedSentenceLimit)
	b.WriteString("The question was transcribed from speech and may contain typos; interpret it charitably toward the center's programs and events.\n")
	b.WriteString("Answer strictly from the context below. If the context does not contain the answer, say so instead of inventing one.\n\n")

	b.WriteString("Context:\n")
	for _, sp := range in.Context {
		fmt.Fprintf(&b, "[%s] %s\n", sp.Passage.SourceID, sp.Passage.Text)
	}
	b.WriteString("\n")

	writeHistory(&b, in.History)
	fmt.Fprintf(&b, "Visitor: %s\nAssistant:", in.Question)
	return b.String()
}

func generalPrompt(in GenerateInput) string {
	var b strings.Builder
	b.WriteString("You are the information assistant of a community digital center, speaking aloud to a visitor at a kiosk.\n")
	fmt.Fprintf(&b, "%s\n", in.Language.Directive)
	fmt.Fprintf(&b, "Be brief, direct, and professional: at most %d short sentences, no lists, no markup, no special characters.\n", generalSentenceLimit)
	b.WriteString("Offer to elaborate rather than dumping detail.\n\n")

	writeHistory(&b, in.History)
	fmt.Fprintf(&b, "Visitor: %s\nAssistant:", in.Question)
	return b.String()
}

func writeHistory(b *strings.Builder, history []domain.Turn) {
	if len(history) == 0 {
		return
	}
	b.WriteString("Conversation so far:\n")
	for _, turn := range history {
		speaker := "Visitor"
		if turn.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(b, "%s: %s\n", speaker, turn.Content)
	}
	b.WriteString("\n")
}

// sourceIDs extracts source identifiers from retrieved passages,
// de-duplicated and order-preserving by rank.
func sourceIDs(passages []domain.ScoredPassage) []string {
	seen := make(map[string]struct{}, len(passages))
	out := make([]string, 0, len(passages))
	for _, sp := range passages {
		id := sp.Passage.SourceID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
