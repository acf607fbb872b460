package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/telemetry"
)

// State tracks where a session's pipeline is within one question.
type State string

const (
	StateIdle               State = "IDLE"
	StateClassifying        State = "CLASSIFYING"
	StateRetrieving         State = "RETRIEVING"
	StateGeneratingGrounded State = "GENERATING_GROUNDED"
	StateGeneratingGeneral  State = "GENERATING_GENERAL"
	StateResponded          State = "RESPONDED"
)

// PipelineConfig tunes one session's pipeline.
type PipelineConfig struct {
	TopK          int
	HistoryWindow int
}

// Pipeline sequences classification, retrieval, generation, and memory
// for one kiosk session. A session processes one question at a time;
// the mutex serializes callers so interleaved questions cannot corrupt
// the ordered conversation memory.
//
// Ask never returns an error: every failure folds into a per-language
// apology Response with empty sources.
type Pipeline struct {
	classifier *Classifier
	retriever  Retriever
	generator  *Generator
	cfg        PipelineConfig

	mu          sync.Mutex
	state       State
	groundedMem *Memory
	generalMem  *Memory
}

func NewPipeline(classifier *Classifier, retriever Retriever, generator *Generator, cfg PipelineConfig) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &Pipeline{
		classifier:  classifier,
		retriever:   retriever,
		generator:   generator,
		cfg:         cfg,
		state:       StateIdle,
		groundedMem: NewMemory(cfg.HistoryWindow),
		generalMem:  NewMemory(cfg.HistoryWindow),
	}
}

// Ask answers one question in the session's language. The memory scope
// matching the path taken is updated only after generation succeeds, so
// a caller timeout that aborts a hung model call leaves history intact.
func (p *Pipeline) Ask(ctx context.Context, question string, lang domain.Language) domain.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.setState(StateIdle)

	p.setState(StateClassifying)
	classification, err := p.classifier.Classify(ctx, question, p.groundedMem.History(p.cfg.HistoryWindow))
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return p.respond(domain.Response{AnswerText: lang.Greeting, Language: lang.Code})
		}
		return p.fallback(ctx, lang, err)
	}

	if classification == domain.ClassRAGRelevant {
		return p.askGrounded(ctx, question, lang)
	}
	return p.askGeneral(ctx, question, lang)
}

func (p *Pipeline) askGrounded(ctx context.Context, question string, lang domain.Language) domain.Response {
	p.setState(StateRetrieving)
	passages, err := p.retriever.Retrieve(ctx, question, p.cfg.TopK)
	if err != nil {
		// No usable index means the kiosk can still talk, just not
		// about specifics: degrade to the general path. Anything else
		// is a transient upstream failure.
		if errors.Is(err, domain.ErrIndexUnavailable) || errors.Is(err, domain.ErrModelMismatch) {
			log.Printf("pipeline: retrieval degraded to general path: %v", err)
			return p.askGeneral(ctx, question, lang)
		}
		return p.fallback(ctx, lang, err)
	}

	p.setState(StateGeneratingGrounded)
	answer, sources, err := p.generator.GenerateGrounded(ctx, GenerateInput{
		Question: question,
		Context:  passages,
		History:  p.groundedMem.History(p.cfg.HistoryWindow),
		Language: lang,
	})
	if err != nil {
		return p.fallback(ctx, lang, err)
	}

	p.groundedMem.AppendExchange(question, answer)
	return p.respond(domain.Response{AnswerText: answer, Sources: sources, Language: lang.Code})
}

func (p *Pipeline) askGeneral(ctx context.Context, question string, lang domain.Language) domain.Response {
	p.setState(StateGeneratingGeneral)
	answer, err := p.generator.GenerateGeneral(ctx, GenerateInput{
		Question: question,
		History:  p.generalMem.History(p.cfg.HistoryWindow),
		Language: lang,
	})
	if err != nil {
		return p.fallback(ctx, lang, err)
	}

	p.generalMem.AppendExchange(question, answer)
	return p.respond(domain.Response{AnswerText: answer, Sources: nil, Language: lang.Code})
}

// fallback converts any pipeline failure into the session language's
// static apology. The caller never sees a raw error.
func (p *Pipeline) fallback(ctx context.Context, lang domain.Language, err error) domain.Response {
	log.Printf("pipeline: degraded to fallback response: %v", err)
	telemetry.CaptureError(ctx, err)
	return p.respond(domain.Response{AnswerText: lang.Apology, Sources: nil, Language: lang.Code})
}

func (p *Pipeline) respond(resp domain.Response) domain.Response {
	p.setState(StateResponded)
	return resp
}

func (p *Pipeline) setState(s State) {
	p.state = s
}

// State reports the pipeline's current phase, for logs and debugging.
// Ask holds the session lock for its whole duration, so this blocks
// during an in-flight question and otherwise reports StateIdle.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Clear resets both conversation scopes.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groundedMem.Clear()
	p.generalMem.Clear()
}
