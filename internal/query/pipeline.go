package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erp-helpdesk-assistant/internal/ai"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/telemetry"
)

// State is the terminal state an answer was produced in.
type State string

const (
	StateEmptyStore State = "EMPTY_STORE"
	StateGreeting   State = "GREETING"
	StateNoMatch    State = "NO_MATCH"
	StateAnswered   State = "ANSWERED"
)

// Fixed replies. These are the only texts a user sees that were not
// produced by the generation service.
const (
	NotIndexedMessage = "ERP documentation is not indexed yet.\nPlease run the reindex command."
	NoMatchMessage    = "No relevant ERP documentation found."
	GreetingReply     = "Hello! How can I help you with the ERP system today?"
)

// ErrEmptyQuestion is returned for questions with no words in them.
var ErrEmptyQuestion = errors.New("question is empty")

// GenerationError means the generation service failed or timed out.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var greetingPhrases = map[string]bool{
	"hi": true, "hii": true, "hiii": true, "hello": true, "hey": true,
	"ok": true, "okay": true, "thanks": true, "thx": true,
	"thank you": true, "good morning": true, "good afternoon": true, "good evening": true,
}

// IsGreeting reports whether the input is only a greeting or
// acknowledgement, possibly several in a row ("ok thanks").
func IsGreeting(question string) bool {
	tokens := Tokens(question)
	if len(tokens) == 0 {
		return false
	}
	for i := 0; i < len(tokens); {
		switch {
		case i+1 < len(tokens) && greetingPhrases[tokens[i]+" "+tokens[i+1]]:
			i += 2
		case greetingPhrases[tokens[i]]:
			i++
		default:
			return false
		}
	}
	return true
}

// Answer is the outcome of one question.
type Answer struct {
	State State
	Text  string
	// Prompt is empty unless State is StateAnswered.
	Prompt string
}

// Pipeline answers one question at a time and keeps no state between
// calls, so a single value may serve concurrent requests.
type Pipeline struct {
	Store             Searcher
	Normalizer        *Normalizer
	Retriever         *Retriever
	Generator         ai.Generator
	GenerationTimeout time.Duration
	// Provider labels generation metrics.
	Provider string
	Metrics  *telemetry.Metrics
}

// Ask runs EMPTY_STORE, GREETING, NO_MATCH and ANSWERED checks in that
// order. A generation failure is returned as *GenerationError, never
// masked with a canned answer.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	count, err := p.Store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store count: %w", err)
	}
	if count == 0 {
		return p.finish(ctx, StateEmptyStore, NotIndexedMessage, ""), nil
	}

	if IsGreeting(question) {
		return p.finish(ctx, StateGreeting, GreetingReply, ""), nil
	}

	normalized := p.Normalizer.Normalize(question)
	if normalized == "" {
		return nil, ErrEmptyQuestion
	}
	logger.Debug("Normalized question", "normalized", normalized)

	retrieved, err := p.Retriever.Retrieve(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if retrieved == nil {
		return p.finish(ctx, StateNoMatch, NoMatchMessage, ""), nil
	}

	prompt := BuildPrompt(retrieved.Context, question)
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, StateAnswered, strings.TrimSpace(text), prompt.Text), nil
}

func (p *Pipeline) generate(ctx context.Context, prompt Prompt) (string, error) {
	if p.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.GenerationTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.Generator.Generate(ctx, prompt.Text, prompt.Options)
	p.Metrics.RecordGeneration(ctx, p.Provider, time.Since(start).Seconds(), err == nil)
	if err != nil {
		logger.Error("Generation failed", "provider", p.Provider, "error", err)
		return "", &GenerationError{Err: err}
	}
	return text, nil
}

func (p *Pipeline) finish(ctx context.Context, state State, text, prompt string) *Answer {
	p.Metrics.RecordAnswer(ctx, string(state))
	return &Answer{State: state, Text: text, Prompt: prompt}
}
