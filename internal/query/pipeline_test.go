package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"erp-helpdesk-assistant/internal/ai"
	"erp-helpdesk-assistant/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	opts    ai.GenerateOptions
	reply   string
	err     error
	block   bool
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.opts = opts
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

// emptyResults reports a non-empty store whose queries match nothing.
type emptyResults struct{}

func (emptyResults) Query(context.Context, []float32, int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (emptyResults) Count(context.Context) (int, error) { return 4, nil }

func newPipeline(store Searcher, emb Embedder, gen ai.Generator) *Pipeline {
	return &Pipeline{
		Store:      store,
		Normalizer: NewNormalizer(ERPVocabulary, DefaultCutoff),
		Retriever:  &Retriever{Embedder: emb, Store: store, TopK: 1, CharBudget: DefaultCharBudget},
		Generator:  gen,
		Provider:   "fake",
	}
}

func TestPipeline_EmptyStore(t *testing.T) {
	emb := &keywordEmbedder{}
	gen := &fakeGenerator{reply: "should not be used"}
	p := newPipeline(vectorstore.NewMemory(), emb, gen)

	ans, err := p.Ask(context.Background(), "How do I apply for leave?")

	require.NoError(t, err)
	assert.Equal(t, StateEmptyStore, ans.State)
	assert.Equal(t, NotIndexedMessage, ans.Text)
	assert.Empty(t, emb.calls)
	assert.Empty(t, gen.prompts)
}

func TestPipeline_AnswersFromRetrievedChunk(t *testing.T) {
	chunk := "Module: Leave\nEmployees can apply for leave via the Leave tab."
	store := seededStore(t, chunk, "Module: Fees\nFees can be paid online from the Fees page.")
	emb := &keywordEmbedder{}
	gen := &fakeGenerator{reply: "  Yes. Employees can apply for leave via the Leave tab.\n"}
	p := newPipeline(store, emb, gen)

	ans, err := p.Ask(context.Background(), "can I apply for leave")

	require.NoError(t, err)
	assert.Equal(t, StateAnswered, ans.State)
	assert.Equal(t, "Yes. Employees can apply for leave via the Leave tab.", ans.Text)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "ERP Documentation:\n"+chunk+"\n\nUser Question:\ncan I apply for leave\n\nAnswer:")
	assert.NotContains(t, prompt, "Fees can be paid")
	assert.Equal(t, prompt, ans.Prompt)

	assert.Equal(t, []string{"can i apply for leave"}, emb.calls)
	assert.InDelta(t, 0.05, gen.opts.Temperature, 1e-6)
	assert.Equal(t, 120, gen.opts.MaxTokens)
	assert.Equal(t, StopSequences, gen.opts.Stop)
}

func TestPipeline_PromptKeepsFixedWording(t *testing.T) {
	store := seededStore(t, "Module: Payroll\nPayroll is processed on the last working day.")
	emb := &keywordEmbedder{}
	gen := &fakeGenerator{reply: "On the last working day."}
	p := newPipeline(store, emb, gen)

	_, err := p.Ask(context.Background(), "When is PAYROL processed??")
	require.NoError(t, err)

	assert.Equal(t, []string{"when is payroll processed"}, emb.calls)
	assert.Contains(t, gen.prompts[0], "User Question:\nWhen is PAYROL processed??\n")
}

func TestPipeline_Greeting(t *testing.T) {
	store := seededStore(t, "Module: Leave\nEmployees can apply for leave via the Leave tab.")
	emb := &keywordEmbedder{}
	gen := &fakeGenerator{}
	p := newPipeline(store, emb, gen)

	for _, q := range []string{"hi", "Hello!", "ok thanks", "Thank you."} {
		ans, err := p.Ask(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, StateGreeting, ans.State, q)
		assert.Equal(t, GreetingReply, ans.Text)
		assert.NotContains(t, ans.Text, "Leave")
	}
	assert.Empty(t, emb.calls)
	assert.Empty(t, gen.prompts)
}

func TestPipeline_NoMatch(t *testing.T) {
	gen := &fakeGenerator{}
	p := newPipeline(emptyResults{}, &keywordEmbedder{}, gen)

	ans, err := p.Ask(context.Background(), "how do I reset my password")

	require.NoError(t, err)
	assert.Equal(t, StateNoMatch, ans.State)
	assert.Equal(t, NoMatchMessage, ans.Text)
	assert.Empty(t, gen.prompts)
}

func TestPipeline_GenerationFailurePropagates(t *testing.T) {
	down := errors.New("connection refused")
	store := seededStore(t, "Module: Leave\nEmployees can apply for leave via the Leave tab.")
	p := newPipeline(store, &keywordEmbedder{}, &fakeGenerator{err: down})

	ans, err := p.Ask(context.Background(), "how to apply leave")

	assert.Nil(t, ans)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, down)
}

func TestPipeline_GenerationTimeout(t *testing.T) {
	store := seededStore(t, "Module: Leave\nEmployees can apply for leave via the Leave tab.")
	p := newPipeline(store, &keywordEmbedder{}, &fakeGenerator{block: true})
	p.GenerationTimeout = 20 * time.Millisecond

	_, err := p.Ask(context.Background(), "how to apply leave")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipeline_EmptyQuestion(t *testing.T) {
	p := newPipeline(vectorstore.NewMemory(), &keywordEmbedder{}, &fakeGenerator{})

	_, err := p.Ask(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestIsGreeting(t *testing.T) {
	assert.True(t, IsGreeting("hii"))
	assert.True(t, IsGreeting("Okay!!"))
	assert.False(t, IsGreeting("hi, how do I apply for leave"))
	assert.False(t, IsGreeting(""))
}

func TestIsGreeting_WholePhrasesOnly(t *testing.T) {
	for _, q := range []string{"thank you", "Good morning!", "ok thanks", "hi, good evening"} {
		assert.True(t, IsGreeting(q), q)
	}
	for _, q := range []string{"you", "evening", "good", "morning", "thank", "good leave"} {
		assert.False(t, IsGreeting(q), q)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("ctx with %s and {question}", "q?")

	assert.True(t, strings.HasPrefix(p.Text, "You are a professional ERP Support Assistant."))
	assert.Contains(t, p.Text, "ERP Documentation:\nctx with %s and {question}\n\nUser Question:\nq?\n\nAnswer:\n")
	assert.InDelta(t, 0.9, p.Options.TopP, 1e-6)
}
