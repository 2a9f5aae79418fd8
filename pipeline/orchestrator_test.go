package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aqua777/go-ragserve/schema"
)

// MockRetriever is a mock implementation of the Retriever interface.
type MockRetriever struct {
	Examples []schema.Example
	Err      error
	Delay    time.Duration
	Calls    int
}

func (m *MockRetriever) Retrieve(ctx context.Context, input string) ([]schema.Example, error) {
	m.Calls++
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	return m.Examples, m.Err
}

// MockGenerator is a mock implementation of the Generator interface.
type MockGenerator struct {
	Result         schema.GenerationResult
	Err            error
	Delay          time.Duration
	FallbackResult schema.GenerationResult
	Calls          int
	FallbackCalls  int
	LastExamples   []schema.Example
	LastErr        error
}

func (m *MockGenerator) Generate(ctx context.Context, input string, examples []schema.Example) (schema.GenerationResult, error) {
	m.Calls++
	m.LastExamples = examples
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

func (m *MockGenerator) Fallback(err error) schema.GenerationResult {
	m.FallbackCalls++
	m.LastErr = err
	return m.FallbackResult
}

type OrchestratorTestSuite struct {
	suite.Suite
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) TestRunHappyPath() {
	ctx := context.Background()
	examples := []schema.Example{
		{Text: "Apple unveils new chip.", Label: 2, Category: "Technology", Score: 0.91},
	}
	result := schema.ClassificationResult{Label: 2, Category: "Technology", Confidence: 0.95, Reasoning: "matches tech examples"}

	retriever := &MockRetriever{Examples: examples}
	generator := &MockGenerator{Result: result}

	orch := NewOrchestrator(retriever, generator)
	outcome, err := orch.Run(ctx, "New GPU benchmarks released")

	s.NoError(err)
	s.Require().NotNil(outcome)
	s.False(outcome.Degraded)
	s.Equal(StageGenerated, outcome.State.Stage())
	s.Equal(result, outcome.Result())
	s.Equal(examples, outcome.State.Retrieval().Examples)
	s.Equal(examples, generator.LastExamples)
	s.Equal(1, retriever.Calls)
	s.Equal(1, generator.Calls)
	s.Equal(0, generator.FallbackCalls)

	timings := outcome.State.Timings()
	s.Contains(timings, "retrieval")
	s.Contains(timings, "generation")
}

func (s *OrchestratorTestSuite) TestRunEmptyRetrieval() {
	ctx := context.Background()
	result := schema.ClassificationResult{Label: 0, Category: "Politics", Confidence: 0.4, Reasoning: "no examples to lean on"}

	retriever := &MockRetriever{Examples: nil}
	generator := &MockGenerator{Result: result}

	orch := NewOrchestrator(retriever, generator)
	outcome, err := orch.Run(ctx, "Parliament passes the budget")

	s.NoError(err)
	s.Require().NotNil(outcome)
	s.False(outcome.Degraded)
	s.Equal(1, generator.Calls)
	s.Empty(generator.LastExamples)
	s.Equal(result, outcome.Result())
}

func (s *OrchestratorTestSuite) TestRunGenerationFailureDegrades() {
	ctx := context.Background()
	genErr := errors.New("provider unavailable")
	fallback := schema.ClassificationResult{Label: 0, Category: "Politics", Confidence: 0, Reasoning: "Error during classification: provider unavailable"}

	retriever := &MockRetriever{Examples: []schema.Example{{Text: "x", Score: 0.8}}}
	generator := &MockGenerator{Err: genErr, FallbackResult: fallback}

	orch := NewOrchestrator(retriever, generator)
	outcome, err := orch.Run(ctx, "some text")

	s.NoError(err)
	s.Require().NotNil(outcome)
	s.True(outcome.Degraded)
	s.Equal(StageGenerated, outcome.State.Stage())
	s.True(outcome.State.Generation().Degraded)
	s.Equal(fallback, outcome.Result())
	s.Equal(1, generator.FallbackCalls)
	s.Equal(genErr, generator.LastErr)
}

func (s *OrchestratorTestSuite) TestRunRetrievalFailureAborts() {
	ctx := context.Background()

	retriever := &MockRetriever{Err: errors.New("index unreachable")}
	generator := &MockGenerator{Result: schema.ClassificationResult{}}

	orch := NewOrchestrator(retriever, generator)
	outcome, err := orch.Run(ctx, "some text")

	s.Error(err)
	s.Nil(outcome)
	s.Contains(err.Error(), "retrieve failed")
	s.Equal(0, generator.Calls)
	s.Equal(0, generator.FallbackCalls)
}

func (s *OrchestratorTestSuite) TestRunRetrievalTimeout() {
	ctx := context.Background()

	retriever := &MockRetriever{Delay: 200 * time.Millisecond}
	generator := &MockGenerator{Result: schema.ClassificationResult{}}

	orch := NewOrchestrator(retriever, generator).WithRunTimeout(20 * time.Millisecond)
	outcome, err := orch.Run(ctx, "some text")

	s.Error(err)
	s.Nil(outcome)
	s.ErrorIs(err, ErrRunTimeout)
	s.Equal(0, generator.Calls)
}

func (s *OrchestratorTestSuite) TestRunGenerationTimeoutDegrades() {
	ctx := context.Background()
	fallback := schema.ChatResult{Response: "I apologize, but I encountered an error generating a response. Please try again."}

	retriever := &MockRetriever{Examples: []schema.Example{{Text: "x", Score: 0.9}}}
	generator := &MockGenerator{Delay: 200 * time.Millisecond, FallbackResult: fallback}

	orch := NewOrchestrator(retriever, generator).WithRunTimeout(40 * time.Millisecond)
	outcome, err := orch.Run(ctx, "some text")

	s.NoError(err)
	s.Require().NotNil(outcome)
	s.True(outcome.Degraded)
	s.Equal(fallback, outcome.Result())
}

func (s *OrchestratorTestSuite) TestRunStageOrdering() {
	ctx := context.Background()
	var events []string

	retriever := &eventRetriever{events: &events}
	generator := &eventGenerator{events: &events}

	orch := NewOrchestrator(retriever, generator)
	_, err := orch.Run(ctx, "some text")

	s.NoError(err)
	s.Equal([]string{"retrieve", "generate"}, events)
}

func (s *OrchestratorTestSuite) TestStateTransitions() {
	state := NewState("some text")
	s.Equal(StageStart, state.Stage())
	s.Equal("some text", state.Input())
	s.NotEqual("", state.RunID().String())
	s.Nil(state.Retrieval())
	s.Nil(state.Generation())

	s.Error(state.applyGeneration(&GenerationOutput{}))

	s.NoError(state.applyRetrieval(&RetrievalOutput{Elapsed: time.Millisecond}))
	s.Equal(StageRetrieved, state.Stage())
	s.Error(state.applyRetrieval(&RetrievalOutput{}))

	s.NoError(state.applyGeneration(&GenerationOutput{Elapsed: time.Millisecond}))
	s.Equal(StageGenerated, state.Stage())
	s.Error(state.applyGeneration(&GenerationOutput{}))
}

func (s *OrchestratorTestSuite) TestStageString() {
	s.Equal("start", StageStart.String())
	s.Equal("retrieved", StageRetrieved.String())
	s.Equal("generated", StageGenerated.String())
	s.Equal("unknown", Stage(99).String())
}

func (s *OrchestratorTestSuite) TestOutcomeResultNilSafety() {
	var outcome *Outcome
	s.Nil(outcome.Result())
	s.Nil((&Outcome{}).Result())
	s.Nil((&Outcome{State: NewState("x")}).Result())
}

type eventRetriever struct {
	events *[]string
}

func (r *eventRetriever) Retrieve(ctx context.Context, input string) ([]schema.Example, error) {
	*r.events = append(*r.events, "retrieve")
	return nil, nil
}

type eventGenerator struct {
	events *[]string
}

func (g *eventGenerator) Generate(ctx context.Context, input string, examples []schema.Example) (schema.GenerationResult, error) {
	*g.events = append(*g.events, "generate")
	return schema.ChatResult{Response: "ok"}, nil
}

func (g *eventGenerator) Fallback(err error) schema.GenerationResult {
	return schema.ChatResult{Response: "fallback"}
}
