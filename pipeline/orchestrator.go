package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Orchestrator drives a run through retrieval and generation.
type Orchestrator struct {
	retriever  Retriever
	generator  Generator
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(retriever Retriever, generator Generator) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		logger:    slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// WithRunTimeout sets a deadline for the whole run. Zero disables it.
func (o *Orchestrator) WithRunTimeout(timeout time.Duration) *Orchestrator {
	o.runTimeout = timeout
	return o
}

// WithLogger sets the logger.
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	o.logger = logger
	return o
}

// Run executes the pipeline for the given input.
//
// A retrieval failure aborts the run and is returned as an error;
// ErrRunTimeout is returned when the deadline expired first. A
// generation failure never aborts: the generator's fallback value is
// used and the outcome is marked degraded.
func (o *Orchestrator) Run(ctx context.Context, input string) (*Outcome, error) {
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	state := NewState(input)
	logger := o.logger.With("run_id", state.RunID().String())
	logger.Info("Pipeline run started", "input_chars", len(input))

	retrievalStart := time.Now()
	examples, err := o.retriever.Retrieve(ctx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRunTimeout, err)
		}
		return nil, fmt.Errorf("retrieve failed: %w", err)
	}
	if err := state.applyRetrieval(&RetrievalOutput{
		Examples: examples,
		Elapsed:  time.Since(retrievalStart),
	}); err != nil {
		return nil, err
	}
	logger.Info("Retrieval completed", "examples", len(examples), "elapsed_ms", state.Retrieval().Elapsed.Milliseconds())

	generationStart := time.Now()
	result, genErr := o.generator.Generate(ctx, input, examples)
	degraded := false
	if genErr != nil {
		logger.Warn("Generation failed, using fallback", "error", genErr.Error())
		result = o.generator.Fallback(genErr)
		degraded = true
	}
	if err := state.applyGeneration(&GenerationOutput{
		Result:   result,
		Degraded: degraded,
		Elapsed:  time.Since(generationStart),
	}); err != nil {
		return nil, err
	}
	logger.Info("Generation completed", "degraded", degraded, "elapsed_ms", state.Generation().Elapsed.Milliseconds())

	return &Outcome{State: state, Degraded: degraded}, nil
}
