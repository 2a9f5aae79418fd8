// Package pipeline implements the two-stage retrieve-then-generate flow.
//
// A run starts from an input text, retrieves similar examples from a
// vector index, then hands input and examples to a generator. Retrieval
// failure aborts the run; generation failure degrades it to a fallback
// value instead of surfacing an error.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aqua777/go-ragserve/schema"
)

// Version identifies the pipeline revision recorded with each result.
const Version = "v1.0"

// ErrRunTimeout is returned when a run exceeds its deadline before
// retrieval completes.
var ErrRunTimeout = errors.New("pipeline run timed out")

// Stage is the progress marker of a run.
type Stage int

const (
	// StageStart is the initial stage before retrieval.
	StageStart Stage = iota
	// StageRetrieved means similar examples have been fetched.
	StageRetrieved
	// StageGenerated means a result (or fallback) has been produced.
	StageGenerated
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageRetrieved:
		return "retrieved"
	case StageGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// RetrievalOutput holds the result of the retrieval stage.
type RetrievalOutput struct {
	// Examples are the retrieved examples, ordered by descending score.
	Examples []schema.Example
	// Elapsed is how long retrieval took.
	Elapsed time.Duration
}

// GenerationOutput holds the result of the generation stage.
type GenerationOutput struct {
	// Result is the generated value, or the fallback on failure.
	Result schema.GenerationResult
	// Degraded is true when Result came from the fallback path.
	Degraded bool
	// Elapsed is how long generation took.
	Elapsed time.Duration
}

// State carries a single run through its stages. Stage outputs are
// applied once, in order, and are read-only afterwards.
type State struct {
	runID      uuid.UUID
	input      string
	stage      Stage
	retrieval  *RetrievalOutput
	generation *GenerationOutput
	timings    map[string]time.Duration
}

// NewState creates a fresh run state for the given input.
func NewState(input string) *State {
	return &State{
		runID:   uuid.New(),
		input:   input,
		stage:   StageStart,
		timings: make(map[string]time.Duration),
	}
}

// RunID returns the unique identifier of this run.
func (s *State) RunID() uuid.UUID { return s.runID }

// Input returns the input text of this run.
func (s *State) Input() string { return s.input }

// Stage returns the current stage.
func (s *State) Stage() Stage { return s.stage }

// Retrieval returns the retrieval output, or nil before StageRetrieved.
func (s *State) Retrieval() *RetrievalOutput { return s.retrieval }

// Generation returns the generation output, or nil before StageGenerated.
func (s *State) Generation() *GenerationOutput { return s.generation }

// Timings returns a copy of the per-stage durations recorded so far.
func (s *State) Timings() map[string]time.Duration {
	timings := make(map[string]time.Duration, len(s.timings))
	for k, v := range s.timings {
		timings[k] = v
	}
	return timings
}

func (s *State) applyRetrieval(out *RetrievalOutput) error {
	if s.stage != StageStart {
		return fmt.Errorf("invalid transition to %s from %s", StageRetrieved, s.stage)
	}
	s.retrieval = out
	s.timings["retrieval"] = out.Elapsed
	s.stage = StageRetrieved
	return nil
}

func (s *State) applyGeneration(out *GenerationOutput) error {
	if s.stage != StageRetrieved {
		return fmt.Errorf("invalid transition to %s from %s", StageGenerated, s.stage)
	}
	s.generation = out
	s.timings["generation"] = out.Elapsed
	s.stage = StageGenerated
	return nil
}

// Outcome is the result of a completed run. Aborted runs return an
// error from Run instead.
type Outcome struct {
	// State is the finished run state.
	State *State
	// Degraded is true when the generation stage fell back.
	Degraded bool
}

// Result returns the generated value of a completed run.
func (o *Outcome) Result() schema.GenerationResult {
	if o == nil || o.State == nil || o.State.Generation() == nil {
		return nil
	}
	return o.State.Generation().Result
}
