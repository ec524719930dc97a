// Package pipeline provides the high-level orchestration for the memo generation process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/khartman/memoflow/internal/generation"
	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/types"
)

// ErrRunInProgress is returned when Run is called while another run on the
// same orchestrator has not reached a terminal state.
var ErrRunInProgress = errors.New("a run is already in progress")

// ErrEmptySubject is returned when Run is called without a subject name.
var ErrEmptySubject = errors.New("subject name is required")

// Verifier annotates stage-one output with link verification status. It is
// the only collaborator invoked between stages.
type Verifier interface {
	Verify(ctx context.Context, text string) string
}

// Options configures an Orchestrator.
type Options struct {
	Generator generation.Generator
	Verifier  Verifier
	History   history.Store

	// OnProgress, if set, receives a read-only state snapshot after every
	// transition.
	OnProgress func(types.RunState)
	// OnReauthorize, if set, is called when a stage fails with the
	// credential-revocation signature. The run resets to idle instead of
	// failing; the caller is expected to re-prompt for credentials.
	OnReauthorize func()

	Verbose bool
}

// Orchestrator drives the three generation stages in strict sequence:
// sources, then report, then memo. One run at a time; the RunState is owned
// by the orchestrator and only snapshots escape.
type Orchestrator struct {
	gen           generation.Generator
	verifier      Verifier
	store         history.Store
	onProgress    func(types.RunState)
	onReauthorize func()
	verbose       bool

	mu    sync.Mutex
	state types.RunState
}

// New creates an Orchestrator. Generator is required; Verifier and History
// default to no-ops when nil.
func New(opts Options) (*Orchestrator, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("pipeline: Generator is required")
	}
	return &Orchestrator{
		gen:           opts.Generator,
		verifier:      opts.Verifier,
		store:         opts.History,
		onProgress:    opts.OnProgress,
		onReauthorize: opts.OnReauthorize,
		verbose:       opts.Verbose,
		state:         types.RunState{Stage: types.StageIdle},
	}, nil
}

// State returns a snapshot of the current run state.
func (o *Orchestrator) State() types.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Snapshot()
}

// Run executes the full pipeline for a subject and returns the terminal
// state. The returned error is non-nil for precondition violations and
// ordinary stage failures; a credential-revocation reset returns the idle
// state with a nil error after firing OnReauthorize.
func (o *Orchestrator) Run(ctx context.Context, subject string) (types.RunState, error) {
	if subject == "" {
		return o.State(), ErrEmptySubject
	}

	o.mu.Lock()
	if o.state.InProgress {
		o.mu.Unlock()
		return o.State(), ErrRunInProgress
	}
	o.state = types.RunState{
		Subject:    subject,
		Stage:      types.StageSourcingDocuments,
		InProgress: true,
	}
	o.mu.Unlock()
	o.publish()

	// Stage 1: source discovery, then link verification of its output.
	o.logf("Stage 1/3: Discovering primary sources for %s...", subject)
	sources, err := o.gen.Sources(ctx, subject)
	if err != nil {
		return o.fail(err)
	}
	if o.verifier != nil {
		o.logf("Verifying document links...")
		sources = o.verifier.Verify(ctx, sources)
	}
	o.advance(types.StageDraftingReport, types.Artifact{
		Key:      types.KeySources,
		Title:    "Primary Sources",
		Filename: "sources.md",
		Content:  sources,
	})

	// Stage 2: analyst report drafted from the annotated sources.
	o.logf("Stage 2/3: Drafting analyst report...")
	report, err := o.gen.Report(ctx, subject, sources)
	if err != nil {
		return o.fail(err)
	}
	o.advance(types.StageDraftingMemo, types.Artifact{
		Key:      types.KeyReport,
		Title:    "Analyst Report",
		Filename: "report.md",
		Content:  report,
	})

	// Stage 3: investment memo drafted from the report.
	o.logf("Stage 3/3: Drafting investment memo...")
	memo, err := o.gen.Memo(ctx, subject, report)
	if err != nil {
		return o.fail(err)
	}
	o.advance(types.StageCompleted, types.Artifact{
		Key:      types.KeyMemo,
		Title:    "Investment Memo",
		Filename: "memo.md",
		Content:  memo,
	})

	final := o.State()
	if o.store != nil {
		if err := o.store.Save(ctx, history.NewEntry(subject, final.Artifacts)); err != nil {
			// Persistence is best-effort; the run itself succeeded.
			log.Printf("Warning: failed to save run history: %v", err)
		}
	}

	o.logf("Done: %d artifacts produced for %s.", len(final.Artifacts), subject)
	return final, nil
}

// advance appends the completed stage's artifact and moves to the next stage.
func (o *Orchestrator) advance(next types.Stage, artifact types.Artifact) {
	o.mu.Lock()
	o.state.Artifacts = append(o.state.Artifacts, artifact)
	o.state.Stage = next
	if next.Terminal() {
		o.state.InProgress = false
	}
	o.mu.Unlock()
	o.publish()
}

// fail settles the run after a stage error. Revocation-class errors reset to
// idle and raise the reauthorize signal; everything else lands in Failed
// with the message preserved.
func (o *Orchestrator) fail(err error) (types.RunState, error) {
	if generation.IsAuthorizationRevoked(err) {
		o.mu.Lock()
		o.state = types.RunState{Subject: o.state.Subject, Stage: types.StageIdle}
		o.mu.Unlock()
		o.publish()

		if o.onReauthorize != nil {
			o.onReauthorize()
		}
		return o.State(), nil
	}

	o.mu.Lock()
	o.state.Stage = types.StageFailed
	o.state.Err = err.Error()
	o.state.InProgress = false
	o.mu.Unlock()
	o.publish()

	return o.State(), err
}

func (o *Orchestrator) publish() {
	if o.onProgress != nil {
		o.onProgress(o.State())
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.verbose {
		log.Printf("[VERBOSE] "+format, args...)
	}
}
