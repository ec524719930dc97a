package types

import (
	"encoding/json"
	"fmt"
)

// Stage represents the current position of a run in the pipeline state machine.
type Stage int

// Pipeline stages, in execution order.
const (
	StageIdle Stage = iota
	StageSourcingDocuments
	StageDraftingReport
	StageDraftingMemo
	StageCompleted
	StageFailed
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSourcingDocuments:
		return "sourcing_documents"
	case StageDraftingReport:
		return "drafting_report"
	case StageDraftingMemo:
		return "drafting_memo"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the stage is a terminal state of a run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// MarshalJSON encodes the stage by name so API clients never see raw ints.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a stage from its name.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []Stage{StageIdle, StageSourcingDocuments, StageDraftingReport, StageDraftingMemo, StageCompleted, StageFailed} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown stage: %q", name)
}

// RunState tracks one pipeline invocation for a single subject.
// It is owned exclusively by the orchestrator for the duration of the run;
// observers receive value copies via Snapshot.
type RunState struct {
	Subject    string     `json:"subject"`
	Stage      Stage      `json:"stage"`
	Artifacts  []Artifact `json:"artifacts"`
	Err        string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// Snapshot returns a value copy safe to hand to observers while the run
// continues. The artifact slice is copied; artifacts themselves are immutable.
func (r *RunState) Snapshot() RunState {
	out := *r
	out.Artifacts = make([]Artifact, len(r.Artifacts))
	copy(out.Artifacts, r.Artifacts)
	return out
}
