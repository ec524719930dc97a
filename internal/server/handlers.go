package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/pipeline"
	"github.com/khartman/memoflow/internal/types"
)

// runOutcome carries the final pipeline result into the streaming loop.
type runOutcome struct {
	state types.RunState
	err   error
}

// handleRun starts a generation run and streams stage snapshots as SSE until
// the run reaches a terminal state.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req types.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates := s.hub.subscribe()
	defer s.hub.unsubscribe(updates)

	done := make(chan runOutcome, 1)
	go func() {
		state, runErr := s.orchestrator.Run(r.Context(), req.Subject)
		done <- runOutcome{state: state, err: runErr}
	}()

	for {
		select {
		case state := <-updates:
			sse.WriteEvent("state", state) //nolint:errcheck
		case out := <-done:
			// Flush any snapshots still queued before the final event.
			for {
				select {
				case state := <-updates:
					sse.WriteEvent("state", state) //nolint:errcheck
					continue
				default:
				}
				break
			}
			s.finishStream(sse, req.Subject, out)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// finishStream emits the terminal SSE event for a run.
func (s *Server) finishStream(sse *SSEWriter, subject string, out runOutcome) {
	switch {
	case errors.Is(out.err, pipeline.ErrRunInProgress):
		conflict := &ErrRunConflict{}
		sse.WriteError(conflict.Error())
	case out.err != nil:
		sse.WriteError(out.err.Error())
		sse.WriteComplete(subject, out.state.Stage.String())
	case out.state.Stage == types.StageIdle:
		// Authorization revoked mid-run: the pipeline reset itself and
		// the client has to bring a fresh credential.
		sse.WriteReauthorize(subject)
	default:
		sse.WriteComplete(subject, out.state.Stage.String())
	}
}

// handleState returns a snapshot of the current run.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.orchestrator.State())
}

// handleHistory returns the stored run history, most recent first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonResponse(w, http.StatusOK, []history.Entry{})
		return
	}

	entries, err := s.store.Load(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.jsonResponse(w, http.StatusOK, entries)
}
