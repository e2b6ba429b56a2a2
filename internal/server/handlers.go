package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graphio"
	"github.com/matzehuels/flowscope/pkg/state"
)

// =============================================================================
// Health and Pipeline
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFrame returns the last rendered frame, running the pipeline first
// if no frame exists yet.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if frame := s.coord.LastFrame(); frame != nil {
		s.respondJSON(w, http.StatusOK, frame)
		return
	}
	frame, err := s.coord.ExecuteLayoutAndRenderPipeline(r.Context(), coordinator.PipelineOptions{}, coordinator.Options{})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

type pipelineRequest struct {
	FitView bool `json:"fit_view"`
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
			return
		}
	}
	frame, err := s.coord.ExecuteLayoutAndRenderPipeline(r.Context(),
		coordinator.PipelineOptions{FitView: req.FitView}, coordinator.Options{})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	dropped := s.coord.ClearQueue()
	s.respondJSON(w, http.StatusOK, map[string]int{"dropped": dropped})
}

// =============================================================================
// Graph and Collapse Operations
// =============================================================================

func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, graphio.FromStore(s.coord.Store()))
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	frame, err := s.coord.CollapseContainer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	result, err := s.coord.ExpandContainer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !result.Check.CanExpand {
		// Expansion refused: the precondition payload tells the client why.
		s.respondJSON(w, http.StatusConflict, result)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	frame, err := s.coord.CollapseAllContainers(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	frame, err := s.coord.ExpandAllContainers(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

// =============================================================================
// Search, Focus, and View Settings
// =============================================================================

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := s.coord.UpdateSearchResults(r.Context(), query)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	frame, err := s.coord.FocusNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

type styleRequest struct {
	Palette   string `json:"palette,omitempty"`
	EdgeStyle string `json:"edge_style,omitempty"`
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.Palette == "" && req.EdgeStyle == "" {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "palette or edge_style required"))
		return
	}

	var frame any
	if req.Palette != "" {
		f, err := s.coord.UpdateColorPalette(r.Context(), req.Palette)
		if err != nil {
			s.respondError(w, err)
			return
		}
		frame = f
	}
	if req.EdgeStyle != "" {
		f, err := s.coord.UpdateEdgeStyle(r.Context(), req.EdgeStyle)
		if err != nil {
			s.respondError(w, err)
			return
		}
		frame = f
	}
	s.respondJSON(w, http.StatusOK, frame)
}

type layoutRequest struct {
	Algorithm string `json:"algorithm"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	frame, err := s.coord.UpdateLayoutAlgorithm(r.Context(), req.Algorithm)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

// =============================================================================
// Snapshots
// =============================================================================

func (s *Server) requireSnapshots(w http.ResponseWriter) bool {
	if s.snapshots == nil {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "snapshot storage not configured"))
		return false
	}
	return true
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	names, err := s.snapshots.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"snapshots": names})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	name := chi.URLParam(r, "name")
	snap, err := s.snapshots.Get(r.Context(), name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if snap == nil {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "snapshot %s does not exist", name))
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

type saveSnapshotRequest struct {
	Query     string `json:"query,omitempty"`
	Selection string `json:"selection,omitempty"`
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	var req saveSnapshotRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
			return
		}
	}

	snap := state.Capture(s.coord.Store(), req.Query, req.Selection)
	name := chi.URLParam(r, "name")
	if err := s.snapshots.Set(r.Context(), name, snap); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleApplySnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	name := chi.URLParam(r, "name")
	snap, err := s.snapshots.Get(r.Context(), name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if snap == nil {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "snapshot %s does not exist", name))
		return
	}

	if err := snap.Apply(s.coord.Ops()); err != nil {
		s.respondError(w, err)
		return
	}
	frame, err := s.coord.ExecuteLayoutAndRenderPipeline(r.Context(),
		coordinator.PipelineOptions{FitView: true}, coordinator.Options{})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Response Helpers
// =============================================================================

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	s.respondJSON(w, httpStatus(code), errorResponse{Error: err.Error(), Code: code})
}

// httpStatus maps internal error codes onto HTTP statuses.
func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidID, errors.ErrCodeDuplicateID,
		errors.ErrCodeUnknownEndpoint, errors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeContainerNotFound, errors.ErrCodeEdgeNotFound:
		return http.StatusNotFound
	case errors.ErrCodePreconditionFailed, errors.ErrCodeCancelled:
		return http.StatusConflict
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeQueueClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
