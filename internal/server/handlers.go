package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
	"github.com/felixgeelhaar/prioritizer/internal/session"
)

// Request/response bodies for the JSON API.

type prioritizeRequest struct {
	Goal  string   `json:"goal"`
	Tasks []string `json:"tasks"`
}

type prioritizeResponse struct {
	Tasks []session.Task `json:"tasks"`
}

type saveRequest struct {
	Goal  string         `json:"goal"`
	Tasks []session.Task `json:"tasks"`
}

type updateTaskRequest struct {
	Completed *bool `json:"completed"`
}

type ackResponse struct {
	OK bool `json:"ok"`
	// SavedAt is set by save only; update acks omit it.
	SavedAt time.Time `json:"savedAt,omitzero"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// handlePrioritize handles POST /api/prioritize.
// Validation runs before the adapter is invoked; an unparseable AI
// reply still returns 200 with the unprioritized input (the adapter
// absorbs it), while provider failures surface as 502.
func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	var req prioritizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tasks := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		if strings.TrimSpace(t) != "" {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == 0 {
		s.writeError(w, r, apperrors.NewEmptyTasksError())
		return
	}

	prioritized, err := s.prioritizer.Prioritize(r.Context(), req.Goal, tasks)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prioritizeResponse{Tasks: prioritized})
}

// handleLoad handles GET /api/load. An empty default session comes back
// when nothing has been saved yet.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Load()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if checksum, err := session.Checksum(sess); err == nil {
		w.Header().Set("ETag", `"`+checksum+`"`)
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleSave handles POST /api/save, overwriting the persisted session
// wholesale.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Tasks == nil {
		req.Tasks = []session.Task{}
	}

	saved, err := s.store.Save(session.Session{Goal: req.Goal, Tasks: req.Tasks})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{OK: true, SavedAt: saved.SavedAt})
}

// handleUpdateTask handles PUT /api/tasks/{index}, flipping one task's
// completion flag. A bad index is a 404 and leaves storage untouched.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, r, apperrors.NewTaskNotFoundError(-1, 0))
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Completed == nil {
		s.writeError(w, r, apperrors.NewValidationError("missing required field: completed"))
		return
	}

	if _, err := s.store.UpdateTask(index, *req.Completed); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

// decodeJSON decodes a request body, mapping failures to validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("malformed JSON body")
	}
	return nil
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError maps an error onto the JSON error payload and status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *apperrors.PrioritizerError
	if !errors.As(err, &perr) {
		perr = apperrors.Wrap(apperrors.ErrCodeStorageWrite, "internal error", err)
	}

	status := perr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.WithError(perr).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path)
	}

	writeJSON(w, status, errorResponse{
		Error:     perr.Message,
		Code:      string(perr.Code),
		Retryable: perr.Retryable(),
	})
}
