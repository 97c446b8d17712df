// Package httpapi exposes the tracker as a JSON HTTP API alongside health,
// Prometheus-format metrics and pprof endpoints.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"strconv"
	"time"

	"github.com/taskflow/taskflow/internal/app/dto"
	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/infrastructure/metrics"
	"github.com/taskflow/taskflow/pkg/taskflow"
	"github.com/taskflow/taskflow/pkg/validation"
)

type server struct {
	rt     *taskflow.Runtime
	logger *slog.Logger
}

// NewHandler routes the API onto a new mux.
func NewHandler(rt *taskflow.Runtime, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{rt: rt, logger: logger}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "taskflow server is running. See /healthz, /metrics, /board, /debug/pprof/")
	})
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /debug/", http.DefaultServeMux)

	mux.HandleFunc("GET /board", s.board)
	mux.HandleFunc("GET /buckets", s.buckets)
	mux.HandleFunc("GET /history", s.history)
	mux.HandleFunc("POST /undo", s.undo)
	mux.HandleFunc("POST /redo", s.redo)

	mux.Handle("POST /topics", validation.ValidateJSON[dto.CreateTopicRequest](http.HandlerFunc(s.createTopic)))
	mux.Handle("PUT /topics", validation.ValidateJSON[dto.EditTopicRequest](http.HandlerFunc(s.editTopic)))
	mux.Handle("POST /topics/reorder", validation.ValidateJSON[dto.ReorderTopicsRequest](http.HandlerFunc(s.reorderTopics)))
	mux.Handle("PUT /topics/bio", validation.ValidateJSON[dto.UpdateBioRequest](http.HandlerFunc(s.updateBio)))
	mux.HandleFunc("DELETE /topics/{id}", s.deleteTopic)

	mux.Handle("POST /tasks", validation.ValidateJSON[dto.CreateTaskRequest](http.HandlerFunc(s.createTask)))
	mux.Handle("PUT /tasks", validation.ValidateJSON[dto.EditTaskRequest](http.HandlerFunc(s.editTask)))
	mux.HandleFunc("POST /tasks/{id}/toggle", s.toggleTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.deleteTask)

	mux.Handle("POST /milestones", validation.ValidateJSON[dto.CreateMilestoneRequest](http.HandlerFunc(s.createMilestone)))
	mux.Handle("PUT /milestones", validation.ValidateJSON[dto.EditMilestoneRequest](http.HandlerFunc(s.editMilestone)))
	mux.HandleFunc("DELETE /milestones/{id}", s.deleteMilestone)

	mux.HandleFunc("POST /sweep", s.sweep)
	mux.Handle("GET /archive", validation.ValidateQuery(map[string]string{
		"kind":   "omitempty,oneof=stale done",
		"limit":  "omitempty,number,min=0",
		"offset": "omitempty,number,min=0",
		"since":  "omitempty,datetime=2006-01-02T15:04:05Z07:00",
		"before": "omitempty,datetime=2006-01-02T15:04:05Z07:00",
	})(http.HandlerFunc(s.archive)))

	return mux
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Ping(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = fmt.Fprint(w, "ok")
}

func (s *server) board(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Board())
}

func (s *server) buckets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Buckets(s.rt.Now()))
}

func (s *server) history(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.History())
}

func (s *server) undo(w http.ResponseWriter, r *http.Request) {
	desc, ok, err := s.rt.Undo(r.Context())
	s.writeHistory(w, desc, ok, err)
}

func (s *server) redo(w http.ResponseWriter, r *http.Request) {
	desc, ok, err := s.rt.Redo(r.Context())
	s.writeHistory(w, desc, ok, err)
}

func (s *server) writeHistory(w http.ResponseWriter, desc string, ok bool, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := s.rt.History()
	resp.Applied = ok
	resp.Description = desc
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) createTopic(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.CreateTopicRequest](r.Context())
	topic, err := s.rt.CreateTopic(r.Context(), *req)
	s.respond(w, http.StatusCreated, topic, err)
}

func (s *server) editTopic(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.EditTopicRequest](r.Context())
	topic, err := s.rt.EditTopic(r.Context(), *req)
	s.respond(w, http.StatusOK, topic, err)
}

func (s *server) reorderTopics(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.ReorderTopicsRequest](r.Context())
	moved, err := s.rt.ReorderTopics(r.Context(), *req)
	s.respond(w, http.StatusOK, map[string]bool{"moved": moved}, err)
}

func (s *server) updateBio(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.UpdateBioRequest](r.Context())
	s.respond(w, http.StatusNoContent, nil, s.rt.UpdateBio(r.Context(), *req))
}

func (s *server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusNoContent, nil, s.rt.DeleteTopic(r.Context(), r.PathValue("id")))
}

func (s *server) createTask(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.CreateTaskRequest](r.Context())
	task, err := s.rt.CreateTask(r.Context(), *req)
	s.respond(w, http.StatusCreated, task, err)
}

func (s *server) editTask(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.EditTaskRequest](r.Context())
	task, err := s.rt.EditTask(r.Context(), *req)
	s.respond(w, http.StatusOK, task, err)
}

func (s *server) toggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.rt.ToggleTask(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, task, err)
}

func (s *server) deleteTask(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusNoContent, nil, s.rt.DeleteTask(r.Context(), r.PathValue("id")))
}

func (s *server) createMilestone(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.CreateMilestoneRequest](r.Context())
	m, err := s.rt.CreateMilestone(r.Context(), *req)
	s.respond(w, http.StatusCreated, m, err)
}

func (s *server) editMilestone(w http.ResponseWriter, r *http.Request) {
	req, _ := validation.Body[dto.EditMilestoneRequest](r.Context())
	m, err := s.rt.EditMilestone(r.Context(), *req)
	s.respond(w, http.StatusOK, m, err)
}

func (s *server) deleteMilestone(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusNoContent, nil, s.rt.DeleteMilestone(r.Context(), r.PathValue("id")))
}

func (s *server) sweep(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Sweep(r.Context()).Response())
}

func (s *server) archive(w http.ResponseWriter, r *http.Request) {
	q, err := parseArchiveQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.rt.Archiver().List(r.Context(), q)
	s.respond(w, http.StatusOK, dto.ArchiveResponse{Records: records}, err)
}

// parseArchiveQuery reads query parameters already checked by
// ValidateQuery.
func parseArchiveQuery(r *http.Request) (dto.ArchiveQuery, error) {
	query := r.URL.Query()
	q := dto.ArchiveQuery{TopicID: query.Get("topic_id")}
	q.Kind = archive.Kind(query.Get("kind"))
	var err error
	if v := query.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return q, fmt.Errorf("%w: limit: %v", dto.ErrInvalidRequest, err)
		}
	}
	if v := query.Get("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			return q, fmt.Errorf("%w: offset: %v", dto.ErrInvalidRequest, err)
		}
	}
	for name, dst := range map[string]**time.Time{"since": &q.Since, "before": &q.Before} {
		if v := query.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return q, fmt.Errorf("%w: %s: %v", dto.ErrInvalidRequest, name, err)
			}
			*dst = &t
		}
	}
	return q, nil
}

func (s *server) respond(w http.ResponseWriter, status int, body any, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	var verrs validation.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		validation.WriteErrors(w, http.StatusBadRequest, verrs)
	case errors.Is(err, dto.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, dto.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("taskflow-server: request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
