// Package server exposes the script store over a small REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/script"
	"github.com/ByLCY/prompter/store"
)

// ScriptStore is the storage the handler needs.
type ScriptStore interface {
	List(ctx context.Context, skip, limit int) ([]store.Script, error)
	Get(ctx context.Context, id int64) (store.Script, error)
	Create(ctx context.Context, f store.Fields) (store.Script, error)
	Update(ctx context.Context, id int64, f store.Fields) (store.Script, error)
	Delete(ctx context.Context, id int64) error
}

// Handler provides HTTP endpoints for script CRUD.
type Handler struct {
	store ScriptStore
}

// NewHandler creates a handler backed by s.
func NewHandler(s ScriptStore) *Handler {
	return &Handler{store: s}
}

// Routes returns an http.Handler with all API routes registered, wrapped in CORS.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Health)

	mux.HandleFunc("GET /scripts", h.List)
	mux.HandleFunc("GET /scripts/{$}", h.List)
	mux.HandleFunc("POST /scripts", h.Create)
	mux.HandleFunc("POST /scripts/{$}", h.Create)
	mux.HandleFunc("GET /scripts/{id}", h.Get)
	mux.HandleFunc("PUT /scripts/{id}", h.Update)
	mux.HandleFunc("DELETE /scripts/{id}", h.Delete)

	return withCORS(withLogging(mux))
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Message string `json:"message"`
}

// Health reports that the API is up.
// GET /
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Message: "Welcome to Prompter API"})
}

// List returns a page of scripts.
// GET /scripts/?skip=0&limit=100
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "skip must be an integer")
		return
	}
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "limit must be an integer")
		return
	}
	scripts, err := h.store.List(r.Context(), skip, limit)
	if err != nil {
		h.internalError(w, "list scripts", err)
		return
	}
	writeJSON(w, http.StatusOK, scripts)
}

// Create stores a new script.
// POST /scripts/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var f store.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid JSON body: "+err.Error())
		return
	}
	sc, err := h.store.Create(r.Context(), f)
	if err != nil {
		h.storeError(w, "create script", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// Get returns one script.
// GET /scripts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sc, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, "get script", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// Update applies a partial update; absent fields are left untouched.
// PUT /scripts/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var f store.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid JSON body: "+err.Error())
		return
	}
	sc, err := h.store.Update(r.Context(), id, f)
	if err != nil {
		h.storeError(w, "update script", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// Delete removes a script.
// DELETE /scripts/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.storeError(w, "delete script", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Script not found")
	case errors.Is(err, script.ErrInvalidSettings):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.internalError(w, op, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.ErrorErr(log.CatHTTP, "request failed", err, "op", op)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "script id must be an integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorErr(log.CatHTTP, "encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// withCORS allows any origin, method and header; preflight requests end here.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug(log.CatHTTP, "request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}
