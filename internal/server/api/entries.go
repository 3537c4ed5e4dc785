// Package api provides HTTP API handlers for the target vision dashboard.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/frc2554/targetvision/internal/store"
)

// EntriesHandler exposes the latest values of one dashboard table.
type EntriesHandler struct {
	entries *store.EntryRepository
	table   string
}

// NewEntriesHandler creates an EntriesHandler reading table from s.
func NewEntriesHandler(s *store.Store, table string) *EntriesHandler {
	return &EntriesHandler{entries: s.Entries(), table: table}
}

// ServeHTTP routes /api/entries and /api/entries/{key}.
func (h *EntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/entries")
	key = strings.TrimPrefix(key, "/")

	if key == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, key)
	case http.MethodDelete:
		h.delete(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type entryResponse struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt string          `json:"updated_at"`
}

type listResponse struct {
	Table   string          `json:"table"`
	Entries []entryResponse `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(e *store.Entry) entryResponse {
	return entryResponse{
		Key:       e.Key,
		Value:     e.Value,
		UpdatedAt: e.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *EntriesHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.List(h.table)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}

	response := listResponse{Table: h.table, Entries: make([]entryResponse, 0, len(entries))}
	for _, e := range entries {
		response.Entries = append(response.Entries, toResponse(e))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *EntriesHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	e, err := h.entries.Get(h.table, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get entry")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(e))
}

func (h *EntriesHandler) delete(w http.ResponseWriter, r *http.Request, key string) {
	if err := h.entries.Delete(h.table, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
