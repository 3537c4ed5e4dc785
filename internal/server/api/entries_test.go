package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/frc2554/targetvision/internal/store"
)

const testTable = "Shuffleboard/Vision"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestEntriesHandler_List(t *testing.T) {
	s := newTestStore(t)
	if err := s.Entries().PutMany(testTable, map[string]any{
		"yaw_angle":     -12.5,
		"target_exists": true,
	}); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	if err := s.Entries().Put("Shuffleboard/Drive", "speed", 3); err != nil {
		t.Fatal(err)
	}

	handler := NewEntriesHandler(s, testTable)
	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var response listResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Table != testTable {
		t.Errorf("table = %q", response.Table)
	}
	if len(response.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(response.Entries))
	}
	if response.Entries[0].Key != "target_exists" || string(response.Entries[0].Value) != "true" {
		t.Errorf("entries[0] = %+v", response.Entries[0])
	}
	if response.Entries[1].Key != "yaw_angle" || string(response.Entries[1].Value) != "-12.5" {
		t.Errorf("entries[1] = %+v", response.Entries[1])
	}
}

func TestEntriesHandler_ListEmpty(t *testing.T) {
	handler := NewEntriesHandler(newTestStore(t), testTable)
	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var response struct {
		Entries []entryResponse `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.Entries == nil || len(response.Entries) != 0 {
		t.Errorf("entries = %v, want empty array", response.Entries)
	}
}

func TestEntriesHandler_Get(t *testing.T) {
	s := newTestStore(t)
	if err := s.Entries().Put(testTable, "center1", [2]int{50, 60}); err != nil {
		t.Fatal(err)
	}
	handler := NewEntriesHandler(s, testTable)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing key", "/api/entries/center1", http.StatusOK},
		{"missing key", "/api/entries/center2", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var e entryResponse
			if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if string(e.Value) != "[50,60]" {
				t.Errorf("value = %s", e.Value)
			}
			if e.UpdatedAt == "" {
				t.Error("updated_at should be set")
			}
		})
	}
}

func TestEntriesHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	if err := s.Entries().Put(testTable, "run_id", "abc"); err != nil {
		t.Fatal(err)
	}
	handler := NewEntriesHandler(s, testTable)

	req := httptest.NewRequest(http.MethodDelete, "/api/entries/run_id", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/entries/run_id", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEntriesHandler_MethodNotAllowed(t *testing.T) {
	handler := NewEntriesHandler(newTestStore(t), testTable)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/entries"},
		{http.MethodDelete, "/api/entries"},
		{http.MethodPut, "/api/entries/yaw_angle"},
		{http.MethodPost, "/api/entries/yaw_angle"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}
