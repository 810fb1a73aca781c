package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/nbview/internal/library"
)

// notebookItem is a library entry decorated for display.
type notebookItem struct {
	library.Entry
	SizeHuman string `json:"size_human"`
	Age       string `json:"age"`
}

func newNotebookItem(e library.Entry, now time.Time) notebookItem {
	return notebookItem{
		Entry:     e,
		SizeHuman: humanize.Bytes(uint64(e.Size)),
		Age:       humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	name = sanitizeFilename(name)
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".ipynb" && ext != ".json" {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	// Reject notebooks that would fail to render later.
	doc, err := s.decode(data)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	entry, err := s.library.Put(r.Context(), name, data)
	if err != nil {
		s.log.Error("store notebook", "name", name, "error", err)
		jsonError(w, "failed to store notebook", http.StatusInternalServerError)
		return
	}
	s.log.Info("notebook stored", "id", entry.ID, "name", entry.Name, "cells", doc.Len())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"notebook": newNotebookItem(entry, time.Now()),
		"cells":    doc.Len(),
		"language": doc.Language(),
		"view_url": fmt.Sprintf("/view/%s", entry.ID),
	})
}

func (s *Server) handleListNotebooks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.library.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list notebooks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	items := make([]notebookItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, newNotebookItem(e, now))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"notebooks": items})
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.library.Delete(r.Context(), id)
	if errors.Is(err, library.ErrNotFound) {
		jsonError(w, "notebook not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete notebook: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"id": id, "deleted": true})
}

// loadNotebook fetches a stored notebook, writing the error
// response itself when it fails.
func (s *Server) loadNotebook(w http.ResponseWriter, r *http.Request) (library.Entry, []byte, bool) {
	id := chi.URLParam(r, "id")
	entry, raw, err := s.library.Get(r.Context(), id)
	if errors.Is(err, library.ErrNotFound) {
		jsonError(w, "notebook not found", http.StatusNotFound)
		return library.Entry{}, nil, false
	}
	if err != nil {
		jsonError(w, "failed to load notebook: "+err.Error(), http.StatusInternalServerError)
		return library.Entry{}, nil, false
	}
	return entry, raw, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
