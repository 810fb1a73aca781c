package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/nbview/internal/export"
	"github.com/dgallion1/nbview/internal/notebook"
)

func (s *Server) decode(raw []byte) (*notebook.Document, error) {
	cls := notebook.NewClassifier(notebook.WithDeclarativeCharts(s.cfg.VegaLite))
	return notebook.Decode(bytes.NewReader(raw), notebook.WithClassifier(cls))
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var malformed *notebook.MalformedError
	if errors.As(err, &malformed) {
		jsonError(w, malformed.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, "invalid notebook: "+err.Error(), http.StatusBadRequest)
}

// handleView serves a stored notebook as an HTML page. Optional from/to
// query parameters select a cell range.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	entry, raw, ok := s.loadNotebook(w, r)
	if !ok {
		return
	}
	doc, err := s.decode(raw)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	q := r.URL.Query()
	from, err := intParam(q.Get("from"), 0)
	if err != nil {
		jsonError(w, "from: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := intParam(q.Get("to"), doc.Len())
	if err != nil {
		jsonError(w, "to: "+err.Error(), http.StatusBadRequest)
		return
	}
	doc = doc.Slice(from, to)

	s.render(w, doc, "html", entry.Name)
}

// handleRenderNotebook renders a stored notebook. split=N&part=1|2 renders
// one half of the document split at N.
func (s *Server) handleRenderNotebook(w http.ResponseWriter, r *http.Request) {
	entry, raw, ok := s.loadNotebook(w, r)
	if !ok {
		return
	}
	doc, err := s.decode(raw)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	q := r.URL.Query()
	if v := q.Get("split"); v != "" {
		at, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "split must be an integer", http.StatusBadRequest)
			return
		}
		first, second := doc.Split(at)
		switch q.Get("part") {
		case "", "1":
			doc = first
		case "2":
			doc = second
		default:
			jsonError(w, "part must be 1 or 2", http.StatusBadRequest)
			return
		}
	}

	s.render(w, doc, formatParam(r), entry.Name)
}

// handleRender renders a notebook posted as the request body without
// storing it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	raw, err := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.decode(raw)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	s.render(w, doc, formatParam(r), "Notebook")
}

// render exports doc into a buffer first so a failed render never leaves a
// half-written response.
func (s *Server) render(w http.ResponseWriter, doc *notebook.Document, format, title string) {
	opts := s.cfg.ExportOptions()
	opts.Title = strings.TrimSuffix(title, ".ipynb")
	opts.Logger = s.log
	exp, err := export.NewExporter(format, opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	start := time.Now()
	err = exp.Export(doc, &buf)
	if s.stats != nil {
		s.stats.Record(format, time.Since(start), err != nil)
	}
	if err != nil {
		s.log.Warn("render failed", "format", format, "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType())
	if format == "docx" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", opts.Title+"."+exp.Extension()))
	}
	w.Write(buf.Bytes())
}

func formatParam(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return "html"
}

func intParam(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	return n, nil
}
