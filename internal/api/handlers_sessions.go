package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/export"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/dgallion1/docblocks/internal/parser"
	"github.com/dgallion1/docblocks/internal/registry"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/go-chi/chi/v5"
)

type documentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type blockView struct {
	block.Block
	Editable bool       `json:"editable"`
	HTML     string     `json:"html,omitempty"`
	Plain    string     `json:"plain,omitempty"`
	Grid     *grid.Grid `json:"grid,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type sessionResponse struct {
	ID        string      `json:"session_id"`
	Name      string      `json:"name"`
	UpdatedAt time.Time   `json:"updated_at"`
	Blocks    []blockView `json:"blocks"`
}

// handleCreateSession loads a document from a multipart upload or a JSON body.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name, text, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	e := s.sessions.Create(name, text)
	s.log.Info("session created", "session_id", e.ID, "name", name, "bytes", len(text))
	s.writeSession(w, http.StatusCreated, e)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	s.writeSession(w, http.StatusOK, e)
}

// handleReloadSession replaces the whole block sequence. Ids from the
// previous load become stale.
func (s *Server) handleReloadSession(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	name, text, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	e.Do(func(sess *session.Session) { sess.Load(text) })
	if name != "" {
		e.Rename(name)
	}
	s.writeSession(w, http.StatusOK, e)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleViewSession returns the presentation of every block: rendered HTML
// for prose (plain text with ?format=text), cells for tables. A rendering failure is reported on the block
// and does not affect the session.
func (s *Server) handleViewSession(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	plain := r.URL.Query().Get("format") == "text"
	views := s.blockViews(e)
	for i := range views {
		v := &views[i]
		switch v.Kind {
		case block.KindTable:
			v.Grid = grid.Parse(v.Text)
		case block.KindProse:
			var err error
			if plain {
				v.Plain, err = s.renderer.PlainText(v.Text)
			} else {
				v.HTML, err = s.renderer.HTML(v.Text)
			}
			if err != nil {
				v.Error = err.Error()
			}
		}
	}
	name, updated := e.Info()
	writeJSON(w, http.StatusOK, sessionResponse{ID: e.ID, Name: name, UpdatedAt: updated, Blocks: views})
}

// handleFlatten returns the reassembled document.
func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	var doc string
	e.Do(func(sess *session.Session) { doc = sess.Flatten() })
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, doc)
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) *registry.Entry {
	e := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if e == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return e
}

func (s *Server) blockViews(e *registry.Entry) []blockView {
	var views []blockView
	e.Do(func(sess *session.Session) {
		for _, b := range sess.Snapshot() {
			views = append(views, blockView{Block: b, Editable: sess.Editable(b.ID)})
		}
	})
	if views == nil {
		views = []blockView{}
	}
	return views
}

func (s *Server) writeSession(w http.ResponseWriter, code int, e *registry.Entry) {
	views := s.blockViews(e)
	name, updated := e.Info()
	writeJSON(w, code, sessionResponse{ID: e.ID, Name: name, UpdatedAt: updated, Blocks: views})
}

// readDocument extracts a document from either a multipart "file" field or a
// JSON body. It writes the error response itself and reports ok=false.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (name, text string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return s.readUpload(w, r)
	}

	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	if int64(len(req.Text)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", "", false
	}
	return req.Name, req.Text, true
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", "", false
	}
	imp, err := parser.ForFile(filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return "", "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", "", false
	}

	text, err := imp.Import(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Error("import failed", "filename", filename, "error", err)
		jsonError(w, "import failed: "+err.Error(), http.StatusUnprocessableEntity)
		return "", "", false
	}

	name := r.FormValue("name")
	if name == "" {
		name = parser.Title(filename)
	}
	return name, text, true
}

func sanitizeFilename(name string) string {
	if name = export.SanitizeName(name); name == "" {
		return "unnamed"
	}
	return name
}
