package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/go-chi/chi/v5"
)

type updateBlockRequest struct {
	Text *string `json:"text"`
}

type updateBlockResponse struct {
	BlockID string `json:"block_id"`
	Applied bool   `json:"applied"`
}

type cellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// handleUpdateBlock replaces a block's text. An unknown id is not an error:
// the edit is dropped and the response reports applied=false.
func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}

	var req updateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == nil {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "blockID")
	var applied bool
	e.Do(func(sess *session.Session) { applied = sess.UpdateBlock(id, *req.Text) })
	if !applied {
		s.log.Debug("stale block update ignored", "session_id", e.ID, "block_id", id)
	}
	writeJSON(w, http.StatusOK, updateBlockResponse{BlockID: id, Applied: applied})
}

type rowRequest struct {
	Values []string `json:"values"`
}

// handleUpdateCell edits one cell of a table block.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.editTable(w, r, func(g *grid.Grid) error {
		return g.SetCell(req.Row, req.Col, req.Value)
	})
}

// handleAppendRow adds a data row to a table block, optionally filled from
// values. Extra values beyond the table width are rejected.
func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	s.editTable(w, r, func(g *grid.Grid) error {
		g.AppendRow()
		row := g.Height() - 1
		for c, v := range req.Values {
			if err := g.SetCell(row, c, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// handleDeleteRow removes a data row. Row 0 is the header and cannot be
// deleted.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		jsonError(w, "invalid row: "+chi.URLParam(r, "row"), http.StatusBadRequest)
		return
	}
	s.editTable(w, r, func(g *grid.Grid) error {
		return g.DeleteRow(row)
	})
}

// editTable applies op to the grid of a table block and writes the
// regenerated table text back into the session. A failed op leaves the
// block unchanged.
func (s *Server) editTable(w http.ResponseWriter, r *http.Request, op func(g *grid.Grid) error) {
	e := s.entry(w, r)
	if e == nil {
		return
	}

	id := chi.URLParam(r, "blockID")
	var (
		found bool
		kind  block.Kind
		g     *grid.Grid
		err   error
	)
	e.Do(func(sess *session.Session) {
		b, ok := sess.Block(id)
		if !ok {
			return
		}
		found, kind = true, b.Kind
		if b.Kind != block.KindTable {
			return
		}
		g = grid.Parse(b.Text)
		if err = op(g); err != nil {
			return
		}
		sess.UpdateBlock(id, g.Markdown())
	})

	switch {
	case !found:
		jsonError(w, "block not found", http.StatusNotFound)
	case kind != block.KindTable:
		jsonError(w, "block is not a table", http.StatusBadRequest)
	case errors.Is(err, grid.ErrOutOfRange):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		s.log.Debug("table edited", "session_id", e.ID, "block_id", id, "rows", g.Height())
		writeJSON(w, http.StatusOK, map[string]any{
			"block_id": id,
			"applied":  true,
			"grid":     g,
		})
	}
}
