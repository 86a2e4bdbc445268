package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/config"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/dgallion1/docblocks/internal/pipeline"
	"github.com/dgallion1/docblocks/internal/registry"
)

const (
	testKey = "secret"
	testDoc = "Hello\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nBye"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,
		JobTTL:         time.Hour,
		EditableKinds:  []string{"table"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		orch.Stop()
	})

	return NewServer(registry.New(cfg.SessionTTL), orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server, text string) sessionResponse {
	t.Helper()
	body, _ := json.Marshal(documentRequest{Name: "doc", Text: text})
	rec := do(t, s, http.MethodPost, "/api/sessions", string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func flatten(t *testing.T, s *Server, id string) string {
	t.Helper()
	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/document", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("flatten: expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	for _, header := range []string{"", "Bearer wrong", "Basic " + testKey} {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{}`))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestCreateSession_Blocks(t *testing.T) {
	s := newTestServer(t)
	resp := createSession(t, s, testDoc)

	if resp.ID == "" || resp.Name != "doc" {
		t.Errorf("expected id and name, got %+v", resp)
	}
	want := []struct {
		id       string
		kind     block.Kind
		editable bool
	}{
		{"prose-0", block.KindProse, false},
		{"table-7", block.KindTable, true},
		{"prose-37", block.KindProse, false},
	}
	if len(resp.Blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %+v", len(want), resp.Blocks)
	}
	for i, w := range want {
		b := resp.Blocks[i]
		if b.ID != w.id || b.Kind != w.kind || b.Editable != w.editable {
			t.Errorf("block %d: expected %s/%s/%v, got %s/%s/%v", i, w.id, w.kind, w.editable, b.ID, b.Kind, b.Editable)
		}
	}
}

func TestCreateSession_EmptyDocument(t *testing.T) {
	s := newTestServer(t)
	resp := createSession(t, s, "")
	if resp.Blocks == nil || len(resp.Blocks) != 0 {
		t.Errorf("expected empty block list, got %v", resp.Blocks)
	}
	if got := flatten(t, s, resp.ID); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
}

func TestCreateSession_Upload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../fruit.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "name,qty\napple,3\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &buf)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Name != "fruit" {
		t.Errorf("expected name %q, got %q", "fruit", resp.Name)
	}
	if len(resp.Blocks) != 1 || resp.Blocks[0].Kind != block.KindTable {
		t.Errorf("expected one table block, got %+v", resp.Blocks)
	}
}

func TestCreateSession_UnsupportedUpload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "photo.png")
	fw.Write([]byte{0x89, 'P', 'N', 'G'})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &buf)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateBlock(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id+"/blocks/table-7", `{"text":"| a | b |\n|---|---|\n| 9 | 9 |\n"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp updateBlockResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Applied {
		t.Errorf("expected applied=true")
	}
	if got := flatten(t, s, id); !strings.Contains(got, "| 9 | 9 |") || !strings.HasPrefix(got, "Hello") {
		t.Errorf("expected edited table in document, got %q", got)
	}
}

func TestUpdateBlock_StaleID(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	before := flatten(t, s, id)

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id+"/blocks/table-999", `{"text":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp updateBlockResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Applied {
		t.Errorf("expected applied=false for unknown id")
	}
	if got := flatten(t, s, id); got != before {
		t.Errorf("expected document unchanged, got %q", got)
	}
}

func TestUpdateBlock_MissingText(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	if rec := do(t, s, http.MethodPut, "/api/sessions/"+id+"/blocks/table-7", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateCell(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID

	rec := do(t, s, http.MethodPatch, "/api/sessions/"+id+"/blocks/table-7/cells", `{"row":1,"col":1,"value":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := flatten(t, s, id); !strings.Contains(got, "| 1 | x |") {
		t.Errorf("expected edited cell in document, got %q", got)
	}

	tests := []struct {
		path string
		body string
		code int
	}{
		{"/blocks/table-7/cells", `{"row":5,"col":0,"value":"x"}`, http.StatusBadRequest},
		{"/blocks/prose-0/cells", `{"row":0,"col":0,"value":"x"}`, http.StatusBadRequest},
		{"/blocks/table-1/cells", `{"row":0,"col":0,"value":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := do(t, s, http.MethodPatch, "/api/sessions/"+id+tt.path, tt.body); rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, rec.Code)
		}
	}
}

func TestViewSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "Some **bold** text\n\n| a | b |\n|---|---|\n| 1 | 2 |\n").ID

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/view", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(resp.Blocks))
	}
	if !strings.Contains(resp.Blocks[0].HTML, "<strong>bold</strong>") {
		t.Errorf("expected rendered prose, got %q", resp.Blocks[0].HTML)
	}
	g := resp.Blocks[1].Grid
	if g == nil || g.Height() != 2 || g.Rows[1][1] != "2" {
		t.Errorf("expected table grid, got %+v", g)
	}
}

func TestReloadAndDelete(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id, `{"text":"only prose"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload: expected 200, got %d", rec.Code)
	}
	if got := flatten(t, s, id); got != "only prose" {
		t.Errorf("expected reloaded document, got %q", got)
	}

	if rec := do(t, s, http.MethodDelete, "/api/sessions/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestExportFlow(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	want := flatten(t, s, id)

	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/exports", `{"format":"md"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submit map[string]string
	json.NewDecoder(rec.Body).Decode(&submit)
	if submit["poll_url"] != "/api/exports/"+submit["job_id"]+"/status" {
		t.Errorf("unexpected poll_url %q", submit["poll_url"])
	}

	// Edits after submission do not reach the export.
	do(t, s, http.MethodPut, "/api/sessions/"+id+"/blocks/prose-0", `{"text":"Changed"}`)

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = do(t, s, http.MethodGet, submit["poll_url"], "")
		json.NewDecoder(rec.Body).Decode(&snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed job, got %+v", snap)
	}

	rec = do(t, s, http.MethodGet, "/api/exports/"+submit["job_id"]+"/download", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != want {
		t.Errorf("expected export of submitted document %q, got %q", want, got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "doc.md") {
		t.Errorf("expected filename in Content-Disposition, got %q", cd)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	if rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/exports", `{"format":"pdf"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/exports/nope/status", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestTableRows(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	rows := "/api/sessions/" + id + "/blocks/table-7/rows"

	rec := do(t, s, http.MethodPost, rows, `{"values":["3","4"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("append: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Grid grid.Grid `json:"grid"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Grid.Height() != 3 {
		t.Errorf("expected 3 rows, got %d", resp.Grid.Height())
	}

	if rec := do(t, s, http.MethodDelete, rows+"/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := flatten(t, s, id)
	if !strings.Contains(got, "| 3 | 4 |") || strings.Contains(got, "| 1 | 2 |") {
		t.Errorf("expected row 1 replaced by appended row, got %q", got)
	}
	if !strings.HasPrefix(got, "Hello") || !strings.HasSuffix(got, "Bye") {
		t.Errorf("expected surrounding prose unchanged, got %q", got)
	}
}

func TestTableRows_Errors(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, testDoc).ID
	before := flatten(t, s, id)
	base := "/api/sessions/" + id + "/blocks/"

	tests := []struct {
		method string
		path   string
		body   string
		code   int
	}{
		{http.MethodPost, "table-7/rows", `{"values":["a","b","c"]}`, http.StatusBadRequest},
		{http.MethodPost, "prose-0/rows", "", http.StatusBadRequest},
		{http.MethodPost, "table-1/rows", "", http.StatusNotFound},
		{http.MethodDelete, "table-7/rows/0", "", http.StatusBadRequest},
		{http.MethodDelete, "table-7/rows/5", "", http.StatusBadRequest},
		{http.MethodDelete, "table-7/rows/abc", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, s, tt.method, base+tt.path, tt.body); rec.Code != tt.code {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.code, rec.Code)
		}
	}
	if got := flatten(t, s, id); got != before {
		t.Errorf("expected failed edits to leave document unchanged, got %q", got)
	}
}

func TestViewSession_PlainText(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "Some **bold** text\n\n| a | b |\n|---|---|\n| 1 | 2 |\n").ID

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/view?format=text", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if got := resp.Blocks[0].Plain; got != "Some bold text" {
		t.Errorf("expected plain prose %q, got %q", "Some bold text", got)
	}
	if resp.Blocks[0].HTML != "" {
		t.Errorf("expected no html in text view, got %q", resp.Blocks[0].HTML)
	}
	if resp.Blocks[1].Grid == nil {
		t.Errorf("expected table grid in text view")
	}
}
