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

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/pipeline"
	"github.com/dgallion1/readaloud/internal/session"
	"github.com/dgallion1/readaloud/internal/speech/mock"
)

const testKey = "secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1024,
		JobTTL:         time.Hour,
	}
	lib := library.New(time.Hour)
	orch := pipeline.NewOrchestrator(cfg, lib, log)
	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(orch.Stop)

	desk := session.New(mock.New(time.Second), session.Options{Chunk: chunker.DefaultConfig()}, log)
	t.Cleanup(desk.Close)
	t.Cleanup(cancel) // registered last so it runs first, like t.Context
	return NewServer(orch, lib, desk, nil, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, method, path, strings.NewReader(body), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func upload(t *testing.T, s *Server, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return do(t, s, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
}

// uploadReady uploads a file and waits for its job to finish.
func uploadReady(t *testing.T, s *Server, filename, content string) pipeline.JobSnapshot {
	t.Helper()
	rec := upload(t, s, filename, content)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload: expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, rec, &accepted)

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := do(t, s, http.MethodGet, accepted.PollURL, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("job status: expected 200, got %d", rec.Code)
		}
		var snap pipeline.JobSnapshot
		decode(t, rec, &snap)
		if snap.Status.Done() {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatal("job never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong bearer", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + testKey, "", http.StatusOK},
		{"query token", "", "?token=" + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuth_DisabledWithoutKey(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := AuthMiddleware("", log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected pass-through, got %d", rec.Code)
	}
}

func TestUpload_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := upload(t, s, "virus.exe", "MZ")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", rec.Code)
	}

	rec = upload(t, s, "big.txt", strings.Repeat("a", 2048))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("too large: expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1.0 kB") {
		t.Errorf("expected human-readable limit, got %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/documents", strings.NewReader("x"), "text/plain")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("not multipart: expected 400, got %d", rec.Code)
	}
}

func TestUpload_DuplicateAndFailure(t *testing.T) {
	s := newTestServer(t)

	first := uploadReady(t, s, "a.txt", "Same text.")
	if first.Status != pipeline.StatusReady {
		t.Fatalf("expected ready, got %s", first.Status)
	}
	second := uploadReady(t, s, "b.txt", "Same text.")
	if second.Status != pipeline.StatusDuplicate || second.DocID != first.DocID {
		t.Errorf("expected duplicate of %s, got %s %s", first.DocID, second.Status, second.DocID)
	}

	failed := uploadReady(t, s, "blank.txt", "   ")
	if failed.Status != pipeline.StatusFailed || len(failed.Result.Errors) == 0 {
		t.Errorf("expected failure with errors, got %+v", failed)
	}

	rec := do(t, s, http.MethodGet, "/api/jobs/unknown", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job: expected 404, got %d", rec.Code)
	}
}

func TestReadingFlow(t *testing.T) {
	s := newTestServer(t)
	job := uploadReady(t, s, "book.txt", "Page one text.\f\nPage two text.")

	rec := do(t, s, http.MethodGet, "/api/documents", nil, "")
	var list struct {
		Documents []library.Summary `json:"documents"`
	}
	decode(t, rec, &list)
	if len(list.Documents) != 1 || list.Documents[0].Pages != 2 {
		t.Fatalf("unexpected document list: %+v", list.Documents)
	}

	// Nothing open yet.
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/read/start", ""); rec.Code != http.StatusConflict {
		t.Errorf("start without document: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/documents/"+job.DocID+"/open", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/desk/read/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var st session.Status
	decode(t, rec, &st)
	if !st.Reader.Reading || st.Page != 1 {
		t.Errorf("expected reading page 1, got %+v", st)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/desk/read/pause", ""); rec.Code != http.StatusOK {
		t.Errorf("pause: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/read/pause", ""); rec.Code != http.StatusConflict {
		t.Errorf("second pause: expected 409, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/read/resume", ""); rec.Code != http.StatusOK {
		t.Errorf("resume: expected 200, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/desk/text", nil, "")
	var view session.PageView
	decode(t, rec, &view)
	if view.Text != "Page one text." {
		t.Errorf("unexpected page text %q", view.Text)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/desk/page/next", "")
	decode(t, rec, &st)
	if st.Page != 2 || st.Reader.Reading {
		t.Errorf("next page should move and stop reading, got %+v", st)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/desk/page/next", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("past last page: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/page", `{"page": 1}`); rec.Code != http.StatusOK {
		t.Errorf("go to page 1: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/page", `{"page": 9}`); rec.Code != http.StatusBadRequest {
		t.Errorf("go to page 9: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/desk/page", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/desk/read/stop", ""); rec.Code != http.StatusOK {
		t.Errorf("stop: expected 200, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/documents/"+job.DocID, nil, "")
	var del map[string]any
	decode(t, rec, &del)
	if del["desk_closed"] != true {
		t.Errorf("expected open document to be closed on delete: %v", del)
	}
	if rec := do(t, s, http.MethodDelete, "/api/documents/"+job.DocID, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestSpeak(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/speak", `{"text": "hello"}`); rec.Code != http.StatusAccepted {
		t.Errorf("speak: expected 202, got %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/speak", `{"text": "  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty speak: expected 400, got %d", rec.Code)
	}
}

func TestSpeechWS_Disabled(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/api/speech/ws", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestExtractStats(t *testing.T) {
	s := newTestServer(t)
	uploadReady(t, s, "a.txt", "Some words here.")

	rec := do(t, s, http.MethodGet, "/api/stats/extract", nil, "")
	var body struct {
		Documents int                    `json:"documents"`
		Stats     pipeline.StatsSnapshot `json:"stats"`
	}
	decode(t, rec, &body)
	if body.Documents != 1 || body.Stats.Count != 1 {
		t.Errorf("unexpected stats: %+v", body)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd.txt", "passwd.txt"},
		{`C:\Users\me\notes.md`, "notes.md"},
		{"", "unnamed"},
		{"a..b.txt", "a_b.txt"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
