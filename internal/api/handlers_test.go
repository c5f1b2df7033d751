package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/iforgot/internal/classifier"
	"github.com/xaenox/iforgot/internal/models"
	"github.com/xaenox/iforgot/internal/notes"
	"github.com/xaenox/iforgot/internal/storage"
	"github.com/xaenox/iforgot/internal/transcribe"
)

const owner = "owner-1"

func init() {
	gin.SetMode(gin.TestMode)
}

type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, req classifier.Request) (*models.Judgment, error)
}

func (m *MockClassifier) Classify(ctx context.Context, req classifier.Request) (*models.Judgment, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, req)
	}
	return nil, classifier.ErrNotConfigured
}

type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio io.Reader, mimeType string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, mimeType)
	}
	return "", transcribe.ErrNoProvider
}

type ownerlessStore struct {
	*storage.MemoryStorage
}

func (ownerlessStore) InsertNote(ctx context.Context, note *models.Note) error {
	return storage.ErrOwnerNotFound
}

type testServer struct {
	server *Server
	store  *storage.MemoryStorage
	clf    *MockClassifier
	tr     *MockTranscriber
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	store := storage.NewMemoryStorage()
	clf := &MockClassifier{}
	tr := &MockTranscriber{}
	svc := notes.NewService(store, clf, zap.NewNop())
	return &testServer{
		server: NewServer(svc, tr, cfg, zap.NewNop()),
		store:  store,
		clf:    clf,
		tr:     tr,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return serve(t, ts.server, req)
}

func serve(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func judging(action models.CategoryAction, name string, confidence float64) func(context.Context, classifier.Request) (*models.Judgment, error) {
	return func(ctx context.Context, req classifier.Request) (*models.Judgment, error) {
		return &models.Judgment{
			Themes:      []string{"errands"},
			Sentiment:   models.SentimentNeutral,
			ActionItems: []string{"buy milk"},
			Category:    models.CategoryJudgment{Action: action, Name: name, Confidence: confidence},
		}, nil
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})
	code, body := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateNote_AutoAssigns(t *testing.T) {
	ts := newTestServer(t, Config{})
	groceries := &models.Category{UserID: owner, Name: "Groceries"}
	require.NoError(t, ts.store.InsertCategory(context.Background(), groceries))
	ts.clf.ClassifyFunc = judging(models.CategoryAssign, "Groceries", 0.95)

	code, body := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "buy milk", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["aiProcessingSkipped"])
	assert.NotContains(t, body, "warning")

	category := body["category"].(map[string]any)
	assert.Equal(t, true, category["autoAssigned"])
	assert.Equal(t, false, category["requiresConfirmation"])
	assert.Equal(t, "assign", category["suggestedAction"])
	assert.Equal(t, "Groceries", category["suggestedName"])
	assert.InDelta(t, 0.95, category["confidence"], 1e-9)

	note := body["note"].(map[string]any)
	assert.Equal(t, groceries.ID, note["category_id"])
	assert.Len(t, note["tasks"], 1)
}

func TestCreateNote_DefersAtThreshold(t *testing.T) {
	ts := newTestServer(t, Config{})
	require.NoError(t, ts.store.InsertCategory(context.Background(), &models.Category{UserID: owner, Name: "Groceries"}))
	ts.clf.ClassifyFunc = judging(models.CategoryAssign, "Groceries", 0.8)

	code, body := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "buy milk", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)

	category := body["category"].(map[string]any)
	assert.Equal(t, false, category["autoAssigned"])
	assert.Equal(t, true, category["requiresConfirmation"])
	assert.Equal(t, "create", category["suggestedAction"])
	assert.Nil(t, body["note"].(map[string]any)["category_id"])

	id := body["note"].(map[string]any)["id"].(string)
	stored, err := ts.store.GetNote(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)
}

func TestCreateNote_ClassifierUnavailable(t *testing.T) {
	ts := newTestServer(t, Config{})

	code, body := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "random thought", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, true, body["aiProcessingSkipped"])
	assert.Contains(t, body["warning"], "ANTHROPIC_API_KEY")

	category := body["category"].(map[string]any)
	assert.Equal(t, "none", category["suggestedAction"])
	assert.Equal(t, "Uncategorized", category["suggestedName"])
	assert.Equal(t, float64(0), category["confidence"])
}

func TestCreateNote_Validation(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing content", gin.H{"ownerId": owner}, "content"},
		{"missing owner", gin.H{"content": "hello"}, "ownerId"},
		{"unknown template", gin.H{"content": "hello", "ownerId": owner, "template": "poetry"}, "Unknown template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPost, "/api/notes", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestCreateNote_InvalidJSON(t *testing.T) {
	ts := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")

	code, body := serve(t, ts.server, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "Invalid JSON")
}

func TestCreateNote_OwnerMissing(t *testing.T) {
	svc := notes.NewService(ownerlessStore{storage.NewMemoryStorage()}, nil, zap.NewNop())
	s := NewServer(svc, &MockTranscriber{}, Config{}, zap.NewNop())

	raw, _ := json.Marshal(gin.H{"content": "hello", "ownerId": owner})
	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	code, body := serve(t, s, req)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["error"], "migrate --seed-demo-owner")
}

func TestNoteLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})

	_, created := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "first", "ownerId": owner})
	id := created["note"].(map[string]any)["id"].(string)

	code, body := ts.do(t, http.MethodGet, "/api/notes/"+id+"?ownerId="+owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "first", body["note"].(map[string]any)["content"])

	code, body = ts.do(t, http.MethodPut, "/api/notes/"+id, gin.H{"content": "edited", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "edited", body["note"].(map[string]any)["content"])

	code, _ = ts.do(t, http.MethodPut, "/api/notes", gin.H{"noteId": id, "content": "again", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, http.MethodGet, "/api/notes?ownerId="+owner, nil)
	require.Equal(t, http.StatusOK, code)
	list := body["notes"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "again", list[0].(map[string]any)["content"])

	code, _ = ts.do(t, http.MethodDelete, "/api/notes/"+id+"?ownerId="+owner, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, http.MethodGet, "/api/notes/"+id+"?ownerId="+owner, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "note not found", body["error"])
}

func TestGetNote_OtherOwner(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, created := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "private", "ownerId": owner})
	id := created["note"].(map[string]any)["id"].(string)

	code, _ := ts.do(t, http.MethodGet, "/api/notes/"+id+"?ownerId=someone-else", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListNotes_Params(t *testing.T) {
	ts := newTestServer(t, Config{})
	for _, content := range []string{"one", "two", "three"} {
		code, _ := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": content, "ownerId": owner})
		require.Equal(t, http.StatusOK, code)
	}

	code, body := ts.do(t, http.MethodGet, "/api/notes?ownerId="+owner+"&limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["notes"], 2)

	code, _ = ts.do(t, http.MethodGet, "/api/notes?ownerId="+owner+"&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodGet, "/api/notes", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, Config{})

	code, body := ts.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Work", "ownerId": owner})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Work", body["category"].(map[string]any)["name"])

	code, body = ts.do(t, http.MethodGet, "/api/categories?ownerId="+owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["categories"], 1)

	code, _ = ts.do(t, http.MethodPost, "/api/categories", gin.H{"ownerId": owner})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateCategory_AssignsNote(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, created := ts.do(t, http.MethodPost, "/api/notes", gin.H{"content": "milk", "ownerId": owner})
	noteID := created["note"].(map[string]any)["id"].(string)

	code, body := ts.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Groceries", "ownerId": owner, "noteId": noteID})
	require.Equal(t, http.StatusOK, code)
	categoryID := body["categoryId"].(string)
	assert.NotEmpty(t, categoryID)
	assert.Equal(t, "Category created and assigned to note", body["message"])

	note, err := ts.store.GetNote(context.Background(), owner, noteID)
	require.NoError(t, err)
	require.NotNil(t, note.CategoryID)
	assert.Equal(t, categoryID, *note.CategoryID)
}

func TestCreateCategory_UnknownNote(t *testing.T) {
	ts := newTestServer(t, Config{})
	code, _ := ts.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Groceries", "ownerId": owner, "noteId": "missing"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTemplates(t *testing.T) {
	ts := newTestServer(t, Config{})
	code, body := ts.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, code)

	list := body["templates"].([]any)
	require.NotEmpty(t, list)
	assert.Equal(t, classifier.DefaultTemplate, list[0].(map[string]any)["key"])
}

func audioRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "memo.webm")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestTranscribe(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.tr.TranscribeFunc = func(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
		data, err := io.ReadAll(audio)
		if err != nil {
			return "", err
		}
		if string(data) != "voice" {
			return "", errors.New("unexpected audio")
		}
		return "remember the milk", nil
	}

	code, body := serve(t, ts.server, audioRequest(t, "audio", []byte("voice")))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "remember the milk", body["text"])
}

func TestTranscribe_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		ts := newTestServer(t, Config{})
		code, body := serve(t, ts.server, audioRequest(t, "file", []byte("voice")))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "No audio file provided", body["error"])
	})

	t.Run("too large", func(t *testing.T) {
		ts := newTestServer(t, Config{MaxAudioBytes: 3})
		code, _ := serve(t, ts.server, audioRequest(t, "audio", []byte("voice")))
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("no provider", func(t *testing.T) {
		ts := newTestServer(t, Config{})
		code, body := serve(t, ts.server, audioRequest(t, "audio", []byte("voice")))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "No transcription API key configured", body["error"])
	})

	t.Run("provider failure", func(t *testing.T) {
		ts := newTestServer(t, Config{})
		ts.tr.TranscribeFunc = func(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
			return "", errors.New("deepgram returned status 502")
		}
		code, body := serve(t, ts.server, audioRequest(t, "audio", []byte("voice")))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Contains(t, body["error"], "502")
	})
}

func TestSimpleNotes(t *testing.T) {
	ts := newTestServer(t, Config{DemoOwnerID: "demo"})

	code, body := ts.do(t, http.MethodPost, "/api/simple-notes", gin.H{"content": "quick thought"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demo", body["note"].(map[string]any)["user_id"])

	code, body = ts.do(t, http.MethodGet, "/api/simple-notes", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["notes"], 1)

	code, _ = ts.do(t, http.MethodPost, "/api/simple-notes", gin.H{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSimpleNotes_NoDemoOwner(t *testing.T) {
	ts := newTestServer(t, Config{})
	code, body := ts.do(t, http.MethodGet, "/api/simple-notes", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "demo owner is not configured", body["error"])
}
