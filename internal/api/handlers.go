package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xaenox/iforgot/internal/classifier"
	"github.com/xaenox/iforgot/internal/notes"
	"github.com/xaenox/iforgot/internal/storage"
	"github.com/xaenox/iforgot/internal/transcribe"
)

const (
	ownerMissingMessage = "Database setup incomplete: the owner does not exist yet. " +
		"Run `iforgot migrate --seed-demo-owner` or create the user row before saving notes."
	aiSkippedWarning = "Note saved without AI processing. Configure ANTHROPIC_API_KEY or OPENAI_API_KEY " +
		"to enable automatic categorization and theme extraction."
)

type createNoteRequest struct {
	Content  string `json:"content"`
	OwnerID  string `json:"ownerId"`
	Template string `json:"template"`
}

type updateNoteRequest struct {
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
	OwnerID string `json:"ownerId"`
}

type createCategoryRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	NoteID  string `json:"noteId"`
}

type simpleNoteRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

func (s *Server) handleCreateNote(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if missing := firstMissing("content", req.Content, "ownerId", req.OwnerID); missing != "" {
		badRequest(c, "Missing required field: "+missing)
		return
	}
	if !classifier.HasTemplate(req.Template) {
		badRequest(c, "Unknown template: "+req.Template)
		return
	}

	res, err := s.notes.CreateNote(c.Request.Context(), req.OwnerID, req.Content, req.Template)
	if err != nil {
		s.fail(c, err)
		return
	}

	body := gin.H{
		"success":             true,
		"note":                res.Note,
		"analysis":            res.Analysis,
		"aiProcessingSkipped": res.Skipped,
		"category": gin.H{
			"autoAssigned":         res.Decision.AutoAssigned,
			"requiresConfirmation": res.Decision.RequiresConfirmation,
			"suggestedAction":      res.Decision.SuggestedAction,
			"suggestedName":        res.Analysis.Category.Name,
			"confidence":           res.Analysis.Category.Confidence,
		},
	}
	if res.Skipped {
		body["warning"] = aiSkippedWarning
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleListNotes(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		badRequest(c, "Missing ownerId")
		return
	}

	filter := storage.NoteFilter{CategoryID: c.Query("categoryId")}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	list, err := s.notes.ListNotes(c.Request.Context(), ownerID, filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"notes":   list,
	})
}

func (s *Server) handleGetNote(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		badRequest(c, "Missing ownerId")
		return
	}

	note, err := s.notes.GetNote(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"note":    note,
	})
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	var req updateNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if id := c.Param("id"); id != "" {
		req.NoteID = id
	}
	if missing := firstMissing("noteId", req.NoteID, "content", req.Content, "ownerId", req.OwnerID); missing != "" {
		badRequest(c, "Missing required field: "+missing)
		return
	}

	note, err := s.notes.UpdateNote(c.Request.Context(), req.OwnerID, req.NoteID, req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"note":    note,
	})
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		badRequest(c, "Missing ownerId")
		return
	}

	if err := s.notes.DeleteNote(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListCategories(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		badRequest(c, "Missing ownerId")
		return
	}

	categories, err := s.notes.ListCategories(c.Request.Context(), ownerID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": categories,
	})
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if missing := firstMissing("name", req.Name, "ownerId", req.OwnerID); missing != "" {
		badRequest(c, "Missing required field: "+missing)
		return
	}

	ctx := c.Request.Context()
	if req.NoteID != "" {
		category, err := s.notes.CreateAndAssign(ctx, req.OwnerID, req.NoteID, req.Name)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"categoryId": category.ID,
			"message":    "Category created and assigned to note",
		})
		return
	}

	category, err := s.notes.CreateCategory(ctx, req.OwnerID, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"category": category,
		"message":  "Category created successfully",
	})
}

func (s *Server) handleTranscribe(c *gin.Context) {
	header, err := c.FormFile("audio")
	if err != nil {
		badRequest(c, "No audio file provided")
		return
	}
	if header.Size > s.cfg.MaxAudioBytes {
		badRequest(c, "Audio file too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer file.Close()

	text, err := s.transcriber.Transcribe(c.Request.Context(), file, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"text":    text,
	})
}

func (s *Server) handleTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": classifier.Templates(),
	})
}

func (s *Server) handleListSimpleNotes(c *gin.Context) {
	if !s.requireDemoOwner(c) {
		return
	}

	list, err := s.notes.ListNotes(c.Request.Context(), s.cfg.DemoOwnerID, storage.NoteFilter{})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"notes":   list,
	})
}

func (s *Server) handleCreateSimpleNote(c *gin.Context) {
	if !s.requireDemoOwner(c) {
		return
	}

	var req simpleNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "Content is required")
		return
	}

	note, err := s.notes.SaveNote(c.Request.Context(), s.cfg.DemoOwnerID, req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"note":    note,
	})
}

func (s *Server) requireDemoOwner(c *gin.Context) bool {
	if s.cfg.DemoOwnerID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "demo owner is not configured",
		})
		return false
	}
	return true
}

// fail maps service and store errors onto the response envelope.
func (s *Server) fail(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, notes.ErrInvalidInput):
		badRequest(c, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "note not found",
		})
	case errors.Is(err, storage.ErrOwnerNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   ownerMissingMessage,
		})
	case errors.Is(err, transcribe.ErrNoProvider):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "No transcription API key configured",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

// firstMissing takes (name, value) pairs and returns the name of the first
// blank value.
func firstMissing(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return pairs[i]
		}
	}
	return ""
}
