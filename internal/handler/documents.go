package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"event-invite/internal/apperr"
	"event-invite/internal/models"
)

// DocumentStore reads and writes the event configuration documents.
type DocumentStore interface {
	ReadSettings(ctx context.Context) (models.Settings, error)
	MergeSettings(ctx context.Context, partial map[string]any) (models.Settings, error)
	ReadProgram(ctx context.Context) (models.Program, error)
	WriteProgram(ctx context.Context, program models.Program) error
	ReadParticipants(ctx context.Context) (models.Participants, error)
	WriteParticipants(ctx context.Context, p models.Participants) error
}

// DocumentHandler serves settings, program and participants. Reads are
// public; writes sit behind RequireAdmin.
type DocumentHandler struct {
	store    DocumentStore
	validate *validator.Validate
	log      zerolog.Logger
}

func NewDocumentHandler(store DocumentStore, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, validate: validator.New(), log: log}
}

func (h *DocumentHandler) GetSettings(c *gin.Context) {
	settings, err := h.store.ReadSettings(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PostSettings merges the allow-listed keys of the body into the stored
// settings. Unknown keys are dropped silently.
func (h *DocumentHandler) PostSettings(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var partial map[string]any
	if err := json.Unmarshal(body, &partial); err != nil {
		partial = nil
	}
	if _, err := h.store.MergeSettings(c.Request.Context(), partial); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *DocumentHandler) GetProgram(c *gin.Context) {
	program, err := h.store.ReadProgram(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// PostProgram replaces the program. The body must carry an items array.
func (h *DocumentHandler) PostProgram(c *gin.Context) {
	var program models.Program
	if err := h.bind(c, &program, "Expected { items: [...] }"); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.store.WriteProgram(c.Request.Context(), program); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *DocumentHandler) GetParticipants(c *gin.Context) {
	p, err := h.store.ReadParticipants(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PostParticipants replaces the participants. All three lists are required.
func (h *DocumentHandler) PostParticipants(c *gin.Context) {
	var p models.Participants
	if err := h.bind(c, &p, "Expected { roses:[], candles:[], treasures:[] }"); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.store.WriteParticipants(c.Request.Context(), p); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// bind decodes the body into dst and validates it. Anything that is JSON
// but not the expected shape is reported with shapeMsg.
func (h *DocumentHandler) bind(c *gin.Context, dst any, shapeMsg string) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Malformed(shapeMsg)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperr.Malformed(shapeMsg)
	}
	return nil
}
