package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"event-invite/internal/apperr"
	"event-invite/internal/models"
	"event-invite/internal/rsvp"
)

// RSVPService is the intake and admin view of the RSVP list.
type RSVPService interface {
	Submit(ctx context.Context, sub models.Submission) (rsvp.Result, error)
	List(ctx context.Context) ([]models.Entry, error)
	Summarize(ctx context.Context) (rsvp.Summary, error)
	Delete(ctx context.Context, id string) (string, error)
	Export(ctx context.Context, w io.Writer) error
}

type RSVPHandler struct {
	svc RSVPService
	log zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(svc RSVPService, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{svc: svc, log: log}
}

// Submit handles POST /api/rsvp.
func (h *RSVPHandler) Submit(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var sub models.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		// Valid JSON that is not an object carries no fields.
		sub = models.Submission{}
	}

	res, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if res.Ignored {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true})
		return
	}

	resp := gin.H{"ok": true, "entry": res.Entry}
	if res.Warning != "" {
		resp["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/rsvps.
func (h *RSVPHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if list == nil {
		list = []models.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"rsvps": list})
}

// Summary handles GET /api/rsvps/summary.
func (h *RSVPHandler) Summary(c *gin.Context) {
	sum, err := h.svc.Summarize(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Delete handles DELETE /api/rsvps/:id.
func (h *RSVPHandler) Delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "removedId": removed})
}

// Export handles GET /api/export.
func (h *RSVPHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), &buf); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rsvps.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// readBody returns the request body, "{}" when it is empty. It fails with a
// malformed-request error when the body is not JSON.
func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return []byte("{}"), nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errPayloadTooLarge
		}
		return nil, apperr.Malformed("Invalid JSON")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(body) {
		return nil, apperr.Malformed("Invalid JSON")
	}
	return body, nil
}
