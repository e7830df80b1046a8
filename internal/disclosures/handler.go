package disclosures

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/server/respond"
)

// Handler exposes read-only disclosure document lookups.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.listByDate)
	rg.GET("/documents/:docId", h.getByDocID)
}

func (h *Handler) getByDocID(c *gin.Context) {
	docID := c.Param("docId")
	doc, err := h.Repo.GetByDocID(c.Request.Context(), docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) listByDate(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "date query parameter is required", nil)
		return
	}
	fileDate, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD", nil)
		return
	}
	docs, err := h.Repo.ListByFileDate(c.Request.Context(), fileDate, LegalStatusAvailable)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.OK(c, gin.H{"date": raw, "count": len(docs), "documents": docs})
}
