package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:docId/analyze", h.startAnalysis)
	rg.GET("/analysis/:sessionId/progress", h.getProgress)
	rg.GET("/analysis/:sessionId/result", h.getResult)
}

type startRequest struct {
	AnalysisType string `json:"analysisType"`
	Force        bool   `json:"force"`
}

func (h *Handler) startAnalysis(c *gin.Context) {
	docID := c.Param("docId")
	if docID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resp, err := h.Svc.StartAnalysis(c.Request.Context(), docID, req.AnalysisType, req.Force, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, ErrDocumentNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidType):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown analysis type", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	status := http.StatusAccepted
	if resp.Status == StartStatusAlreadyAnalyzed {
		status = http.StatusOK
	}
	respond.JSON(c, status, resp)
}

func (h *Handler) getProgress(c *gin.Context) {
	sessionID := c.Param("sessionId")
	view, err := h.Svc.GetProgress(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) getResult(c *gin.Context) {
	sessionID := c.Param("sessionId")
	view, err := h.Svc.GetResult(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
		return
	}
	respond.OK(c, view)
}
