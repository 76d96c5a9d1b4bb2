package dashboards

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codm-backend/internal/shared/server/middleware"
	"codm-backend/internal/shared/server/respond"
)

const maxDocumentSize = 2 << 20 // 2MB

// Handler exposes the gateway over HTTP.
type Handler struct {
	Svc *Service
	// PublicBaseURL prefixes share links when set.
	PublicBaseURL string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, publicBaseURL string) *Handler {
	return &Handler{Svc: svc, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// RegisterRoutes attaches dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/share", h.createShare)
	rg.GET("/share", h.getShare)
	rg.GET("/share/:id", h.getShare)
	rg.POST("/analyses", h.saveAnalysis)
	rg.GET("/dashboards", h.list)
	rg.DELETE("/dashboards/:id", h.delete)
}

type saveRequest struct {
	DashboardData json.RawMessage `json:"dashboardData"`
}

type shareResponse struct {
	ShareID  string `json:"shareId"`
	ShareURL string `json:"shareUrl"`
}

type saveResponse struct {
	Success    bool   `json:"success"`
	AnalysisID string `json:"analysisId"`
	ShareURL   string `json:"shareUrl"`
}

func (h *Handler) createShare(c *gin.Context) {
	data, ok := h.bindDocument(c)
	if !ok {
		return
	}

	id, err := h.Svc.CreateShare(c.Request.Context(), data, middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, "failed to create shareable link")
		return
	}
	c.Set(middleware.DashboardIDKey, id)
	respond.OK(c, shareResponse{ShareID: id, ShareURL: h.shareURL(id)})
}

func (h *Handler) getShare(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "share id is required", nil)
		return
	}
	c.Set(middleware.DashboardIDKey, id)

	data, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to fetch dashboard")
		return
	}
	respond.OK(c, gin.H{"data": data})
}

func (h *Handler) saveAnalysis(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	data, ok := h.bindDocument(c)
	if !ok {
		return
	}

	id, err := h.Svc.SaveAnalysis(c.Request.Context(), data, userID)
	if err != nil {
		h.writeError(c, err, "failed to save analysis")
		return
	}
	c.Set(middleware.DashboardIDKey, id)
	respond.OK(c, saveResponse{Success: true, AnalysisID: id, ShareURL: h.shareURL(id)})
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	recs, err := h.Svc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch dashboards")
		return
	}
	respond.OK(c, gin.H{"dashboards": recs})
}

func (h *Handler) delete(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.DashboardIDKey, id)

	if err := h.Svc.DeleteByID(c.Request.Context(), id, userID); err != nil {
		h.writeError(c, err, "failed to delete dashboard")
		return
	}
	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) bindDocument(c *gin.Context) (json.RawMessage, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentSize)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return nil, false
	}
	raw := strings.TrimSpace(string(req.DashboardData))
	if raw == "" || raw == "null" {
		respond.Error(c, http.StatusBadRequest, "invalid_document", "Invalid dashboard data", nil)
		return nil, false
	}
	return req.DashboardData, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidDocument):
		respond.Error(c, http.StatusBadRequest, "invalid_document", "Invalid dashboard data structure", nil)
	case errors.Is(err, ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "dashboard belongs to another user", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Dashboard not found", nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusInternalServerError, "storage_error", fallback, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", fallback, nil)
	}
}

func (h *Handler) shareURL(id string) string {
	return h.PublicBaseURL + "/shared/" + id
}
