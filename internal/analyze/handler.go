package analyze

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codm-backend/internal/llm"
	"codm-backend/internal/shared/server/middleware"
	"codm-backend/internal/shared/server/respond"
)

const maxBodySize = 10 << 20 // 10MB

// Handler exposes analysis over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze(KindOverall))
	rg.POST("/analyze/seasonal", h.analyze(KindSeasonal))
}

// jsonRequest accepts both request shapes: the overall route's numbered
// fields and the seasonal route's arrays.
type jsonRequest struct {
	Image1Base64 string   `json:"image1Base64"`
	Image2Base64 string   `json:"image2Base64"`
	Image1Type   string   `json:"image1Type"`
	Image2Type   string   `json:"image2Type"`
	Images       []string `json:"images"`
	ImageTypes   []string `json:"imageTypes"`
}

func (h *Handler) analyze(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

		var (
			uploads []Upload
			err     error
		)
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			uploads, err = readMultipart(c)
		} else {
			uploads, err = readJSON(c)
		}
		if err != nil {
			h.writeError(c, err)
			return
		}

		doc, err := h.Svc.Analyze(c.Request.Context(), kind, middleware.UserIDFromContext(c), uploads)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
	}
}

func readMultipart(c *gin.Context) ([]Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, bodyError(err)
	}
	files := form.File["images"]
	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: unable to read %s", ErrInvalidInput, fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, bodyError(err)
		}
		u, err := NewUpload(data, fh.Header.Get("Content-Type"), fh.Filename)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readJSON(c *gin.Context) ([]Upload, error) {
	var req jsonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bodyError(err)
	}

	payloads, types := req.Images, req.ImageTypes
	if len(payloads) == 0 {
		numbered := [][2]string{
			{req.Image1Base64, req.Image1Type},
			{req.Image2Base64, req.Image2Type},
		}
		types = nil
		for _, n := range numbered {
			if strings.TrimSpace(n[0]) != "" {
				payloads = append(payloads, n[0])
				types = append(types, n[1])
			}
		}
	}

	uploads := make([]Upload, 0, len(payloads))
	for i, p := range payloads {
		declared := ""
		if i < len(types) {
			declared = types[i]
		}
		u, err := DecodeBase64(p, declared, i)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", ErrInvalidInput, tooLarge.Limit)
	}
	return fmt.Errorf("%w: invalid request body", ErrInvalidInput)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var rejected *UpstreamValidationError
	switch {
	case errors.As(err, &rejected):
		respond.Error(c, http.StatusBadRequest, "upstream_validation", rejected.Message, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusInternalServerError, "upstream_not_configured", "API key not configured on server", nil)
	case errors.Is(err, ErrUpstream):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Analysis failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Analysis failed", nil)
	}
}
