package bills

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"billtracker/internal/document"
	"billtracker/internal/fetcher"
	"billtracker/internal/pipeline"
	"billtracker/internal/reminder"
	"billtracker/internal/shared/server/respond"
	"billtracker/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires the bill pipeline to HTTP routes.
type Handler struct {
	Processor *pipeline.Processor
	// Fetcher may be nil when no inbox is configured.
	Fetcher *fetcher.Fetcher
}

// NewHandler constructs a Handler.
func NewHandler(p *pipeline.Processor, f *fetcher.Fetcher) *Handler {
	return &Handler{Processor: p, Fetcher: f}
}

// RegisterRoutes attaches bill routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bills/extract", h.extract)
	rg.POST("/bills/process", h.process)
	rg.POST("/runs", h.run)
}

// extract runs load and extraction over an uploaded document without
// touching the store, ledger, or reminder strategy.
func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	segments, err := h.Processor.Loader.Load(fileHeader.Filename, data)
	if err != nil {
		var parseErr *document.ParseError
		if errors.As(err, &parseErr) {
			respond.Error(c, http.StatusUnprocessableEntity, "parse_error", "document could not be parsed", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}

	bill, err := h.Processor.Extractor.Extract(c.Request.Context(), segments)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "extraction_error", "failed to query document", nil)
		return
	}

	respond.OK(c, bill)
}

type processRequest struct {
	FileKey string `json:"file_key"`
}

// process runs the full pipeline over an already stored document.
func (h *Handler) process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.FileKey = strings.TrimSpace(req.FileKey)
	if req.FileKey == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file_key is required", nil)
		return
	}
	c.Set("fileKey", req.FileKey)

	outcome, err := h.Processor.ProcessKey(c.Request.Context(), req.FileKey)
	if err != nil {
		var parseErr *document.ParseError
		var authErr *reminder.AuthError
		switch {
		case errors.As(err, &parseErr):
			respond.Error(c, http.StatusUnprocessableEntity, "parse_error", "document could not be parsed", nil)
		case errors.As(err, &authErr):
			respond.Error(c, http.StatusInternalServerError, "auth_error", "reminder credentials rejected", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "processing_error", err.Error(), nil)
		}
		return
	}

	respond.OK(c, outcome)
}

// run triggers a fetch run: inbox to object store to event bus. Without an
// event bus the stored documents are processed inline instead.
func (h *Handler) run(c *gin.Context) {
	if h.Fetcher == nil {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "inbox source is not configured", nil)
		return
	}

	result, err := h.Fetcher.Run(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "fetch_error", err.Error(), nil)
		return
	}

	processed := make([]pipeline.Outcome, 0, len(result.Keys))
	if h.Fetcher.Publisher == nil {
		for _, key := range result.Keys {
			outcome, err := h.Processor.ProcessKey(c.Request.Context(), key)
			if err != nil {
				result.Failed++
				telemetry.Error("run.process_failed", telemetry.Fields{
					"file_key": key,
					"error":    err.Error(),
				})
				continue
			}
			processed = append(processed, outcome)
		}
	}

	respond.OK(c, gin.H{
		"fetched":   result.Fetched,
		"stored":    result.Stored,
		"published": result.Published,
		"failed":    result.Failed,
		"keys":      result.Keys,
		"processed": processed,
	})
}
