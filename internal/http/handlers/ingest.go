package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lvflow-backend/internal/http/response"
	"github.com/yungbote/lvflow-backend/internal/services"
)

type IngestHandler struct {
	ingest         services.IngestService
	maxUploadBytes int64
}

func NewIngestHandler(ingest services.IngestService, maxUploadBytes int64) *IngestHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	return &IngestHandler{ingest: ingest, maxUploadBytes: maxUploadBytes}
}

// POST /ingest/init-db
func (h *IngestHandler) InitDB(c *gin.Context) {
	if err := h.ingest.InitDB(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "ok"})
}

// POST /ingest/from-json?offer_name=...&base_dir=...
func (h *IngestHandler) FromJSON(c *gin.Context) {
	counts, err := h.ingest.IngestJSON(c.Request.Context(), c.Query("offer_name"), c.Query("base_dir"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"inserted": counts})
}

// POST /ingest/upload (multipart: offer_name, file)
func (h *IngestHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	offerName := strings.TrimSpace(c.PostForm("offer_name"))
	if offerName == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("offer_name is required"))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("file is required: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}

	jobID, err := h.ingest.SubmitPDF(c.Request.Context(), offerName, data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job_id": jobID})
}
