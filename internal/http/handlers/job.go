package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lvflow-backend/internal/http/response"
	"github.com/yungbote/lvflow-backend/internal/services"
)

type JobHandler struct {
	ingest services.IngestService
}

func NewJobHandler(ingest services.IngestService) *JobHandler {
	return &JobHandler{ingest: ingest}
}

// GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.ingest.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, job)
}
