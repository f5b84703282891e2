package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lvflow-backend/internal/http/response"
	"github.com/yungbote/lvflow-backend/internal/services"
)

type OfferHandler struct {
	ingest services.IngestService
}

func NewOfferHandler(ingest services.IngestService) *OfferHandler {
	return &OfferHandler{ingest: ingest}
}

// GET /offers/:id
func (h *OfferHandler) GetOffer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_offer_id", fmt.Errorf("invalid offer id %q", c.Param("id")))
		return
	}
	offer, err := h.ingest.GetOfferTree(c.Request.Context(), uint(id))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"offer": offer})
}
