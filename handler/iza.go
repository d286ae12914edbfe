package handler

import (
	"net/http"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

type IZAHandler struct {
	classifier service.Classifier
}

func NewIZAHandler(classifier service.Classifier) *IZAHandler {
	return &IZAHandler{classifier: classifier}
}

// Analyze classifies a free text. The result is advisory and never stored.
func (h *IZAHandler) Analyze(c *gin.Context) {
	var req service.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		middleware.Fail(c, http.StatusBadRequest, "Texto é obrigatório")
		return
	}

	result, err := h.classifier.Analyze(c.Request.Context(), req.Text, req.Type)
	if err != nil {
		respondError(c, err, "Erro ao analisar texto")
		return
	}

	c.JSON(http.StatusOK, result)
}
