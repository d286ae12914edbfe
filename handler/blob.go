package handler

import (
	"errors"
	"net/http"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

// BlobHandler serves session-only previews while the process lives.
type BlobHandler struct {
	objects *service.ObjectURLRegistry
}

func NewBlobHandler(objects *service.ObjectURLRegistry) *BlobHandler {
	return &BlobHandler{objects: objects}
}

func (h *BlobHandler) Get(c *gin.Context) {
	data, contentType, err := h.objects.Open(c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		middleware.Fail(c, http.StatusNotFound, "Pré-visualização expirada")
		return
	}
	if err != nil {
		respondError(c, err, "Erro ao abrir pré-visualização")
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, contentType, data)
}
