package handler

import (
	"net/http"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the staff side of the lifecycle. Staff bound to a
// department only see manifestations addressed to it; staff without one, or
// bound to the general office, see everything.
type AdminHandler struct {
	service *service.ManifestationService
}

func NewAdminHandler(svc *service.ManifestationService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Get returns a manifestation visible to the current staff user
func (h *AdminHandler) Get(c *gin.Context) {
	m, ok := h.visible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update applies {status?, note?, response?} to a manifestation
func (h *AdminHandler) Update(c *gin.Context) {
	var req service.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "Requisição inválida")
		return
	}

	if _, ok := h.visible(c); !ok {
		return
	}

	m, err := h.service.Update(c.Request.Context(), c.Param("protocolo"), req)
	if err != nil {
		respondError(c, err, "Erro ao atualizar manifestação")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "manifestacao": m})
}

func (h *AdminHandler) visible(c *gin.Context) (*model.Manifestation, bool) {
	m, err := h.service.Lookup(c.Request.Context(), c.Param("protocolo"))
	if err != nil {
		respondError(c, err, "Erro ao consultar protocolo")
		return nil, false
	}

	department := middleware.GetDepartment(c)
	if department != "" && department != model.DepartmentOther && m.Department != model.DepartmentName(department) {
		middleware.Fail(c, http.StatusNotFound, "Protocolo não encontrado")
		return nil, false
	}
	return m, true
}
